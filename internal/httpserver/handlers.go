package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/prognosticator/internal/export"
	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.HTML(http.StatusOK, "page", newPageView(s.State()))
}

// handleSubmit applies select-file, set-interval and submit in one request,
// then performs exactly one prediction call.
func (s *Server) handleSubmit(c *gin.Context) {
	selected, err := readSelectedFile(c)

	s.mu.Lock()
	state := s.state
	if err != nil && state.Status != form.Loading {
		log.Printf("httpserver: reading uploaded file: %v", err)
		s.state = form.Reduce(state, form.SubmitFailed{Outcome: form.Invalid(model.MsgUnreadableFile)})
		current := s.state
		s.mu.Unlock()
		c.HTML(http.StatusBadRequest, "page", newPageView(current))
		return
	}
	if selected != nil {
		state = form.Reduce(state, form.FileSelected{File: *selected})
	}
	state = form.Reduce(state, form.IntervalChanged{Text: c.PostForm(model.FieldTimeInterval)})

	next, up, err := state.SubmitStart()
	if errors.Is(err, form.ErrBusy) {
		current := s.state
		s.mu.Unlock()
		c.HTML(http.StatusConflict, "page", newPageView(current))
		return
	}
	s.state = next
	s.mu.Unlock()

	if err != nil {
		c.HTML(http.StatusBadRequest, "page", newPageView(next))
		return
	}

	// The call runs to completion even if the browser goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	rows, perr := s.predictor.Predict(ctx, up)

	s.mu.Lock()
	s.state = form.Reduce(s.state, form.ResultEvent(rows, perr))
	resolved := s.state
	s.mu.Unlock()

	s.record(up, resolved.Outcome)
	c.HTML(http.StatusOK, "page", newPageView(resolved))
}

func readSelectedFile(c *gin.Context) (*form.SelectedFile, error) {
	fh, err := c.FormFile(model.FieldFile)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &form.SelectedFile{Name: fh.Filename, Data: data}, nil
}

func (s *Server) handleDownloadCSV(c *gin.Context) {
	content, err := export.CSV(s.State().Result())
	if errors.Is(err, export.ErrNoResult) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no predictions to download"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build csv"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", model.DefaultExportName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(content))
}

func (s *Server) handleDownloadXLSX(c *gin.Context) {
	wb, err := export.Workbook(s.State().Result())
	if errors.Is(err, export.ErrNoResult) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no predictions to download"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
		return
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write workbook"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", model.DefaultWorkbookName))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.State()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"submission": st.Status.String(),
		"history":    s.history != nil,
	})
}

// handleState returns the serializable form state without the file body.
func (s *Server) handleState(c *gin.Context) {
	st := s.State()
	if st.File != nil {
		st.File = &form.SelectedFile{Name: st.File.Name}
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	limit := model.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	subs, err := s.history.RecentSubmissions(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}

	items := make([]gin.H, 0, len(subs))
	for _, sub := range subs {
		items = append(items, gin.H{
			"id":           sub.ID,
			"createdAt":    sub.CreatedAt,
			"fileName":     sub.FileName,
			"timeInterval": sub.TimeInterval,
			"outcome":      sub.Outcome,
			"status":       sub.Status,
			"message":      sub.Message,
			"rowCount":     sub.RowCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"submissions": items, "count": len(items)})
}

func (s *Server) handleHistoryRows(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	rows, err := s.history.SubmissionRows(c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown submission"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read submission"})
		return
	}
	if rows == nil {
		rows = model.ResultSet{}
	}
	c.JSON(http.StatusOK, gin.H{"columns": rows.Columns(), "rows": rows})
}
