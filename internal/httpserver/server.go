// Package httpserver serves the prediction upload form as a server-rendered
// web page backed by one shared form state.
package httpserver

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

// maxUploadBytes bounds the multipart body kept in memory.
const maxUploadBytes = 32 << 20

// Server provides the web upload form and its download and API routes.
type Server struct {
	addr      string
	predictor model.Predictor
	history   model.HistoryStore // nil = history disabled
	page      *template.Template
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	errCh     chan error

	mu    sync.Mutex
	state form.State
}

// NewServer creates a new web form server. history may be nil.
func NewServer(addr string, predictor model.Predictor, history model.HistoryStore) *Server {
	if addr == "" {
		addr = model.DefaultListenAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		predictor: predictor,
		history:   history,
		page:      template.Must(template.New("page").Parse(pageTemplate)),
		ctx:       ctx,
		cancel:    cancel,
		errCh:     make(chan error, 1),
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = maxUploadBytes
	r.SetHTMLTemplate(s.page)

	r.GET("/", s.handleIndex)
	r.POST("/submit", s.handleSubmit)
	r.GET("/download", s.handleDownloadCSV)
	r.GET("/download.xlsx", s.handleDownloadXLSX)

	api := r.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	api.GET("/health", s.handleHealth)
	api.GET("/state", s.handleState)
	api.GET("/history", s.handleHistory)
	api.GET("/history/:id", s.handleHistoryRows)

	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	s.addr = listener.Addr().String()
	log.Printf("httpserver: listening on http://%s", s.addr)

	go func() {
		defer close(s.errCh)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
	}()
	return nil
}

// Errors yields the error that stopped serving, if any. It is closed once
// the server stops.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Addr returns the listen address, resolved once Start has bound it.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// State returns a copy of the current form state.
func (s *Server) State() form.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) record(up model.Upload, o form.Outcome) {
	if s.history == nil {
		return
	}
	if _, err := s.history.RecordSubmission(form.SubmissionOf(up, o)); err != nil {
		log.Printf("httpserver: record submission: %v", err)
	}
}
