package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/prognosticator/internal/duckdb"
	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPredictor struct {
	mu      sync.Mutex
	calls   int
	uploads []model.Upload
	rows    model.ResultSet
	err     error
}

func (p *stubPredictor) Predict(_ context.Context, up model.Upload) (model.ResultSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.uploads = append(p.uploads, up)
	return p.rows, p.err
}

// blockingPredictor holds every call until release is closed.
type blockingPredictor struct {
	stubPredictor
	started chan struct{}
	release chan struct{}
}

func (p *blockingPredictor) Predict(ctx context.Context, up model.Upload) (model.ResultSet, error) {
	p.started <- struct{}{}
	<-p.release
	return p.stubPredictor.Predict(ctx, up)
}

func (p *blockingPredictor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestServer(t *testing.T, p *stubPredictor, withHistory bool) (*Server, *gin.Engine) {
	t.Helper()
	var history model.HistoryStore
	if withHistory {
		store, err := duckdb.NewStore("")
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		history = store
	}
	srv := NewServer("", p, history)
	return srv, srv.Handler()
}

func multipartRequest(t *testing.T, fileName, content, interval string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := w.CreateFormFile(model.FieldFile, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write([]byte(content))
	}
	if err := w.WriteField(model.FieldTimeInterval, interval); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/submit", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIndex_RendersEmptyForm(t *testing.T) {
	_, r := newTestServer(t, &stubPredictor{}, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("index status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Choose file") || !strings.Contains(body, ">Predict<") {
		t.Errorf("index missing default labels:\n%s", body)
	}
	if strings.Contains(body, `id="result"`) || strings.Contains(body, `id="notice"`) {
		t.Error("fresh page should show neither result nor error")
	}
}

func TestSubmit_MissingInputsMakesNoCall(t *testing.T) {
	p := &stubPredictor{}
	_, r := newTestServer(t, p, false)

	w := serve(r, multipartRequest(t, "", "", ""))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), model.MsgMissingInput) {
		t.Errorf("body missing validation message:\n%s", w.Body.String())
	}

	w = serve(r, multipartRequest(t, "traffic.csv", "a,b\n", ""))
	if !strings.Contains(w.Body.String(), model.MsgMissingInput) {
		t.Error("empty interval should fail validation")
	}
	if p.calls != 0 {
		t.Errorf("predictor calls = %d, want 0", p.calls)
	}
}

func TestSubmit_SuccessRendersTable(t *testing.T) {
	p := &stubPredictor{rows: model.ResultSet{
		model.NewRow("timestamp", "08:00", "volume", json.Number("12")),
	}}
	srv, r := newTestServer(t, p, true)

	w := serve(r, multipartRequest(t, "traffic.csv", "timestamp\n", "300"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "<th>timestamp</th><th>volume</th>") {
		t.Errorf("header row missing:\n%s", body)
	}
	if !strings.Contains(body, "<td>08:00</td><td>12</td>") {
		t.Errorf("data row missing:\n%s", body)
	}
	if strings.Count(body, "<tr>") != 2 {
		t.Errorf("rows = %d, want header + 1", strings.Count(body, "<tr>"))
	}

	if p.calls != 1 {
		t.Fatalf("predictor calls = %d, want 1", p.calls)
	}
	if up := p.uploads[0]; up.FileName != "traffic.csv" || up.TimeInterval != "300" || string(up.Data) != "timestamp\n" {
		t.Errorf("unexpected upload %+v", up)
	}
	if got := srv.State().Result(); len(got) != 1 {
		t.Errorf("state result rows = %d, want 1", len(got))
	}

	// Download returns the same rows as CSV.
	dl := serve(r, httptest.NewRequest(http.MethodGet, "/download", nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("download status = %d", dl.Code)
	}
	if dl.Body.String() != "timestamp,volume\n08:00,12" {
		t.Errorf("download body = %q", dl.Body.String())
	}
	if cd := dl.Header().Get("Content-Disposition"); !strings.Contains(cd, "predictions.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	hist := serve(r, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if hist.Code != http.StatusOK {
		t.Fatalf("history status = %d", hist.Code)
	}
	var h struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(hist.Body.Bytes(), &h); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if h.Count != 1 {
		t.Errorf("history count = %d, want 1", h.Count)
	}
}

func TestSubmit_ServerErrorPanel(t *testing.T) {
	p := &stubPredictor{err: &model.ServerError{Status: 404, Message: "bad file"}}
	_, r := newTestServer(t, p, false)

	w := serve(r, multipartRequest(t, "traffic.csv", "x", "60"))
	body := w.Body.String()
	if !strings.Contains(body, "Response Status: 404") || !strings.Contains(body, "bad file") {
		t.Errorf("error panel missing:\n%s", body)
	}
	if strings.Contains(body, `id="result"`) {
		t.Error("result table must not render alongside an error")
	}

	dl := serve(r, httptest.NewRequest(http.MethodGet, "/download", nil))
	if dl.Code != http.StatusNotFound {
		t.Errorf("download without result = %d, want 404", dl.Code)
	}
}

func TestSubmit_ServerErrorPlaceholder(t *testing.T) {
	p := &stubPredictor{err: &model.ServerError{Status: 500}}
	_, r := newTestServer(t, p, false)

	w := serve(r, multipartRequest(t, "traffic.csv", "x", "60"))
	if !strings.Contains(w.Body.String(), model.MsgUnexpectedFailure) {
		t.Errorf("placeholder message missing:\n%s", w.Body.String())
	}
}

func TestSubmit_ConnectivityFailure(t *testing.T) {
	p := &stubPredictor{err: &model.ConnectivityError{Err: errors.New("connection refused")}}
	srv, r := newTestServer(t, p, false)

	w := serve(r, multipartRequest(t, "traffic.csv", "x", "60"))
	body := w.Body.String()
	if !strings.Contains(body, model.MsgConnectivity) {
		t.Errorf("connectivity message missing:\n%s", body)
	}
	if strings.Contains(body, "connection refused") {
		t.Error("transport detail must not be shown")
	}
	if srv.State().Status.String() != "idle" {
		t.Errorf("status = %s, want idle", srv.State().Status)
	}
}

func TestSubmit_KeepsPreviouslySelectedFile(t *testing.T) {
	p := &stubPredictor{rows: model.ResultSet{model.NewRow("a", 1)}}
	_, r := newTestServer(t, p, false)

	serve(r, multipartRequest(t, "traffic.csv", "data", "60"))
	serve(r, multipartRequest(t, "", "", "120"))

	if p.calls != 2 {
		t.Fatalf("calls = %d, want 2", p.calls)
	}
	if got := p.uploads[1]; got.FileName != "traffic.csv" || got.TimeInterval != "120" {
		t.Errorf("second upload = %+v, want previous file with new interval", got)
	}
}

func TestState_OmitsFileBody(t *testing.T) {
	p := &stubPredictor{rows: model.ResultSet{model.NewRow("a", 1)}}
	_, r := newTestServer(t, p, false)
	serve(r, multipartRequest(t, "traffic.csv", "secret-bytes", "60"))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d", w.Code)
	}
	var st map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	file, _ := st["file"].(map[string]any)
	if file["name"] != "traffic.csv" {
		t.Errorf("file = %v", st["file"])
	}
	if _, ok := file["data"]; ok {
		t.Error("file data should not be exposed")
	}
}

func TestHistory_DisabledAndBadLimit(t *testing.T) {
	_, r := newTestServer(t, &stubPredictor{}, false)
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/api/history", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled history = %d, want 503", w.Code)
	}

	_, r = newTestServer(t, &stubPredictor{}, true)
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/api/history?limit=abc", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/api/history/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", w.Code)
	}
}

func TestDownloadXLSX(t *testing.T) {
	p := &stubPredictor{rows: model.ResultSet{model.NewRow("a", json.Number("1"))}}
	_, r := newTestServer(t, p, false)

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/download.xlsx", nil)); w.Code != http.StatusNotFound {
		t.Errorf("xlsx before result = %d, want 404", w.Code)
	}

	serve(r, multipartRequest(t, "traffic.csv", "x", "60"))
	w := serve(r, httptest.NewRequest(http.MethodGet, "/download.xlsx", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("xlsx body is not a zip archive")
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestServer(t, &stubPredictor{}, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" || body["submission"] != "idle" {
		t.Errorf("health body = %v", body)
	}
}

func TestAPI_AllowsCrossOrigin(t *testing.T) {
	_, r := newTestServer(t, &stubPredictor{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("form page should not carry CORS headers, got %q", got)
	}
}

func TestStart_ErrorsClosedAfterStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", &stubPredictor{}, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err, ok := <-srv.Errors():
		if ok {
			t.Fatalf("unexpected serve error after graceful stop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Errors channel not closed after Stop")
	}
}

func TestStart_ReportsListenFailure(t *testing.T) {
	first := NewServer("127.0.0.1:0", &stubPredictor{}, nil)
	if err := first.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second := NewServer(first.Addr(), &stubPredictor{}, nil)
	if err := second.Start(); err == nil {
		second.Stop()
		t.Fatal("expected error binding an address already in use")
	}
}

func TestSubmit_RejectsWhileLoading(t *testing.T) {
	p := &blockingPredictor{
		stubPredictor: stubPredictor{rows: model.ResultSet{model.NewRow("volume", json.Number("3"))}},
		started:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	srv := NewServer("", p, nil)
	r := srv.Handler()

	req := multipartRequest(t, "traffic.csv", "volume\n", "300")
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- serve(r, req) }()

	select {
	case <-p.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never reached the predictor")
	}
	if st := srv.State().Status; st != form.Loading {
		t.Fatalf("status during first call = %v, want loading", st)
	}

	w := serve(r, multipartRequest(t, "other.csv", "volume\n", "60"))
	if w.Code != http.StatusConflict {
		t.Errorf("second submit status = %d, want 409", w.Code)
	}
	if st := srv.State().Status; st != form.Loading {
		t.Errorf("status after rejected submit = %v, want loading", st)
	}
	if got := srv.State().TimeInterval; got != "300" {
		t.Errorf("rejected submit changed interval to %q", got)
	}

	close(p.release)
	var res *httptest.ResponseRecorder
	select {
	case res = <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission did not finish after release")
	}
	if res.Code != http.StatusOK {
		t.Errorf("first submit status = %d, want 200", res.Code)
	}
	if n := p.callCount(); n != 1 {
		t.Errorf("predictor calls = %d, want 1", n)
	}
	st := srv.State()
	if st.Status != form.Idle || st.Outcome.Kind != form.KindOK {
		t.Errorf("final state = %v/%v, want idle with result", st.Status, st.Outcome.Kind)
	}
}

func TestSubmit_UnreadableUploadShowsMessage(t *testing.T) {
	p := &stubPredictor{}
	srv, r := newTestServer(t, p, false)

	body := "--xyz\r\nContent-Disposition: form-data; name=\"" + model.FieldFile +
		"\"; filename=\"traffic.csv\"\r\n\r\nvolume"
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	w := serve(r, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), model.MsgUnreadableFile) {
		t.Errorf("body missing unreadable-file message:\n%s", w.Body.String())
	}
	if p.calls != 0 {
		t.Errorf("predictor calls = %d, want 0", p.calls)
	}
	st := srv.State()
	if st.Status != form.Idle || st.Outcome.Kind != form.KindValidation {
		t.Errorf("state = %v/%v, want idle validation", st.Status, st.Outcome.Kind)
	}
}
