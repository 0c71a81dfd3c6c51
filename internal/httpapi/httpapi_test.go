package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vocalscribe/vocalscribe/internal/config"
	"github.com/vocalscribe/vocalscribe/internal/jobstore"
	"github.com/vocalscribe/vocalscribe/internal/pitch"
	"github.com/vocalscribe/vocalscribe/internal/wavio"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := jobstore.Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open jobstore: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{ModelSize: "full", Pitch: pitch.DefaultOptions()}
	return NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), db)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware(inner)

	req := httptest.NewRequest(http.MethodOptions, "/api/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 for OPTIONS, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header to allow all origins")
	}
}

func TestCreateJobAndPollStatus(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "tone.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(bytes.Repeat([]byte{0x01}, 64))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var created jobResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a non-empty job id")
	}
	if created.Status != string(jobstore.StatusPending) {
		t.Errorf("expected status pending, got %s", created.Status)
	}

	statusReq := httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.ID, nil)
	statusRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(statusRec, statusReq)

	if statusRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusRec.Code)
	}

	var polled jobResponse
	if err := json.NewDecoder(statusRec.Body).Decode(&polled); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if polled.ID != created.ID {
		t.Errorf("expected job id %s, got %s", created.ID, polled.ID)
	}
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateJobRejectsUploadOverMaxDuration(t *testing.T) {
	s := newTestServer(t)
	s.cfg.MaxAudioDurationS = 1.0 // 1 second max

	samples := make([]float64, pitch.SampleRate*2) // 2 seconds, over the limit
	var wavBuf bytes.Buffer
	if err := wavio.Write(&wavBuf, samples, pitch.SampleRate); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "long.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(wavBuf.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an over-duration upload, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetResultBeforeCompletionConflicts(t *testing.T) {
	s := newTestServer(t)

	if err := s.db.CreateJob("job-1", "full", 0.5, "deadbeef", "in.wav", ""); err != nil {
		t.Fatalf("create job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1/result", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}
