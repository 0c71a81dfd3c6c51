// Package httpapi implements the HTTP job API: multipart audio upload,
// job status polling, and result/artifact download. It is a thin adaptor
// around internal/jobstore; none of the pipeline's musical heuristics
// live here.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/vocalscribe/vocalscribe/internal/config"
	"github.com/vocalscribe/vocalscribe/internal/jobstore"
	"github.com/vocalscribe/vocalscribe/internal/wavio"
)

const maxUploadBytes = 100 << 20 // 100 MiB

// Server provides the HTTP REST endpoints of the transcription job API.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *jobstore.DB
	mux    *http.ServeMux
}

// NewServer wires the job API's routes against the given job store.
func NewServer(cfg *config.Config, logger *slog.Logger, db *jobstore.DB) *Server {
	s := &Server{cfg: cfg, logger: logger, db: db, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped with CORS.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /api/jobs/{id}/result", s.handleGetResult)
	s.mux.HandleFunc("GET /api/jobs/{id}/download/midi", s.handleDownloadMIDI)
	s.mux.HandleFunc("GET /api/jobs/{id}/download/json", s.handleDownloadJSON)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jobResponse is the JSON shape returned for job status polling.
type jobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing \"audio\" file field: "+err.Error())
		return
	}
	defer file.Close()

	audioBytes, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}
	if len(audioBytes) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio upload")
		return
	}

	if err := s.checkAudioDuration(audioBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	modelSize := r.FormValue("model_size")
	if modelSize == "" {
		modelSize = s.cfg.ModelSize
	}

	confidenceThreshold := s.cfg.Pitch.ConfidenceThreshold
	if v := r.FormValue("confidence_threshold"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			confidenceThreshold = parsed
		}
	}

	webhookURL := r.FormValue("webhook_url")

	audioHash, err := s.db.PutBlob(jobstore.KindAudio, audioBytes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload: "+err.Error())
		return
	}

	jobID := uuid.NewString()
	if err := s.db.CreateJob(jobID, modelSize, confidenceThreshold, audioHash, header.Filename, webhookURL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue job: "+err.Error())
		return
	}

	s.logger.Info("job enqueued", "job_id", jobID, "filename", header.Filename, "model_size", modelSize)
	writeJSON(w, http.StatusAccepted, jobResponse{ID: jobID, Status: string(jobstore.StatusPending), Progress: jobstore.ProgressQueued})
}

// checkAudioDuration rejects uploads whose declared duration exceeds the
// configured maximum, before a job is ever enqueued. A file this boundary
// cannot decode as WAV is left to the worker pool to reject; duration
// checking is advisory here, not a decoder replacement.
func (s *Server) checkAudioDuration(audioBytes []byte) error {
	if s.cfg.MaxAudioDurationS <= 0 {
		return nil
	}
	samples, sampleRate, err := wavio.Read(bytes.NewReader(audioBytes))
	if err != nil {
		return nil
	}
	if sampleRate <= 0 {
		return nil
	}
	durationS := float64(len(samples)) / float64(sampleRate)
	if durationS > s.cfg.MaxAudioDurationS {
		return fmt.Errorf("audio duration %.1fs exceeds the maximum of %.1fs", durationS, s.cfg.MaxAudioDurationS)
	}
	return nil
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.lookupJob(w, r)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{ID: job.ID, Status: string(job.Status), Progress: job.Progress, Error: job.Error})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	job, err := s.lookupJob(w, r)
	if err != nil {
		return
	}
	if job.Status != jobstore.StatusCompleted {
		writeError(w, http.StatusConflict, "job not completed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(job.ResultJSON))
}

func (s *Server) handleDownloadMIDI(w http.ResponseWriter, r *http.Request) {
	s.downloadArtifact(w, r, func(j *jobstore.Job) string { return j.MIDIBlobHash }, "audio/midi", "transcription.mid")
}

func (s *Server) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	s.downloadArtifact(w, r, func(j *jobstore.Job) string { return j.JSONBlobHash }, "application/json", "transcription.json")
}

func (s *Server) downloadArtifact(w http.ResponseWriter, r *http.Request, hashOf func(*jobstore.Job) string, contentType, filename string) {
	job, err := s.lookupJob(w, r)
	if err != nil {
		return
	}
	if job.Status != jobstore.StatusCompleted {
		writeError(w, http.StatusConflict, "job not completed")
		return
	}

	data, err := s.db.GetBlob(hashOf(job))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load artifact: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Write(data)
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*jobstore.Job, error) {
	id := r.PathValue("id")
	job, err := s.db.GetJob(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job: "+err.Error())
		return nil, err
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return nil, errJobNotFound
	}
	return job, nil
}

var errJobNotFound = errors.New("job not found")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
