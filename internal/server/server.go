// Package server is the HTTP front door: it accepts uploads, creates job
// records, enqueues work, and serves job state back to clients. All pipeline
// execution happens in the worker pool behind the queue.
package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/format"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/jobstore"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/llm"
	"github.com/DrBenedictPorkins/audio-diarizer/internal/queue"
)

const maxFilenameLength = 100

type Config struct {
	Host             string
	Port             int
	UploadDir        string
	MaxFileSizeBytes int64
	OllamaEnabled    bool
	OllamaModel      string
}

type Server struct {
	config   Config
	store    jobstore.Store
	queue    queue.Queue
	enhancer llm.Enhancer
	httpSrv  *http.Server
}

func New(config Config, store jobstore.Store, q queue.Queue, enhancer llm.Enhancer) (*Server, error) {
	if err := os.MkdirAll(config.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if enhancer == nil {
		enhancer = llm.Disabled{}
	}

	s := &Server{
		config:   config,
		store:    store,
		queue:    q,
		enhancer: enhancer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", s.handleSubmit)
	mux.HandleFunc("GET /transcribe/{job_id}", s.handleStatus)
	mux.HandleFunc("DELETE /transcribe/{job_id}", s.handleDelete)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ollama/status", s.handleOllamaStatus)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}
	return s, nil
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	log.Printf("HTTP server listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxFileSizeBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds maximum size of %d bytes", s.config.MaxFileSizeBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported content type %q, expected audio/*", contentType))
		return
	}

	expectedSpeakers := 0
	if v := r.FormValue("expected_speakers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 || n > 10 {
			writeError(w, http.StatusBadRequest, "expected_speakers must be an integer between 2 and 10")
			return
		}
		expectedSpeakers = n
	}

	responseFormat := r.FormValue("response_format")
	if _, err := format.Parse(responseFormat); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enableLLM := r.FormValue("enable_llm_analysis") == "true"
	if enableLLM && !s.config.OllamaEnabled {
		writeError(w, http.StatusBadRequest, "llm analysis requested but not enabled on this server")
		return
	}

	jobID := uuid.New().String()
	filePath := filepath.Join(s.config.UploadDir, jobID+"_"+sanitizeFilename(header.Filename))

	contentHash, err := saveUpload(file, filePath)
	if err != nil {
		os.Remove(filePath)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds maximum size of %d bytes", s.config.MaxFileSizeBytes))
			return
		}
		log.Printf("Job %s: failed to save upload: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	rec := jobstore.Record{
		JobID:             jobID,
		Status:            jobstore.StatusPending,
		CreatedAt:         createdAt,
		FilePath:          filePath,
		ExpectedSpeakers:  expectedSpeakers,
		ResponseFormat:    responseFormat,
		EnableLLMAnalysis: enableLLM,
	}
	if err := s.store.Create(r.Context(), rec); err != nil {
		os.Remove(filePath)
		log.Printf("Job %s: failed to create job record: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	task := queue.Task{
		JobID:             jobID,
		FilePath:          filePath,
		ContentHash:       contentHash,
		ExpectedSpeakers:  expectedSpeakers,
		ResponseFormat:    responseFormat,
		EnableLLMAnalysis: enableLLM,
		CreatedAt:         createdAt,
	}
	if err := s.queue.Enqueue(r.Context(), task); err != nil {
		os.Remove(filePath)
		if derr := s.store.Delete(r.Context(), jobID); derr != nil {
			log.Printf("Job %s: failed to delete record after enqueue error: %v", jobID, derr)
		}
		log.Printf("Job %s: failed to enqueue: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	log.Printf("Job %s: accepted %s (%d bytes, hash %s)",
		jobID, header.Filename, header.Size, contentHash[:12])
	writeJSON(w, http.StatusOK, submitResponse{JobID: jobID, Status: string(jobstore.StatusPending)})
}

type statusResponse struct {
	JobID           string          `json:"job_id"`
	Status          string          `json:"status"`
	CreatedAt       string          `json:"created_at,omitempty"`
	CompletedAt     string          `json:"completed_at,omitempty"`
	Progress        string          `json:"progress,omitempty"`
	ProgressPercent *int            `json:"progress_percent,omitempty"`
	Error           string          `json:"error,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	rec, err := s.store.Get(r.Context(), jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		log.Printf("Job %s: failed to read job record: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to read job")
		return
	}

	resp := statusResponse{
		JobID:           rec.JobID,
		Status:          string(rec.Status),
		CreatedAt:       rec.CreatedAt,
		CompletedAt:     rec.CompletedAt,
		Progress:        rec.Progress,
		ProgressPercent: rec.ProgressPercent,
		Error:           rec.Error,
	}
	if rec.Result != "" {
		// JSON results embed as an object; the text formats embed as a
		// JSON string so the response stays valid JSON either way.
		if rec.ResponseFormat == "" || rec.ResponseFormat == string(format.FormatJSON) {
			resp.Result = json.RawMessage(rec.Result)
		} else if encoded, err := json.Marshal(rec.Result); err == nil {
			resp.Result = encoded
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	rec, err := s.store.Get(r.Context(), jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		log.Printf("Job %s: failed to read job record: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to read job")
		return
	}

	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Job %s: failed to remove upload on delete: %v", jobID, err)
		}
	}
	if err := s.store.Delete(r.Context(), jobID); err != nil {
		log.Printf("Job %s: failed to delete job record: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}

	log.Printf("Job %s: deleted", jobID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "job deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "healthy",
		"ollama_enabled": s.config.OllamaEnabled,
	}
	if s.config.OllamaEnabled {
		resp["ollama_available"] = s.enhancer.Available(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOllamaStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"enabled":   s.config.OllamaEnabled,
		"available": false,
		"model":     s.config.OllamaModel,
	}
	if s.config.OllamaEnabled {
		resp["available"] = s.enhancer.Available(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveUpload streams the upload to disk, hashing it on the way through.
func saveUpload(src io.Reader, dstPath string) (string, error) {
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(io.MultiWriter(dst, hasher), src); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// sanitizeFilename strips any path components and caps the length. Uploads
// with unusable names fall back to a fixed one.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "audio"
	}
	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) >= maxFilenameLength {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
