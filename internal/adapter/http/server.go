package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cwygoda/playlistbot/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// JobLookup is the read side of the job history.
type JobLookup interface {
	Get(ctx context.Context, id string) (*domain.JobRecord, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.JobRecord, error)
}

// Server is the HTTP adapter exposing liveness and job history to the
// process supervisor.
type Server struct {
	jobs    JobLookup
	active  func() int
	started time.Time
	logger  *log.Logger
	mux     *http.ServeMux
	server  *http.Server
}

// NewServer creates a new HTTP server. active reports the number of running
// jobs and may be nil.
func NewServer(jobs JobLookup, active func() int, addr string, logger *log.Logger) *Server {
	if active == nil {
		active = func() int { return 0 }
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		jobs:    jobs,
		active:  active,
		started: time.Now(),
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /users/{id}/jobs", s.handleListJobs)
}

// jobResponse is the JSON response for job endpoints.
type jobResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	Channel   string `json:"channel"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Uploaded  int    `json:"uploaded"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	ActiveJobs int    `json:"active_jobs"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.started).Truncate(time.Second).String(),
		ActiveJobs: s.active(),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job", "job", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	jobs, err := s.jobs.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("list jobs", "user", userID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, jobToResponse(&jobs[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func jobToResponse(job *domain.JobRecord) jobResponse {
	return jobResponse{
		ID:        job.ID,
		UserID:    job.UserID,
		Channel:   job.Channel,
		URL:       job.URL,
		Status:    string(job.Status),
		Total:     job.Total,
		Uploaded:  job.Uploaded,
		Skipped:   job.Skipped,
		Failed:    job.Failed,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
