// Package api provides the HTTP server for momentum: task, habit and
// revision CRUD plus the derived report, insights and progress series.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/app/tracker"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/health"
)

// Version is reported by /api/version. The CLI overrides it with the
// build version.
var Version = "dev"

// Server is the momentum HTTP API server.
type Server struct {
	svc            *tracker.Service
	log            zerolog.Logger
	corsOrigins    []string
	metricsEnabled bool
	health         *health.Checker
}

// NewServer creates a new API server.
func NewServer(svc *tracker.Service, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log, corsOrigins: []string{"*"}}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth makes /health report the checker's results.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// SetCORSOrigins restricts which browser origins may call the API.
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Delete("/{id}", s.handleDeleteTask)
			r.Post("/{id}/complete", s.handleCompleteTask)
			r.Post("/{id}/reopen", s.handleReopenTask)
		})

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.handleListHabits)
			r.Post("/", s.handleCreateHabit)
			r.Delete("/{id}", s.handleDeleteHabit)
			r.Post("/{id}/toggle", s.handleToggleHabit)
		})

		r.Route("/revisions", func(r chi.Router) {
			r.Get("/", s.handleListRevisions)
			r.Get("/due", s.handleDueRevisions)
			r.Post("/{id}/complete", s.handleCompleteRevision)
		})

		r.Get("/report", s.handleReport)
		r.Get("/insights", s.handleInsights)
		r.Get("/progress", s.handleProgress)
		r.Post("/analyze", s.handleAnalyze)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(r)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

// writeDomainError maps sentinel errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrRevisionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTask),
		errors.Is(err, domain.ErrInvalidHabit):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Ctx(r.Context()).Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func errorType(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 400 && status < 500:
		return "invalid_request"
	default:
		return "server_error"
	}
}
