package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/productive-me/momentum/internal/app/tracker"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/snapshot"
)

// maxBodyBytes bounds request bodies, snapshots included.
const maxBodyBytes = 8 << 20

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ─── Status ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": s.health.Statuses()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable: "+err.Error())
		return
	}
	cal := s.svc.Calendar()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "momentum is running",
		"today":    cal.Today(),
		"timezone": cal.Location().String(),
	})
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.ListTasks(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in tracker.TaskInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.svc.CreateTask(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	task, revs, err := s.svc.CompleteTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if revs == nil {
		revs = []domain.Revision{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task, "revisions": revs})
}

func (s *Server) handleReopenTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.ReopenTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Habits ─────────────────────────────────────────────────────────────────

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.ListHabits(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var in tracker.HabitInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	habit, err := s.svc.CreateHabit(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

type toggleRequest struct {
	Day *clock.Date `json:"day,omitempty"`
}

func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Day != nil && !req.Day.IsValid() {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	marked, err := s.svc.ToggleHabit(r.Context(), chi.URLParam(r, "id"), req.Day)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": marked})
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHabit(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Revisions ──────────────────────────────────────────────────────────────

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	revs, err := s.svc.ListRevisions(r.Context(), all)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": revs})
}

func (s *Server) handleDueRevisions(w http.ResponseWriter, r *http.Request) {
	due, overdue, err := s.svc.DueRevisions(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"due": due, "overdue": overdue})
}

func (s *Server) handleCompleteRevision(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CompleteRevision(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Reports ────────────────────────────────────────────────────────────────

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Report(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleInsights returns the ranked insights. ?limit=n trims the list
// further; it cannot raise it above the configured cap.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	report, err := s.svc.Report(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	insights := report.Insights
	if limit > 0 && len(insights) > limit {
		insights = insights[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Progress(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAnalyze computes a report for a posted snapshot (JSON or YAML)
// without touching the store.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	snap, err := snapshot.Read(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Analyze(snap))
}
