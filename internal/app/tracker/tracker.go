// Package tracker is the application service behind the API and CLI. Every
// mutation writes through the record store and then recomputes the report
// from a fresh snapshot; there is no event bus and no partial patching.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/app/engine"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/infra/metrics"
)

// Service coordinates the record store and the analytics engine.
type Service struct {
	store  domain.RecordStore
	engine *engine.Engine
	log    zerolog.Logger
	newID  func() string

	mu     sync.RWMutex
	latest *domain.Report
}

// Option customizes a Service.
type Option func(*Service)

// WithIDGenerator replaces uuid.NewString for new records.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates the service.
func New(store domain.RecordStore, eng *engine.Engine, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: eng,
		log:    log,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar returns the calendar used for "today" and bucketing.
func (s *Service) Calendar() clock.Calendar {
	return s.engine.Calendar()
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Priority    string      `json:"priority"`
	Deadline    *clock.Date `json:"deadline,omitempty"`
}

// ListTasks returns every task.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.store.ListTasks(ctx)
}

// CreateTask validates in and stores a new open task.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	t := domain.Task{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Priority:    domain.ParsePriority(in.Priority),
		CreatedAt:   clock.At(s.Calendar().Now()),
		Deadline:    in.Deadline,
	}
	if err := t.Validate(); err != nil {
		return domain.Task{}, err
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return domain.Task{}, err
	}

	metrics.TaskEvents.WithLabelValues("created").Inc()
	s.log.Info().Str("task", t.ID).Str("category", t.CategoryLabel()).Msg("task created")
	s.refresh(ctx)
	return t, nil
}

// CompleteTask marks a task done and schedules its reviews. The completion
// and the reviews are stored together, so a failure leaves the task open. It
// returns the task's reviews as stored: a task completed before keeps its
// first schedule. Completing a task that is already done changes nothing and
// returns no reviews.
func (s *Service) CompleteTask(ctx context.Context, id string) (domain.Task, []domain.Revision, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, nil, err
	}
	if t.Completed {
		return t, nil, nil
	}

	at := clock.At(s.Calendar().Now())
	t.Completed = true
	t.CompletedAt = &at

	fresh := s.engine.Complete(t, at)
	stored, inserted, err := s.store.CompleteTask(ctx, t, fresh)
	if err != nil {
		return domain.Task{}, nil, fmt.Errorf("complete task %s: %w", t.ID, err)
	}

	metrics.TaskEvents.WithLabelValues("completed").Inc()
	metrics.RevisionsScheduled.Add(float64(inserted))
	s.log.Info().Str("task", t.ID).Int("revisions", inserted).Msg("task completed")
	s.refresh(ctx)
	return t, stored, nil
}

// ReopenTask clears a task's completion. Reviews already scheduled stay.
func (s *Service) ReopenTask(ctx context.Context, id string) (domain.Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if !t.Completed && t.CompletedAt == nil {
		return t, nil
	}

	t.Completed = false
	t.CompletedAt = nil
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return domain.Task{}, err
	}

	metrics.TaskEvents.WithLabelValues("reopened").Inc()
	s.log.Info().Str("task", t.ID).Msg("task reopened")
	s.refresh(ctx)
	return t, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	metrics.TaskEvents.WithLabelValues("deleted").Inc()
	s.log.Info().Str("task", id).Msg("task deleted")
	s.refresh(ctx)
	return nil
}

// ─── Habits ─────────────────────────────────────────────────────────────────

// HabitInput carries the user-editable fields of a habit.
type HabitInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Color           string `json:"color"`
	TargetFrequency int    `json:"targetFrequency"`
}

// ListHabits returns every habit with its completion days.
func (s *Service) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	return s.store.ListHabits(ctx)
}

// CreateHabit validates in and stores a new habit. A missing target means
// every day.
func (s *Service) CreateHabit(ctx context.Context, in HabitInput) (domain.Habit, error) {
	target := in.TargetFrequency
	if target <= 0 {
		target = 7
	}
	h := domain.Habit{
		ID:              s.newID(),
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Color:           strings.TrimSpace(in.Color),
		TargetFrequency: target,
		Completions:     []clock.Date{},
		CreatedAt:       clock.At(s.Calendar().Now()),
	}
	if err := h.Validate(); err != nil {
		return domain.Habit{}, err
	}
	if err := s.store.CreateHabit(ctx, h); err != nil {
		return domain.Habit{}, err
	}

	s.log.Info().Str("habit", h.ID).Int("target", h.TargetFrequency).Msg("habit created")
	s.refresh(ctx)
	return h, nil
}

// ToggleHabit flips a habit's completion for day, or for today when day is
// nil or invalid. It reports whether the day is marked afterwards.
func (s *Service) ToggleHabit(ctx context.Context, id string, day *clock.Date) (bool, error) {
	d := s.Calendar().Today()
	if day != nil && day.IsValid() {
		d = *day
	}

	marked, err := s.store.ToggleHabitCompletion(ctx, id, d)
	if err != nil {
		return false, err
	}

	state := "unmarked"
	if marked {
		state = "marked"
	}
	metrics.HabitToggles.WithLabelValues(state).Inc()
	s.log.Info().Str("habit", id).Str("day", d.String()).Str("state", state).Msg("habit toggled")
	s.refresh(ctx)
	return marked, nil
}

// DeleteHabit removes a habit.
func (s *Service) DeleteHabit(ctx context.Context, id string) error {
	if err := s.store.DeleteHabit(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("habit", id).Msg("habit deleted")
	s.refresh(ctx)
	return nil
}

// ─── Revisions ──────────────────────────────────────────────────────────────

// ListRevisions returns every review, or only open ones when all is false.
func (s *Service) ListRevisions(ctx context.Context, all bool) ([]domain.Revision, error) {
	revs, err := s.store.ListRevisions(ctx)
	if err != nil || all {
		return revs, err
	}
	open := make([]domain.Revision, 0, len(revs))
	for _, r := range revs {
		if !r.Completed {
			open = append(open, r)
		}
	}
	return open, nil
}

// DueRevisions returns open reviews due today and those already overdue.
func (s *Service) DueRevisions(ctx context.Context) (due, overdue []domain.Revision, err error) {
	revs, err := s.store.ListRevisions(ctx)
	if err != nil {
		return nil, nil, err
	}
	due, overdue = s.engine.DueRevisions(revs)
	return due, overdue, nil
}

// CompleteRevision marks a review done now.
func (s *Service) CompleteRevision(ctx context.Context, id string) error {
	at := clock.At(s.Calendar().Now())
	if err := s.store.SetRevisionCompleted(ctx, id, &at); err != nil {
		return err
	}
	s.log.Info().Str("revision", id).Msg("revision completed")
	return nil
}

// ─── Reports ────────────────────────────────────────────────────────────────

// Snapshot loads every task and habit.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load tasks: %w", err)
	}
	habits, err := s.store.ListHabits(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load habits: %w", err)
	}
	return domain.Snapshot{Tasks: tasks, Habits: habits}, nil
}

// Report recomputes from a fresh snapshot and remembers the result.
func (s *Service) Report(ctx context.Context) (domain.Report, error) {
	start := time.Now()
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	r := s.engine.Recompute(snap)
	metrics.ObserveReport(r, time.Since(start))

	s.mu.Lock()
	s.latest = &r
	s.mu.Unlock()
	return r, nil
}

// Analyze derives a report for a snapshot that does not come from the store.
func (s *Service) Analyze(snap domain.Snapshot) domain.Report {
	return s.engine.Recompute(snap)
}

// Ping checks the record store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Latest returns the report produced by the most recent recompute.
func (s *Service) Latest() (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return domain.Report{}, false
	}
	return *s.latest, true
}

// Progress returns the daily, weekly and monthly completion series.
func (s *Service) Progress(ctx context.Context) (domain.ProgressReport, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return domain.ProgressReport{}, err
	}
	return s.engine.Progress(tasks), nil
}

// refresh recomputes after a mutation. The mutation already succeeded, so a
// failed reload is logged rather than returned.
func (s *Service) refresh(ctx context.Context) {
	if _, err := s.Report(ctx); err != nil {
		s.log.Warn().Err(err).Msg("recompute after change failed")
	}
}
