package domain

import (
	"context"

	"github.com/productive-me/momentum/internal/clock"
)

// ─── Store Interfaces ───────────────────────────────────────────────────────
// Infrastructure implements these; the tracker depends on them.

// TaskStore persists tasks.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	CreateTask(ctx context.Context, t Task) error
	UpdateTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, id string) error
}

// HabitStore persists habits and their completion days.
type HabitStore interface {
	ListHabits(ctx context.Context) ([]Habit, error)
	GetHabit(ctx context.Context, id string) (Habit, error)
	CreateHabit(ctx context.Context, h Habit) error
	DeleteHabit(ctx context.Context, id string) error

	// ToggleHabitCompletion marks day if unmarked and unmarks it otherwise.
	// It reports whether the day is marked afterwards.
	ToggleHabitCompletion(ctx context.Context, habitID string, day clock.Date) (bool, error)
}

// RevisionStore persists spaced-repetition reviews.
type RevisionStore interface {
	ListRevisions(ctx context.Context) ([]Revision, error)

	// SaveRevisions inserts a batch, skipping ids that already exist.
	// It returns how many rows were inserted.
	SaveRevisions(ctx context.Context, revs []Revision) (int, error)

	// SetRevisionCompleted marks a revision done (at != nil) or open (at == nil).
	SetRevisionCompleted(ctx context.Context, id string, at *clock.Instant) error
}

// RecordStore is the full persistence contract of the tracker.
type RecordStore interface {
	TaskStore
	HabitStore
	RevisionStore

	// CompleteTask writes t and inserts its review batch atomically, skipping
	// review ids that already exist. It returns the task's reviews as stored
	// and how many of revs were inserted.
	CompleteTask(ctx context.Context, t Task, revs []Revision) ([]Revision, int, error)

	Ping(ctx context.Context) error
	Close() error
}
