package tracker_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productive-me/momentum/internal/app/engine"
	"github.com/productive-me/momentum/internal/app/tracker"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/infra/sqlite"
)

type harness struct {
	svc *tracker.Service
	db  *sqlite.DB
	now *time.Time
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cal := clock.NewCalendar(clock.NewFunc(func() time.Time { return now }), time.UTC)
	eng := engine.New(engine.Options{Calendar: cal})

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return harness{
		svc: tracker.New(db, eng, zerolog.Nop(), tracker.WithIDGenerator(ids)),
		db:  db,
		now: &now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestCreateTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "  Plan week ", Priority: "HIGH", Category: "Work"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", task.ID)
	assert.Equal(t, "Plan week", task.Title)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.True(t, task.CreatedAt.IsValid())

	_, err = h.svc.CreateTask(ctx, tracker.TaskInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidTask)

	latest, ok := h.svc.Latest()
	require.True(t, ok)
	assert.Equal(t, 1, latest.Metrics.TotalTasks)
}

func TestCompleteTask_SchedulesRevisionsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "Chapter 3"})
	require.NoError(t, err)

	done, revs, err := h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	require.Len(t, revs, 3)
	assert.Equal(t, clock.NewDate(2024, 1, 4), revs[0].ScheduledDate)

	// Already done: nothing new.
	_, revs, err = h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, revs)

	// Reopen then complete a week later: the original schedule is kept.
	_, err = h.svc.ReopenTask(ctx, task.ID)
	require.NoError(t, err)
	*h.now = h.now.AddDate(0, 0, 7)
	_, revs, err = h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	stored, err := h.svc.ListRevisions(ctx, true)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, clock.NewDate(2024, 1, 4), stored[0].ScheduledDate)

	// The returned schedule is the stored one, not a fresh 2024-01-11 batch.
	require.Len(t, revs, 3)
	for i := range revs {
		assert.Equal(t, stored[i].ID, revs[i].ID)
		assert.Equal(t, stored[i].ScheduledDate, revs[i].ScheduledDate)
	}
}

func TestCompleteTask_FailedScheduleCanBeRetried(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "Chapter 4"})
	require.NoError(t, err)

	_, err = h.db.DB().Exec(`CREATE TRIGGER reject_revisions BEFORE INSERT ON revisions
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	_, _, err = h.svc.CompleteTask(ctx, task.ID)
	require.Error(t, err)

	tasks, err := h.svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed, "completion must not outlive a failed schedule")

	_, err = h.db.DB().Exec(`DROP TRIGGER reject_revisions`)
	require.NoError(t, err)

	done, revs, err := h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.Len(t, revs, 3)

	stored, err := h.svc.ListRevisions(ctx, true)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestReopenTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "x"})
	require.NoError(t, err)
	_, _, err = h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	reopened, err := h.svc.ReopenTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)

	latest, _ := h.svc.Latest()
	assert.Zero(t, latest.Metrics.CompletedTasks)
}

func TestTaskNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.svc.CompleteTask(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = h.svc.ReopenTask(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, h.svc.DeleteTask(ctx, "missing"), domain.ErrTaskNotFound)
}

func TestDeleteTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "x"})
	require.NoError(t, err)
	require.NoError(t, h.svc.DeleteTask(ctx, task.ID))

	tasks, err := h.svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// ═══════════════════════════════════════════════════════════════════════════
// Habits
// ═══════════════════════════════════════════════════════════════════════════

func TestHabitLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	habit, err := h.svc.CreateHabit(ctx, tracker.HabitInput{Name: "Walk"})
	require.NoError(t, err)
	assert.Equal(t, 7, habit.TargetFrequency)

	marked, err := h.svc.ToggleHabit(ctx, habit.ID, nil)
	require.NoError(t, err)
	assert.True(t, marked)

	yesterday := clock.NewDate(2023, 12, 31)
	marked, err = h.svc.ToggleHabit(ctx, habit.ID, &yesterday)
	require.NoError(t, err)
	assert.True(t, marked)

	r, err := h.svc.Report(ctx)
	require.NoError(t, err)
	require.Len(t, r.Metrics.Habits, 1)
	assert.Equal(t, 2, r.Metrics.Habits[0].CurrentStreak)
	assert.True(t, r.Metrics.Habits[0].DoneToday)

	marked, err = h.svc.ToggleHabit(ctx, habit.ID, nil)
	require.NoError(t, err)
	assert.False(t, marked)

	require.NoError(t, h.svc.DeleteHabit(ctx, habit.ID))
	habits, err := h.svc.ListHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func TestCreateHabit_Invalid(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.CreateHabit(context.Background(), tracker.HabitInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidHabit)
}

func TestToggleHabit_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ToggleHabit(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)
}

// ═══════════════════════════════════════════════════════════════════════════
// Revisions & reports
// ═══════════════════════════════════════════════════════════════════════════

func TestDueAndCompleteRevisions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "Flashcards"})
	require.NoError(t, err)
	_, _, err = h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	*h.now = time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)
	due, overdue, err := h.svc.DueRevisions(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, task.ID+"-revision-2", due[0].ID)
	require.Len(t, overdue, 1)
	assert.Equal(t, task.ID+"-revision-1", overdue[0].ID)

	require.NoError(t, h.svc.CompleteRevision(ctx, overdue[0].ID))
	open, err := h.svc.ListRevisions(ctx, false)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	assert.ErrorIs(t, h.svc.CompleteRevision(ctx, "nope"), domain.ErrRevisionNotFound)
}

func TestReport_Empty(t *testing.T) {
	h := newHarness(t)

	_, ok := h.svc.Latest()
	assert.False(t, ok)

	r, err := h.svc.Report(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.Insights)
	assert.Zero(t, r.Metrics.CompletionRate)
}

func TestProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, err := h.svc.CreateTask(ctx, tracker.TaskInput{Title: "x"})
	require.NoError(t, err)
	_, _, err = h.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	p, err := h.svc.Progress(ctx)
	require.NoError(t, err)
	require.Len(t, p.Daily, 7)
	assert.Equal(t, domain.ProgressPoint{Label: "Jan 1", Completed: 1, Total: 1, Percentage: 100}, p.Daily[6])
}
