package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/infra/postgres"
)

// These tests need a live server; point MOMENTUM_TEST_POSTGRES_DSN at a
// scratch database to run them.
func openTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	dsn := os.Getenv("MOMENTUM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MOMENTUM_TEST_POSTGRES_DSN not set")
	}
	db, err := postgres.Open(context.Background(), dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, table := range []string{"habit_completions", "habits", "revisions", "tasks"} {
			_, _ = db.DB().Exec("DELETE FROM " + table)
		}
		db.Close()
	})
	return db
}

func TestOpen_BadDSN(t *testing.T) {
	_, err := postgres.Open(context.Background(), "postgres://%zz", zerolog.Nop())
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})))
	assert.False(t, postgres.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, postgres.IsUniqueViolation(errors.New("plain")))
	assert.False(t, postgres.IsUniqueViolation(nil))
}

func TestTaskAndRevisionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	done := clock.ParseInstant("2024-01-01T12:00:00Z")
	require.NoError(t, db.CreateTask(ctx, domain.Task{
		ID: id, Title: "Revise notes", Priority: domain.PriorityLow,
		Completed: true, CreatedAt: done, CompletedAt: &done,
	}))

	err := db.CreateTask(ctx, domain.Task{ID: id, Title: "dup", CreatedAt: done})
	assert.True(t, postgres.IsUniqueViolation(err))

	revs := []domain.Revision{{
		ID: domain.RevisionID(id, 1), OriginalTaskID: id, RevisionNumber: 1,
		ScheduledDate: clock.NewDate(2024, 1, 4),
	}}
	n, err := db.SaveRevisions(ctx, revs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = db.SaveRevisions(ctx, revs)
	require.NoError(t, err)
	assert.Zero(t, n)

	task, err := db.GetTask(ctx, id)
	require.NoError(t, err)
	later := clock.NewDate(2024, 2, 1)
	stored, n, err := db.CompleteTask(ctx, task, []domain.Revision{{
		ID: domain.RevisionID(id, 1), OriginalTaskID: id, RevisionNumber: 1, ScheduledDate: later,
	}})
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Len(t, stored, 1)
	assert.Equal(t, clock.NewDate(2024, 1, 4), stored[0].ScheduledDate)

	require.NoError(t, db.DeleteTask(ctx, id))
	_, err = db.GetTask(ctx, id)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestHabitToggle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, db.CreateHabit(ctx, domain.Habit{ID: id, Name: "Journal", TargetFrequency: 7}))

	marked, err := db.ToggleHabitCompletion(ctx, id, clock.NewDate(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = db.ToggleHabitCompletion(ctx, id, clock.NewDate(2024, 1, 1))
	require.NoError(t, err)
	assert.False(t, marked)
}
