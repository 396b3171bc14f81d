package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Harness
// ═══════════════════════════════════════════════════════════════════════════

// setup points the CLI at a fresh data dir and freezes the clock.
func setup(t *testing.T, now time.Time) {
	t.Helper()
	t.Setenv("MOMENTUM_HOME", t.TempDir())
	setNow(t, now)
}

func setNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := newClock
	newClock = func() clock.Clock { return clock.NewFixed(now) }
	t.Cleanup(func() { newClock = prev })
}

// resetFlags restores every flag variable, since cobra commands are
// package-level and keep parsed values between executions.
func resetFlags() {
	configPath, verbose, noColor, jsonOutput = "", false, false, false
	serveHost, servePort = "", 0
	taskDescription, taskCategory, taskPriority, taskDeadline = "", "", "medium", ""
	habitDescription, habitColor, habitTarget, habitDay = "", "", 7, ""
	revisionsAll = false
	insightLimit = 0
	analyzeFile, analyzeNow, analyzeLimit = "", "", 0
	progressPeriod = ""

	// Required-flag checks look at Changed, which also survives executions.
	analyzeCmd.Flags().Lookup("file").Changed = false
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "momentum %s", strings.Join(args, " "))
	return out
}

// createdID extracts the id from "Created task <id>" style output.
func createdID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(strings.TrimSpace(out))
	require.Len(t, fields, 3, out)
	return fields[2]
}

var newYear = time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

// ═══════════════════════════════════════════════════════════════════════════
// Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestTask_Lifecycle(t *testing.T) {
	setup(t, newYear)

	id := createdID(t, mustRun(t, "task", "add", "Write", "report", "-c", "Work", "-p", "high", "--deadline", "2024-01-05"))

	out := mustRun(t, "task", "list")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "2024-01-05")
	assert.Contains(t, out, "open")

	out = mustRun(t, "task", "complete", id)
	assert.Contains(t, out, `Completed "Write report"`)
	assert.Contains(t, out, "Reviews scheduled: Jan 4, Jan 7, Jan 13")

	out = mustRun(t, "task", "done", id)
	assert.Contains(t, out, "already completed")

	assert.Contains(t, mustRun(t, "task", "list"), "done")

	assert.Contains(t, mustRun(t, "task", "reopen", id), `Reopened "Write report"`)
	assert.Contains(t, mustRun(t, "task", "rm", id), "Removed task "+id)
	assert.Contains(t, mustRun(t, "task", "ls"), "No tasks yet")
}

func TestTask_ListJSON(t *testing.T) {
	setup(t, newYear)
	mustRun(t, "task", "add", "Stretch", "-p", "urgent")

	var tasks []domain.Task
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "task", "list", "--json")), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Stretch", tasks[0].Title)
	assert.Equal(t, domain.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, domain.UncategorizedLabel, tasks[0].CategoryLabel())
}

func TestTask_Errors(t *testing.T) {
	setup(t, newYear)

	_, err := run(t, "task", "add", "Taxes", "--deadline", "next friday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid deadline")

	_, err = run(t, "task", "add", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidTask)

	_, err = run(t, "task", "complete", "missing")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = run(t, "task", "complete")
	require.Error(t, err)
}

func TestTask_OverdueStatus(t *testing.T) {
	setup(t, newYear)
	mustRun(t, "task", "add", "Late", "--deadline", "2023-12-30")

	assert.Contains(t, mustRun(t, "task", "list"), "overdue")
}

// ═══════════════════════════════════════════════════════════════════════════
// Habits
// ═══════════════════════════════════════════════════════════════════════════

func TestHabit_Lifecycle(t *testing.T) {
	setup(t, newYear)

	id := createdID(t, mustRun(t, "habit", "add", "Walk", "-t", "3"))

	assert.Contains(t, mustRun(t, "habit", "toggle", id), "marked for 2024-01-01")

	out := mustRun(t, "habit", "list")
	assert.Contains(t, out, "Walk")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "done")

	assert.Contains(t, mustRun(t, "habit", "toggle", id), "unmarked for 2024-01-01")
	assert.Contains(t, mustRun(t, "habit", "toggle", id, "--day", "2023-12-31"), "marked for 2023-12-31")

	var summaries []domain.HabitSummary
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "habit", "list", "--json")), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].CurrentStreak)
	assert.False(t, summaries[0].DoneToday)

	assert.Contains(t, mustRun(t, "habit", "rm", id), "Removed habit")
	assert.Contains(t, mustRun(t, "habit", "list"), "No habits yet")
}

func TestHabit_Errors(t *testing.T) {
	setup(t, newYear)

	_, err := run(t, "habit", "toggle", "x", "--day", "someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid day")

	_, err = run(t, "habit", "toggle", "missing")
	require.ErrorIs(t, err, domain.ErrHabitNotFound)

	_, err = run(t, "habit", "rm", "missing")
	require.ErrorIs(t, err, domain.ErrHabitNotFound)
}

// ═══════════════════════════════════════════════════════════════════════════
// Revisions
// ═══════════════════════════════════════════════════════════════════════════

func TestRevisions_DueAndOverdue(t *testing.T) {
	setup(t, newYear)
	id := createdID(t, mustRun(t, "task", "add", "Flashcards"))
	mustRun(t, "task", "complete", id)

	assert.Contains(t, mustRun(t, "revisions"), "Nothing to review today.")

	out := mustRun(t, "revisions", "--all")
	assert.Contains(t, out, id+"-revision-1")
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "2024-01-13")

	setNow(t, time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC))
	out = mustRun(t, "revisions")
	assert.Contains(t, out, "Overdue (1)")
	assert.Contains(t, out, "Due today (1)")
	assert.Contains(t, out, "2024-01-04")
	assert.Contains(t, out, "2024-01-07")

	assert.Contains(t, mustRun(t, "revisions", "done", id+"-revision-1"), "completed")
	out = mustRun(t, "rev")
	assert.NotContains(t, out, "Overdue")
	assert.Contains(t, out, "Due today (1)")

	var split map[string][]domain.Revision
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "revisions", "--json")), &split))
	assert.Len(t, split["due"], 1)
	assert.Empty(t, split["overdue"])

	_, err := run(t, "revisions", "done", "nope")
	require.ErrorIs(t, err, domain.ErrRevisionNotFound)
}

// ═══════════════════════════════════════════════════════════════════════════
// Reports
// ═══════════════════════════════════════════════════════════════════════════

func TestReport_Empty(t *testing.T) {
	setup(t, newYear)

	out := mustRun(t, "report")
	assert.Contains(t, out, "Completion rate")
	assert.Contains(t, out, "0.0% (0 of 0)")
	assert.Contains(t, out, "Nothing to report yet")
}

func TestReport_WithData(t *testing.T) {
	setup(t, newYear)
	mustRun(t, "task", "add", "Late", "-c", "Home", "--deadline", "2023-12-30")
	done := createdID(t, mustRun(t, "task", "add", "Quick win", "-c", "Work"))
	mustRun(t, "task", "complete", done)

	out := mustRun(t, "report")
	assert.Contains(t, out, "50.0% (1 of 2)")
	assert.Contains(t, out, "Best hour          15:00")
	assert.Contains(t, out, "Categories")
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "[HIGH]")

	var r domain.Report
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "report", "--json")), &r))
	assert.Equal(t, 2, r.Metrics.TotalTasks)
	assert.Equal(t, 1, r.Metrics.OverdueCount)
	assert.Equal(t, newYear, r.GeneratedAt.UTC())
}

func TestInsights_Limit(t *testing.T) {
	setup(t, newYear)
	mustRun(t, "task", "add", "Late", "--deadline", "2023-12-30")

	var all []domain.Insight
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "insights", "--json")), &all))
	require.GreaterOrEqual(t, len(all), 2)

	var one []domain.Insight
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "insights", "--json", "-n", "1")), &one))
	require.Len(t, one, 1)
	assert.Equal(t, all[0].ID, one[0].ID)

	var many []domain.Insight
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "insights", "--json", "-n", "50")), &many))
	assert.Len(t, many, len(all))
}

// ═══════════════════════════════════════════════════════════════════════════
// Analyze
// ═══════════════════════════════════════════════════════════════════════════

const snapshotJSON = `{
  "tasks": [
    {"id": "1", "title": "A", "category": "Work", "priority": "high", "completed": true,
     "createdAt": "2025-07-09T10:00:00Z", "completedAt": "2025-07-10T09:30:00Z"},
    {"id": "2", "title": "B", "createdAt": "not-a-date"}
  ],
  "habits": []
}`

func TestAnalyze_File(t *testing.T) {
	setup(t, newYear)
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o600))

	var r domain.Report
	out := mustRun(t, "analyze", "-f", path, "--now", "2025-07-10T18:00:00Z", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &r))

	assert.Equal(t, 2, r.Metrics.TotalTasks)
	assert.Equal(t, 1, r.Metrics.CompletedTasks)
	assert.InDelta(t, 50.0, r.Metrics.CompletionRate, 1e-9)
	assert.Equal(t, 1, r.Metrics.CurrentStreak)
	assert.Equal(t, 9, r.Metrics.BestWorkingHour)
	assert.Equal(t, time.Date(2025, 7, 10, 18, 0, 0, 0, time.UTC), r.GeneratedAt.UTC())

	text := mustRun(t, "analyze", "-f", path, "--now", "2025-07-10T18:00:00Z")
	assert.Contains(t, text, "Analyzed 2 tasks, 0 habits as of 2025-07-10T18:00:00Z")
}

func TestAnalyze_Stdin(t *testing.T) {
	setup(t, newYear)
	yaml := `
tasks:
  - id: "1"
    title: A
    completed: true
    createdAt: "2024-01-01T08:00:00Z"
    completedAt: "2024-01-01T11:00:00Z"
`
	out, err := runWithInput(t, yaml, "analyze", "-f", "-", "--json")
	require.NoError(t, err)

	var r domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 1, r.Metrics.CompletedToday)
	assert.Equal(t, 11, r.Metrics.BestWorkingHour)
}

func TestAnalyze_Errors(t *testing.T) {
	setup(t, newYear)

	_, err := run(t, "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = run(t, "analyze", "-f", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o600))
	_, err = run(t, "analyze", "-f", path, "--now", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --now")
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress
// ═══════════════════════════════════════════════════════════════════════════

func TestProgress(t *testing.T) {
	setup(t, newYear)
	id := createdID(t, mustRun(t, "task", "add", "One"))
	mustRun(t, "task", "add", "Two")
	mustRun(t, "task", "complete", id)

	out := mustRun(t, "progress")
	assert.Contains(t, out, "Daily")
	assert.Contains(t, out, "Weekly")
	assert.Contains(t, out, "Monthly")
	assert.Contains(t, out, "Jan 1")
	assert.Contains(t, out, " 50%  1/2")

	out = mustRun(t, "progress", "--period", "weekly")
	assert.NotContains(t, out, "Daily")
	for _, w := range []string{"Week 1", "Week 2", "Week 3", "Week 4"} {
		assert.Contains(t, out, w)
	}

	var p domain.ProgressReport
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "progress", "--json")), &p))
	assert.Len(t, p.Daily, 7)
	assert.Len(t, p.Weekly, 4)
	assert.Len(t, p.Monthly, 6)

	_, err := run(t, "progress", "--period", "hourly")
	require.Error(t, err)
}

// ═══════════════════════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════════════════════

func TestBar(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{-5, "[....................]"},
		{0, "[....................]"},
		{50, "[=========>..........]"},
		{100, "[====================]"},
		{250, "[====================]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bar(tt.pct), "pct %d", tt.pct)
	}
}

func TestLimitInsights(t *testing.T) {
	in := []domain.Insight{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assert.Len(t, limitInsights(in, 0), 3)
	assert.Len(t, limitInsights(in, -1), 3)
	assert.Len(t, limitInsights(in, 2), 2)
	assert.Len(t, limitInsights(in, 9), 3)
}

func TestPlainOutputWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	st := newStyles(&buf)
	assert.Equal(t, "overdue", st.bad.Render("overdue"))
}
