// Package engine is the single entry point callers use to analyze a snapshot.
//
// It wires the aggregator, the insight rules and the revision scheduler
// behind two explicit calls: Recompute after any data change, and Complete
// when a task is finished. Nothing here performs I/O or keeps state between
// calls, so an Engine is safe for concurrent use.
package engine

import (
	"github.com/productive-me/momentum/internal/app/analytics"
	"github.com/productive-me/momentum/internal/app/insight"
	"github.com/productive-me/momentum/internal/app/revision"
	"github.com/productive-me/momentum/internal/app/streak"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

// Options configures an Engine.
type Options struct {
	Calendar       clock.Calendar
	InsightLimit   int      // <= 0 means insight.DefaultLimit
	Extended       bool     // include the extended insight rules
	WorkCategories []string // patterns for the work-life-balance rule
}

// Engine computes reports and revision schedules.
type Engine struct {
	cal     clock.Calendar
	insight insight.Engine
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	catalog := insight.DefaultCatalog()
	if opts.Extended {
		catalog = insight.ExtendedCatalog(opts.WorkCategories)
	}
	return &Engine{
		cal:     opts.Calendar,
		insight: insight.New(catalog, opts.InsightLimit),
	}
}

// Calendar returns the calendar the engine buckets with.
func (e *Engine) Calendar() clock.Calendar {
	return e.cal
}

// Recompute derives a fresh report from snap. The same snapshot at the same
// instant always produces the same report.
func (e *Engine) Recompute(snap domain.Snapshot) domain.Report {
	now := e.cal.Now()
	m := analytics.Aggregate(snap.Tasks, snap.Habits, e.cal)
	return domain.Report{
		GeneratedAt: now,
		Metrics:     m,
		Insights:    e.insight.Evaluate(m, snap.Tasks, now),
	}
}

// Complete returns the review batch for a task finished at completedAt.
func (e *Engine) Complete(task domain.Task, completedAt clock.Instant) []domain.Revision {
	return revision.Schedule(task, completedAt, e.cal)
}

// Progress returns the daily, weekly and monthly completion series.
func (e *Engine) Progress(tasks []domain.Task) domain.ProgressReport {
	return analytics.Progress(tasks, e.cal)
}

// Streak returns the current streak over the given completion instants.
func (e *Engine) Streak(completions []clock.Instant) int {
	days := clock.DateSet{}
	for _, at := range completions {
		days.Add(e.cal.Bucket(at))
	}
	return streak.Current(days, e.cal.Today())
}

// DueRevisions splits open reviews into those due today and those overdue.
func (e *Engine) DueRevisions(revs []domain.Revision) (due, overdue []domain.Revision) {
	today := e.cal.Today()
	return revision.Due(revs, today), revision.Overdue(revs, today)
}
