package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

// ─── Progress Series ────────────────────────────────────────────────────────

const (
	progressDays   = 7
	progressWeeks  = 4
	progressMonths = 6
)

// Progress builds the daily, weekly and monthly completion series, oldest
// point first.
//
//   - Daily: a task belongs to a day when it was created or completed on it;
//     it counts as completed when its completion fell on that day.
//   - Weekly (Sunday-start) and monthly: a task belongs to the bucket its
//     creation fell in and counts as completed if it is completed at all.
//
// Tasks whose creation cannot be bucketed only show up through their
// completion day in the daily series.
func Progress(tasks []domain.Task, cal clock.Calendar) domain.ProgressReport {
	today := cal.Today()

	type bucketed struct {
		created   clock.Date
		completed clock.Date // invalid unless the task has a usable completion
		done      bool
	}
	rows := make([]bucketed, 0, len(tasks))
	for _, t := range tasks {
		b := bucketed{created: cal.Bucket(t.CreatedAt), done: t.Completed}
		if at, ok := t.CompletionInstant(); ok {
			b.completed = cal.Bucket(at)
		}
		rows = append(rows, b)
	}

	report := domain.ProgressReport{
		Daily:   make([]domain.ProgressPoint, 0, progressDays),
		Weekly:  make([]domain.ProgressPoint, 0, progressWeeks),
		Monthly: make([]domain.ProgressPoint, 0, progressMonths),
	}

	for i := progressDays - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		var completed, total int
		for _, r := range rows {
			onDay := r.completed.IsValid() && r.completed == day
			if r.created == day || onDay {
				total++
				if onDay {
					completed++
				}
			}
		}
		report.Daily = append(report.Daily, point(ShortDay(day), completed, total))
	}

	for i := progressWeeks - 1; i >= 0; i-- {
		start := WeekStart(today.AddDays(-7 * i))
		end := start.AddDays(6)
		var completed, total int
		for _, r := range rows {
			if r.created.Between(start, end) {
				total++
				if r.done {
					completed++
				}
			}
		}
		report.Weekly = append(report.Weekly, point(fmt.Sprintf("Week %d", progressWeeks-i), completed, total))
	}

	for i := progressMonths - 1; i >= 0; i-- {
		start := clock.NewDate(today.Year(), today.Month()-time.Month(i), 1)
		end := clock.NewDate(start.Year(), start.Month()+1, 1).AddDays(-1)
		var completed, total int
		for _, r := range rows {
			if r.created.Between(start, end) {
				total++
				if r.done {
					completed++
				}
			}
		}
		report.Monthly = append(report.Monthly, point(start.Month().String()[:3], completed, total))
	}

	return report
}

// WeekStart returns the Sunday on or before d.
func WeekStart(d clock.Date) clock.Date {
	if !d.IsValid() {
		return d
	}
	return d.AddDays(-int(d.Weekday()))
}

// ShortDay formats d as "Jan 2".
func ShortDay(d clock.Date) string {
	if !d.IsValid() {
		return d.String()
	}
	return fmt.Sprintf("%s %d", d.Month().String()[:3], d.Day())
}

func point(label string, completed, total int) domain.ProgressPoint {
	return domain.ProgressPoint{
		Label:      label,
		Completed:  completed,
		Total:      total,
		Percentage: int(math.Round(Percent(completed, total))),
	}
}
