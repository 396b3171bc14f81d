// Package revision schedules spaced-repetition reviews of completed tasks.
// A completion emits one batch of three reviews at fixed day offsets; the
// scheduler never reschedules, cancels or mutates existing reviews.
package revision

import (
	"sort"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

// Offsets are the review delays in days after the completion date.
var Offsets = [3]int{3, 6, 12}

// Schedule returns the review batch for a task completed at completedAt.
// An invalid completedAt falls back to today so a batch is always produced.
func Schedule(task domain.Task, completedAt clock.Instant, cal clock.Calendar) []domain.Revision {
	base := cal.Bucket(completedAt)
	if !base.IsValid() {
		base = cal.Today()
	}

	revs := make([]domain.Revision, 0, len(Offsets))
	for i, days := range Offsets {
		n := i + 1
		revs = append(revs, domain.Revision{
			ID:             domain.RevisionID(task.ID, n),
			OriginalTaskID: task.ID,
			OriginalTitle:  task.Title,
			RevisionNumber: n,
			ScheduledDate:  base.AddDays(days),
		})
	}
	return revs
}

// Due returns open reviews scheduled for today.
func Due(revs []domain.Revision, today clock.Date) []domain.Revision {
	return filterSorted(revs, func(r domain.Revision) bool {
		return !r.Completed && r.ScheduledDate == today
	})
}

// Overdue returns open reviews whose day has passed.
func Overdue(revs []domain.Revision, today clock.Date) []domain.Revision {
	return filterSorted(revs, func(r domain.Revision) bool {
		return !r.Completed && r.ScheduledDate.IsValid() && r.ScheduledDate.Before(today)
	})
}

// Upcoming returns open reviews scheduled within the next days (excluding today).
func Upcoming(revs []domain.Revision, today clock.Date, days int) []domain.Revision {
	from, to := today.AddDays(1), today.AddDays(days)
	return filterSorted(revs, func(r domain.Revision) bool {
		return !r.Completed && r.ScheduledDate.Between(from, to)
	})
}

// filterSorted keeps matching reviews ordered by date, revision number, then id.
func filterSorted(revs []domain.Revision, keep func(domain.Revision) bool) []domain.Revision {
	out := make([]domain.Revision, 0)
	for _, r := range revs {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ScheduledDate != b.ScheduledDate {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		if a.RevisionNumber != b.RevisionNumber {
			return a.RevisionNumber < b.RevisionNumber
		}
		return a.ID < b.ID
	})
	return out
}
