// Package streak derives consecutive-day streaks from completion dates.
// A "day" counts if at least one completion was bucketed to it.
// Grace day: a streak that ended yesterday is still current until today ends,
// so a user who has not acted yet today does not see it reset early.
package streak

import "github.com/productive-me/momentum/internal/clock"

// Current returns the streak length ending today, or yesterday when today
// has no completion yet. It returns 0 when neither day is in the set.
func Current(days clock.DateSet, today clock.Date) int {
	if len(days) == 0 || !today.IsValid() {
		return 0
	}

	var cursor clock.Date
	switch yesterday := today.AddDays(-1); {
	case days.Has(today):
		cursor = yesterday
	case days.Has(yesterday):
		cursor = yesterday.AddDays(-1)
	default:
		// No completion today or yesterday: streak is broken
		return 0
	}

	streak := 1
	for days.Has(cursor) {
		streak++
		cursor = cursor.AddDays(-1)
	}
	return streak
}

// Longest returns the longest run of consecutive days anywhere in the set.
func Longest(days clock.DateSet) int {
	longest, run := 0, 0
	var prev clock.Date
	for _, d := range days.Sorted() {
		if prev.IsValid() && d == prev.AddDays(1) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest
}

// FromDates collects dates into a set and returns the current streak.
func FromDates(dates []clock.Date, today clock.Date) int {
	return Current(clock.NewDateSet(dates...), today)
}
