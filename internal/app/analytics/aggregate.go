// Package analytics reduces a task/habit snapshot into summary metrics.
//
// Every function here is total: malformed records degrade to documented
// defaults instead of failing. A record whose timestamp cannot be bucketed is
// left out of the timestamp-dependent figures (streak, best hour, velocity,
// average per day) but still counts toward totals, priorities and categories.
package analytics

import (
	"github.com/productive-me/momentum/internal/app/streak"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

const (
	// TrailingDays is the width of the velocity and average-per-day window,
	// today included.
	TrailingDays = 7

	// UpcomingWindowDays is how far ahead deadlines count as upcoming.
	UpcomingWindowDays = 3
)

// Aggregate computes Metrics for a snapshot as of cal.Today().
func Aggregate(tasks []domain.Task, habits []domain.Habit, cal clock.Calendar) domain.Metrics {
	today := cal.Today()
	yesterday := today.AddDays(-1)
	windowStart := today.AddDays(-(TrailingDays - 1))
	upcomingEnd := today.AddDays(UpcomingWindowDays)

	m := domain.Metrics{
		BestWorkingHour: clock.DefaultWorkingHour,
		Categories:      []domain.CategoryStat{},
		Habits:          []domain.HabitSummary{},
	}

	completionDays := clock.DateSet{}
	categoryIndex := make(map[string]int)
	createdInWindow := 0

	for _, t := range tasks {
		m.TotalTasks++

		switch domain.ParsePriority(string(t.Priority)) {
		case domain.PriorityHigh:
			m.PriorityDistribution.High++
		case domain.PriorityLow:
			m.PriorityDistribution.Low++
		default:
			m.PriorityDistribution.Medium++
		}

		label := t.CategoryLabel()
		idx, seen := categoryIndex[label]
		if !seen {
			idx = len(m.Categories)
			categoryIndex[label] = idx
			m.Categories = append(m.Categories, domain.CategoryStat{Name: label})
		}
		m.Categories[idx].Total++

		if cal.Bucket(t.CreatedAt).Between(windowStart, today) {
			createdInWindow++
		}

		if t.Completed {
			m.CompletedTasks++
			m.Categories[idx].Completed++
		} else if deadline, ok := t.DeadlineDate(); ok {
			switch {
			case deadline.Before(today):
				m.OverdueCount++
			case deadline.Between(today, upcomingEnd):
				m.UpcomingDeadlines++
			}
		}

		at, ok := t.CompletionInstant()
		if !ok {
			continue
		}
		day := cal.Bucket(at)
		completionDays.Add(day)
		switch day {
		case today:
			m.CompletedToday++
		case yesterday:
			m.CompletedYesterday++
		}
		if day.Between(windowStart, today) {
			m.WeeklyVelocity++
		}
		if hour, ok := cal.Hour(at); ok {
			m.HourDistribution[hour]++
		}
	}

	m.CompletionRate = Percent(m.CompletedTasks, m.TotalTasks)
	m.AverageTasksPerDay = float64(createdInWindow) / TrailingDays
	m.BestWorkingHour = BestHour(m.HourDistribution)
	m.HighPriorityShare = Percent(m.PriorityDistribution.High, m.TotalTasks)

	for i := range m.Categories {
		c := &m.Categories[i]
		c.Rate = Percent(c.Completed, c.Total)
	}
	if best, ok := BestCategory(m.Categories); ok {
		m.MostProductiveCategory = best.Name
		m.MostProductiveCategoryRate = best.Rate
	}

	m.CurrentStreak = streak.Current(completionDays, today)
	m.LongestStreak = streak.Longest(completionDays)

	for _, h := range habits {
		m.Habits = append(m.Habits, SummarizeHabit(h, today))
	}

	return m
}

// Percent returns part/whole × 100, or 0 when whole is not positive.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// BestHour returns the hour with the most completions. Ties go to the
// smallest hour; no data yields clock.DefaultWorkingHour.
func BestHour(dist [24]int) int {
	best, max := clock.DefaultWorkingHour, 0
	for hour, n := range dist {
		if n > max {
			best, max = hour, n
		}
	}
	return best
}

// BestCategory picks the category with the highest completion ratio among
// those with at least one task. Ties go to the category with more tasks, then
// to the one seen first. Ratios are compared exactly by cross-multiplying.
func BestCategory(cats []domain.CategoryStat) (domain.CategoryStat, bool) {
	var best domain.CategoryStat
	found := false
	for _, c := range cats {
		if c.Total <= 0 {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		lhs, rhs := c.Completed*best.Total, best.Completed*c.Total
		if lhs > rhs || (lhs == rhs && c.Total > best.Total) {
			best = c
		}
	}
	return best, found
}

// SummarizeHabit computes streaks and weekly progress for one habit.
func SummarizeHabit(h domain.Habit, today clock.Date) domain.HabitSummary {
	days := h.CompletionSet()
	windowStart := today.AddDays(-(TrailingDays - 1))

	thisWeek := 0
	for d := range days {
		if d.Between(windowStart, today) {
			thisWeek++
		}
	}

	target := h.WeeklyTarget()
	progress := Percent(thisWeek, target)
	if progress > 100 {
		progress = 100
	}

	return domain.HabitSummary{
		ID:                  h.ID,
		Name:                h.Name,
		CurrentStreak:       streak.Current(days, today),
		LongestStreak:       streak.Longest(days),
		CompletionsThisWeek: thisWeek,
		WeeklyTarget:        target,
		WeeklyProgress:      progress,
		DoneToday:           days.Has(today),
	}
}
