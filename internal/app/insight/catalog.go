package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/productive-me/momentum/internal/app/analytics"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

// ─── Thresholds ─────────────────────────────────────────────────────────────

const (
	highPerformanceRate = 80.0
	lowPerformanceRate  = 50.0
	streakFireDays      = 7
	velocityHighFactor  = 1.5
	velocityLowFactor   = 0.5
	categoryMasteryRate = 85.0
	priorityOverload    = 60.0
	priorityBalanced    = 20.0
	balancedMinTasks    = 5
	workShareLimit      = 90.0
	workLifeMinTasks    = 5
	morningStartHour    = 9
	morningEndHour      = 11
)

// DefaultWorkCategories are the category patterns the work-life-balance rule
// treats as work.
var DefaultWorkCategories = []string{"work", "work/**", "office*", "job*"}

// ─── Default Catalog ────────────────────────────────────────────────────────

// DefaultCatalog returns the twelve core rules in evaluation order.
func DefaultCatalog() []Rule {
	return []Rule{
		{
			ID: "high-performance", Type: domain.InsightAchievement, Priority: domain.PriorityHigh,
			When: func(c Context) bool {
				return c.Metrics.TotalTasks > 0 && c.Metrics.CompletionRate >= highPerformanceRate
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Outstanding Completion Rate",
					Description: fmt.Sprintf("You have finished %s of your tasks. Keep it up!", pct(c.Metrics.CompletionRate)),
					Value:       value(c.Metrics.CompletionRate),
					Trend:       domain.TrendUp,
				}
			},
		},
		{
			ID: "low-performance", Type: domain.InsightWarning, Priority: domain.PriorityHigh,
			When: func(c Context) bool {
				return c.Metrics.TotalTasks > 0 && c.Metrics.CompletionRate < lowPerformanceRate
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Completion Rate Needs Attention",
					Description: fmt.Sprintf("Only %s of your tasks are done. Try breaking large tasks into smaller steps.", pct(c.Metrics.CompletionRate)),
					Action:      "Split your biggest open task",
					Value:       value(c.Metrics.CompletionRate),
					Trend:       domain.TrendDown,
				}
			},
		},
		{
			ID: "peak-window", Type: domain.InsightOptimization, Priority: domain.PriorityHigh,
			When: func(c Context) bool {
				best := c.Metrics.BestWorkingHour
				return best != clock.DefaultWorkingHour && abs(c.Now.Hour()-best) <= 1
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "You're in Your Peak Window",
					Description: fmt.Sprintf("You usually get the most done around %02d:00. Now is a great time for focused work.", c.Metrics.BestWorkingHour),
					Action:      "Start your most important task",
				}
			},
		},
		{
			ID: "streak-fire", Type: domain.InsightAchievement, Priority: domain.PriorityHigh,
			When: func(c Context) bool { return c.Metrics.CurrentStreak >= streakFireDays },
			Render: func(c Context) Content {
				return Content{
					Title:       "Incredible Streak!",
					Description: fmt.Sprintf("%d days of consistent productivity. You're building excellent habits.", c.Metrics.CurrentStreak),
					Trend:       domain.TrendUp,
				}
			},
		},
		{
			ID: "streak-restart", Type: domain.InsightSuggestion, Priority: domain.PriorityMedium,
			When: func(c Context) bool { return c.Metrics.TotalTasks > 0 && c.Metrics.CurrentStreak == 0 },
			Render: func(Context) Content {
				return Content{
					Title:       "Restart Your Streak",
					Description: "You haven't completed anything today or yesterday. One small win gets you going again.",
					Action:      "Complete a quick task",
				}
			},
		},
		{
			ID: "high-velocity", Type: domain.InsightAchievement, Priority: domain.PriorityMedium,
			When: func(c Context) bool {
				return float64(c.Metrics.WeeklyVelocity) > weeklyBaseline(c.Metrics)*velocityHighFactor
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "High Velocity Week",
					Description: fmt.Sprintf("You completed %d tasks in the last 7 days, well ahead of your usual pace.", c.Metrics.WeeklyVelocity),
					Trend:       domain.TrendUp,
				}
			},
		},
		{
			ID: "low-velocity", Type: domain.InsightSuggestion, Priority: domain.PriorityMedium,
			When: func(c Context) bool {
				return float64(c.Metrics.WeeklyVelocity) < weeklyBaseline(c.Metrics)*velocityLowFactor
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Pace Is Slowing",
					Description: fmt.Sprintf("You completed %d tasks in the last 7 days while adding about %.1f a day.", c.Metrics.WeeklyVelocity, c.Metrics.AverageTasksPerDay),
					Action:      "Review and trim your backlog",
					Trend:       domain.TrendDown,
				}
			},
		},
		{
			ID: "category-mastery", Type: domain.InsightPattern, Priority: domain.PriorityMedium,
			When: func(c Context) bool {
				return c.Metrics.MostProductiveCategory != "" && c.Metrics.MostProductiveCategoryRate > categoryMasteryRate
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Category Mastery",
					Description: fmt.Sprintf("You excel at %s tasks with a %s completion rate!", c.Metrics.MostProductiveCategory, pct(c.Metrics.MostProductiveCategoryRate)),
					Action:      "Focus more energy here",
					Value:       value(c.Metrics.MostProductiveCategoryRate),
				}
			},
		},
		{
			ID: "overdue-alert", Type: domain.InsightWarning, Priority: domain.PriorityHigh,
			When: func(c Context) bool { return c.Metrics.OverdueCount > 0 },
			Render: func(c Context) Content {
				return Content{
					Title:       "Overdue Tasks Alert",
					Description: fmt.Sprintf("You have %s. Consider rescheduling or breaking them down.", plural(c.Metrics.OverdueCount, "overdue task")),
					Action:      "Review overdue tasks",
					Trend:       domain.TrendDown,
				}
			},
		},
		{
			ID: "upcoming-deadlines", Type: domain.InsightSuggestion, Priority: domain.PriorityMedium,
			When: func(c Context) bool { return c.Metrics.UpcomingDeadlines > 0 },
			Render: func(c Context) Content {
				return Content{
					Title:       "Deadlines Coming Up",
					Description: fmt.Sprintf("%s due within %d days.", plural(c.Metrics.UpcomingDeadlines, "task is", "tasks are"), analytics.UpcomingWindowDays),
					Action:      "Plan time for them now",
				}
			},
		},
		{
			ID: "priority-overload", Type: domain.InsightWarning, Priority: domain.PriorityMedium,
			When: func(c Context) bool { return c.Metrics.HighPriorityShare > priorityOverload },
			Render: func(c Context) Content {
				return Content{
					Title:       "Too Many High Priorities",
					Description: fmt.Sprintf("%s of your tasks are marked high priority. When everything is urgent, nothing is.", pct(c.Metrics.HighPriorityShare)),
					Action:      "Downgrade tasks that can wait",
					Value:       value(c.Metrics.HighPriorityShare),
				}
			},
		},
		{
			ID: "balanced-priorities", Type: domain.InsightOptimization, Priority: domain.PriorityLow,
			When: func(c Context) bool {
				return c.Metrics.TotalTasks > balancedMinTasks && c.Metrics.HighPriorityShare < priorityBalanced
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Balanced Priorities",
					Description: fmt.Sprintf("Only %s of your tasks are high priority, which keeps focus where it matters.", pct(c.Metrics.HighPriorityShare)),
					Value:       value(c.Metrics.HighPriorityShare),
					Trend:       domain.TrendStable,
				}
			},
		},
	}
}

// ─── Extended Catalog ───────────────────────────────────────────────────────

// ExtendedCatalog returns DefaultCatalog followed by the optional rules.
// workCategories are doublestar patterns matched case-insensitively against
// task categories; nil means DefaultWorkCategories. Invalid patterns never
// match.
func ExtendedCatalog(workCategories []string) []Rule {
	if workCategories == nil {
		workCategories = DefaultWorkCategories
	}
	patterns := make([]string, 0, len(workCategories))
	for _, p := range workCategories {
		patterns = append(patterns, strings.ToLower(strings.TrimSpace(p)))
	}

	return append(DefaultCatalog(),
		Rule{
			ID: "productivity-boost", Type: domain.InsightProductivity, Priority: domain.PriorityHigh,
			When: func(c Context) bool {
				return c.Metrics.CompletedToday > 0 && c.Metrics.CompletedToday > c.Metrics.CompletedYesterday
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Productivity Boost!",
					Description: fmt.Sprintf("You completed %d tasks today vs %d yesterday. Keep the momentum!", c.Metrics.CompletedToday, c.Metrics.CompletedYesterday),
					Trend:       domain.TrendUp,
				}
			},
		},
		Rule{
			ID: "morning-window", Type: domain.InsightSuggestion, Priority: domain.PriorityMedium,
			When: func(c Context) bool {
				h := c.Now.Hour()
				return h >= morningStartHour && h <= morningEndHour && c.Metrics.CompletedToday == 0
			},
			Render: func(Context) Content {
				return Content{
					Title:       "Morning Productivity Window",
					Description: "It's peak morning hours! This is typically the best time for focused work.",
					Action:      "Start with your most important task",
				}
			},
		},
		Rule{
			ID: "work-life-balance", Type: domain.InsightSuggestion, Priority: domain.PriorityLow,
			When: func(c Context) bool {
				return len(c.Tasks) > workLifeMinTasks && WorkShare(c.Tasks, patterns) > workShareLimit
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Work-Life Balance Check",
					Description: "Most of your tasks are work-related. Consider adding some personal goals for better balance.",
					Action:      "Add personal tasks",
					Value:       value(WorkShare(c.Tasks, patterns)),
				}
			},
		},
		Rule{
			ID: "habit-on-track", Type: domain.InsightAchievement, Priority: domain.PriorityLow,
			When: func(c Context) bool {
				if len(c.Metrics.Habits) == 0 {
					return false
				}
				for _, h := range c.Metrics.Habits {
					if h.CompletionsThisWeek < h.WeeklyTarget {
						return false
					}
				}
				return true
			},
			Render: func(c Context) Content {
				return Content{
					Title:       "Habits On Track",
					Description: fmt.Sprintf("All %s hit their weekly target.", plural(len(c.Metrics.Habits), "habit")),
					Value:       value(100),
				}
			},
		},
	)
}

// WorkShare returns the percentage of tasks whose category matches any of the
// lower-cased patterns.
func WorkShare(tasks []domain.Task, patterns []string) float64 {
	work := 0
	for _, t := range tasks {
		if matchAny(patterns, strings.ToLower(t.CategoryLabel())) {
			work++
		}
	}
	return analytics.Percent(work, len(tasks))
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// weeklyBaseline is the number of tasks the user adds in a typical week.
func weeklyBaseline(m domain.Metrics) float64 {
	return m.AverageTasksPerDay * 7
}

func pct(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v)))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// plural renders "1 task" / "3 tasks". An explicit plural form may be given.
func plural(n int, singular string, pluralForm ...string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	if len(pluralForm) > 0 {
		return fmt.Sprintf("%d %s", n, pluralForm[0])
	}
	return fmt.Sprintf("%d %ss", n, singular)
}
