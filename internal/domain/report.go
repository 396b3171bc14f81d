package domain

import "time"

// ─── Snapshot & Report ──────────────────────────────────────────────────────
// A Snapshot is read from the record store before each recompute; a Report is
// the derived output. Neither has persisted identity.

// Snapshot is the full set of records fed to one recompute.
type Snapshot struct {
	Tasks  []Task  `json:"tasks" yaml:"tasks"`
	Habits []Habit `json:"habits" yaml:"habits"`
}

// IsEmpty reports whether there is nothing to analyze.
func (s Snapshot) IsEmpty() bool {
	return len(s.Tasks) == 0 && len(s.Habits) == 0
}

// Report is the output of one recompute.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Metrics     Metrics   `json:"metrics"`
	Insights    []Insight `json:"insights"`
}

// ─── Metrics ────────────────────────────────────────────────────────────────

// PriorityDistribution counts tasks by priority. High+Medium+Low always
// equals the number of tasks counted.
type PriorityDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total returns High+Medium+Low.
func (p PriorityDistribution) Total() int {
	return p.High + p.Medium + p.Low
}

// CategoryStat tallies one category.
type CategoryStat struct {
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"` // completed/total × 100
}

// HabitSummary is the per-habit view of a snapshot.
type HabitSummary struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	CurrentStreak       int     `json:"currentStreak"`
	LongestStreak       int     `json:"longestStreak"`
	CompletionsThisWeek int     `json:"completionsThisWeek"`
	WeeklyTarget        int     `json:"weeklyTarget"`
	WeeklyProgress      float64 `json:"weeklyProgress"` // 0-100, capped
	DoneToday           bool    `json:"doneToday"`
}

// Metrics is the aggregate view of a snapshot at one instant.
type Metrics struct {
	CompletionRate         float64              `json:"completionRate"`
	AverageTasksPerDay     float64              `json:"averageTasksPerDay"`
	BestWorkingHour        int                  `json:"bestWorkingHour"`
	MostProductiveCategory string               `json:"mostProductiveCategory"`
	CurrentStreak          int                  `json:"currentStreak"`
	WeeklyVelocity         int                  `json:"weeklyVelocity"`
	PriorityDistribution   PriorityDistribution `json:"priorityDistribution"`
	OverdueCount           int                  `json:"overdueCount"`
	UpcomingDeadlines      int                  `json:"upcomingDeadlines"`

	TotalTasks                 int            `json:"totalTasks"`
	CompletedTasks             int            `json:"completedTasks"`
	CompletedToday             int            `json:"completedToday"`
	CompletedYesterday         int            `json:"completedYesterday"`
	LongestStreak              int            `json:"longestStreak"`
	HighPriorityShare          float64        `json:"highPriorityShare"`
	MostProductiveCategoryRate float64        `json:"mostProductiveCategoryRate"`
	HourDistribution           [24]int        `json:"hourDistribution"`
	Categories                 []CategoryStat `json:"categories"`
	Habits                     []HabitSummary `json:"habits"`
}

// ─── Insights ───────────────────────────────────────────────────────────────

// InsightType tells a consumer how to present an insight.
type InsightType string

const (
	InsightProductivity InsightType = "productivity"
	InsightPattern      InsightType = "pattern"
	InsightSuggestion   InsightType = "suggestion"
	InsightWarning      InsightType = "warning"
	InsightAchievement  InsightType = "achievement"
	InsightOptimization InsightType = "optimization"
)

// Trend is the direction an insight's value is moving.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Insight is a ranked, human-readable observation.
type Insight struct {
	ID          string      `json:"id"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Action      string      `json:"action,omitempty"`
	Priority    Priority    `json:"priority"`
	Value       *float64    `json:"value,omitempty"` // 0-100 where applicable
	Trend       Trend       `json:"trend,omitempty"`
}

// ─── Progress series ────────────────────────────────────────────────────────

// ProgressPoint is one bucket of a progress chart.
type ProgressPoint struct {
	Label      string `json:"label"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// ProgressReport holds the daily, weekly and monthly series.
type ProgressReport struct {
	Daily   []ProgressPoint `json:"daily"`
	Weekly  []ProgressPoint `json:"weekly"`
	Monthly []ProgressPoint `json:"monthly"`
}
