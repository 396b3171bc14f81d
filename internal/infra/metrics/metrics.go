// Package metrics provides Prometheus metrics for momentum: tracker events,
// the latest report's headline figures, recompute latency and HTTP traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/productive-me/momentum/internal/domain"
)

// ─── Recompute ──────────────────────────────────────────────────────────────

// RecomputeLatency tracks how long a snapshot load plus recompute takes.
var RecomputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "momentum",
	Name:      "recompute_latency_seconds",
	Help:      "Time to load a snapshot and derive a report.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// InsightsEmitted counts insights returned, by type.
var InsightsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "insights_emitted_total",
	Help:      "Total insights returned by recomputes.",
}, []string{"type"})

// ─── Latest Report ──────────────────────────────────────────────────────────

// CompletionRate is the completion percentage of the latest report.
var CompletionRate = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "completion_rate_percent",
	Help:      "Task completion rate of the latest report (0-100).",
})

// CurrentStreak is the consecutive-day streak of the latest report.
var CurrentStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "current_streak_days",
	Help:      "Current consecutive-day completion streak.",
})

// OverdueTasks is the number of open tasks past their deadline.
var OverdueTasks = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "overdue_tasks",
	Help:      "Open tasks whose deadline has passed.",
})

// UpcomingDeadlines is the number of open tasks due within three days.
var UpcomingDeadlines = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "upcoming_deadlines",
	Help:      "Open tasks due today or within the next three days.",
})

// WeeklyVelocity is the number of tasks completed in the trailing week.
var WeeklyVelocity = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "weekly_velocity_tasks",
	Help:      "Tasks completed in the last seven days.",
})

// ─── Tracker Events ─────────────────────────────────────────────────────────

// TaskEvents counts task mutations by kind (created, completed, reopened, deleted).
var TaskEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "task_events_total",
	Help:      "Total task mutations by kind.",
}, []string{"event"})

// HabitToggles counts habit completion toggles by resulting state.
var HabitToggles = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "habit_toggles_total",
	Help:      "Total habit completion toggles.",
}, []string{"state"})

// RevisionsScheduled counts review rows actually inserted.
var RevisionsScheduled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "revisions_scheduled_total",
	Help:      "Total spaced-repetition reviews scheduled.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckUp is 1 while a named health check passes and 0 otherwise.
var HealthCheckUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "health_check_up",
	Help:      "Whether each health check passed on its last run.",
}, []string{"check"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts API requests by method, route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests.",
}, []string{"method", "route", "status"})

// HTTPLatency tracks API request duration.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "momentum",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// ObserveReport publishes a fresh report's headline figures.
func ObserveReport(r domain.Report, elapsed time.Duration) {
	RecomputeLatency.Observe(elapsed.Seconds())
	CompletionRate.Set(r.Metrics.CompletionRate)
	CurrentStreak.Set(float64(r.Metrics.CurrentStreak))
	OverdueTasks.Set(float64(r.Metrics.OverdueCount))
	UpcomingDeadlines.Set(float64(r.Metrics.UpcomingDeadlines))
	WeeklyVelocity.Set(float64(r.Metrics.WeeklyVelocity))
	for _, in := range r.Insights {
		InsightsEmitted.WithLabelValues(string(in.Type)).Inc()
	}
}
