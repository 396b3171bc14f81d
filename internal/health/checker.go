// Package health runs periodic checks against the record store and the
// report pipeline. The recompute check doubles as a ticker that keeps
// day-dependent figures (overdue counts, streaks) current across midnight
// while nobody is writing.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/infra/metrics"
)

// DefaultInterval is how often checks run when none is configured.
const DefaultInterval = 60 * time.Second

// Target is what the checks probe. *tracker.Service implements it.
type Target interface {
	Ping(ctx context.Context) error
	Report(ctx context.Context) (domain.Report, error)
}

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewChecker creates a checker with the store, recompute and (when dataDir
// is set) data directory checks. interval <= 0 means DefaultInterval.
func NewChecker(target Target, dataDir string, interval time.Duration, log zerolog.Logger) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	checks := []Check{
		{
			Name:    "store",
			CheckFn: target.Ping,
		},
		{
			Name: "recompute",
			CheckFn: func(ctx context.Context) error {
				_, err := target.Report(ctx)
				return err
			},
		},
	}
	if dataDir != "" {
		checks = append(checks, Check{
			Name: "data_dir",
			CheckFn: func(ctx context.Context) error {
				return checkDataDir(dataDir)
			},
		})
	}
	return &Checker{
		checks:   checks,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check and records the results.
func (c *Checker) RunOnce(ctx context.Context) {
	now := c.now
	if now == nil {
		now = time.Now
	}
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			Healthy:   true,
			CheckedAt: now(),
		}
		up := 1.0
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			up = 0
			c.log.Warn().Err(err).Str("check", check.Name).Msg("health check failed")
		}
		metrics.HealthCheckUp.WithLabelValues(check.Name).Set(up)
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass. Before the first run there is
// nothing failing, so it is true.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
