package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/infra/metrics"
)

type fakeTarget struct {
	pingErr   error
	reportErr error
	reports   atomic.Int32
}

func (f *fakeTarget) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeTarget) Report(ctx context.Context) (domain.Report, error) {
	f.reports.Add(1)
	return domain.Report{}, f.reportErr
}

func statusByName(t *testing.T, c *Checker, name string) Status {
	t.Helper()
	for _, s := range c.Statuses() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("check %q not found in statuses", name)
	return Status{}
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(&fakeTarget{}, t.TempDir(), 0, zerolog.Nop())
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
	if c.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", c.interval, DefaultInterval)
	}

	remote := NewChecker(&fakeTarget{}, "", time.Second, zerolog.Nop())
	if len(remote.checks) != 2 {
		t.Errorf("checks without data dir = %d, want 2", len(remote.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	target := &fakeTarget{}
	c := NewChecker(target, t.TempDir(), 0, zerolog.Nop())
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
	if got := target.reports.Load(); got != 1 {
		t.Errorf("recompute ran %d times, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.HealthCheckUp.WithLabelValues("store")); got != 1 {
		t.Errorf("health_check_up{store} = %v, want 1", got)
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(&fakeTarget{pingErr: errors.New("down")}, "", 0, zerolog.Nop())

	// Before any run, there are no statuses, so nothing is failing
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run (no statuses)")
	}
}

func TestChecker_StoreDown(t *testing.T) {
	c := NewChecker(&fakeTarget{pingErr: errors.New("connection refused")}, "", 0, zerolog.Nop())
	c.RunOnce(context.Background())

	s := statusByName(t, c, "store")
	if s.Healthy {
		t.Error("store check should fail")
	}
	if s.Error != "connection refused" {
		t.Errorf("Error = %q", s.Error)
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false")
	}
	if got := testutil.ToFloat64(metrics.HealthCheckUp.WithLabelValues("store")); got != 0 {
		t.Errorf("health_check_up{store} = %v, want 0", got)
	}
}

func TestChecker_RecomputeFails(t *testing.T) {
	c := NewChecker(&fakeTarget{reportErr: errors.New("load tasks: boom")}, "", 0, zerolog.Nop())
	c.RunOnce(context.Background())

	if statusByName(t, c, "recompute").Healthy {
		t.Error("recompute check should fail")
	}
	if !statusByName(t, c, "store").Healthy {
		t.Error("store check should still pass")
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(dataDir, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewChecker(&fakeTarget{}, dataDir, 0, zerolog.Nop())
	c.RunOnce(context.Background())

	if statusByName(t, c, "data_dir").Healthy {
		t.Error("data_dir should fail when path is a file")
	}
}

func TestChecker_DataDirMissing(t *testing.T) {
	c := NewChecker(&fakeTarget{}, filepath.Join(t.TempDir(), "gone"), 0, zerolog.Nop())
	c.RunOnce(context.Background())

	if statusByName(t, c, "data_dir").Healthy {
		t.Error("data_dir should fail when the directory was removed")
	}
}

func TestChecker_CustomCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_pass",
				CheckFn: func(ctx context.Context) error {
					return nil
				},
			},
		},
	}

	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if !statuses[0].Healthy {
		t.Error("always_pass check should be healthy")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	c := NewChecker(&fakeTarget{}, t.TempDir(), 0, zerolog.Nop())
	c.RunOnce(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()

	s1[0].Healthy = false
	if !s2[0].Healthy {
		t.Error("Statuses() should return a copy, not a reference")
	}
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	target := &fakeTarget{}
	c := NewChecker(target, "", 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for target.reports.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if target.reports.Load() < 2 {
		t.Error("ticker did not rerun the checks")
	}
}
