package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/api"
	"github.com/productive-me/momentum/internal/app/engine"
	"github.com/productive-me/momentum/internal/app/tracker"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
	"github.com/productive-me/momentum/internal/health"
	"github.com/productive-me/momentum/internal/infra/postgres"
	"github.com/productive-me/momentum/internal/infra/sqlite"
	"github.com/productive-me/momentum/internal/logging"
)

// Daemon is the core momentum runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Store   domain.RecordStore
	Engine  *engine.Engine
	Tracker *tracker.Service
	Server  *api.Server
	Health  *health.Checker

	log      zerolog.Logger
	closeLog func()
	cancel   context.CancelFunc
}

// Option customizes NewWithConfig.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New loads the config from disk and creates a Daemon.
func New(ctx context.Context) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(ctx context.Context, cfg Config, opts ...Option) (*Daemon, error) {
	o := options{clock: clock.NewReal()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	root, closeLog, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logging.Install(root)

	store, err := OpenStore(ctx, cfg.Store, logging.Component("store"))
	if err != nil {
		closeLog()
		return nil, err
	}

	eng, err := NewEngine(cfg, o.clock)
	if err != nil {
		_ = store.Close()
		closeLog()
		return nil, err
	}
	svc := tracker.New(store, eng, logging.Component("tracker"))

	dataDir := ""
	if cfg.Store.Driver == DriverSQLite {
		dataDir = sqliteDir(cfg.Store.DSN)
	}
	checker := health.NewChecker(svc, dataDir, parseDuration(cfg.Health.Interval, health.DefaultInterval), logging.Component("health"))

	srv := api.NewServer(svc, logging.Component("api"))
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	srv.SetHealth(checker)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:   cfg,
		Store:    store,
		Engine:   eng,
		Tracker:  svc,
		Server:   srv,
		Health:   checker,
		log:      logging.Component("daemon"),
		closeLog: closeLog,
	}, nil
}

// NewEngine builds the analytics engine described by cfg. It needs no store,
// so one-shot analysis can run without opening the database.
func NewEngine(cfg Config, c clock.Clock) (*engine.Engine, error) {
	loc, err := clock.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Options{
		Calendar:       clock.NewCalendar(c, loc),
		InsightLimit:   cfg.Engine.InsightLimit,
		Extended:       cfg.Insights.Extended,
		WorkCategories: cfg.Insights.WorkCategories,
	}), nil
}

// OpenStore opens the record store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig, log zerolog.Logger) (domain.RecordStore, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = Home()
		}
		db, err := sqlite.Open(ctx, dsn, log)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil
	case DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStore, cfg.Driver)
	}
}

// Addr is the listen address built from the API config.
func (d *Daemon) Addr() string {
	return net.JoinHostPort(d.Config.API.Host, strconv.Itoa(d.Config.API.Port))
}

// Serve starts the HTTP server and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	addr := d.Addr()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Health checker (always runs); its first pass also warms the report.
	go d.Health.Run(ctx)

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.log.Error().Err(err).Msg("http shutdown")
		}
	}()

	d.log.Info().
		Str("addr", addr).
		Str("store", d.Config.Store.Driver).
		Bool("metrics", d.Config.Telemetry.Prometheus).
		Msg("momentum serving")

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		return err
	}
	<-done
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.log.Warn().Err(err).Msg("close store")
		}
	}
	if d.closeLog != nil {
		d.closeLog()
	}
}

// sqliteDir is the directory holding the sqlite database for dsn.
func sqliteDir(dsn string) string {
	if dsn == "" {
		return Home()
	}
	if strings.HasSuffix(dsn, ".db") {
		return filepath.Dir(dsn)
	}
	return dsn
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
