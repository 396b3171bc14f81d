// Package daemon manages the momentum daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/productive-me/momentum/internal/app/insight"
	"github.com/productive-me/momentum/internal/clock"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Store     StoreConfig     `toml:"store"`
	Engine    EngineConfig    `toml:"engine"`
	Insights  InsightsConfig  `toml:"insights"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Health    HealthConfig    `toml:"health"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StoreConfig selects the persistence backend. For sqlite the DSN is a
// directory or a *.db path; for postgres it is a connection string.
type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// EngineConfig controls day bucketing and the insight cap.
type EngineConfig struct {
	Timezone     string `toml:"timezone"`
	InsightLimit int    `toml:"insight_limit"`
}

// InsightsConfig toggles the extended rule set.
type InsightsConfig struct {
	Extended       bool     `toml:"extended"`
	WorkCategories []string `toml:"work_categories"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TelemetryConfig controls the /metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// HealthConfig controls the background health checks.
type HealthConfig struct {
	Interval string `toml:"interval"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7878,
			CORSOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    Home(),
		},
		Engine: EngineConfig{
			Timezone:     "UTC",
			InsightLimit: insight.DefaultLimit,
		},
		Insights: InsightsConfig{
			WorkCategories: append([]string(nil), insight.DefaultWorkCategories...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Health: HealthConfig{
			Interval: "60s",
		},
	}
}

// ConfigPath is where LoadConfig looks for the config file.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// LoadConfig reads config from ConfigPath, falling back to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(ConfigPath())
}

// LoadConfigFrom reads config from path. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating the parent directory.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate reports every invalid field at once as criterio.FieldErrors.
func (c Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("api.port", c.API.Port, validPort),
		criterio.Run("store.driver", c.Store.Driver, validDriver),
		criterio.Run("engine.timezone", c.Engine.Timezone, validTimezone),
		criterio.Run("engine.insight_limit", c.Engine.InsightLimit, atLeastOne),
		criterio.Run("health.interval", c.Health.Interval, validInterval),
		c.validateWorkCategories(),
	)
}

func validPort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("must be between 1 and 65535, got %d", p)
	}
	return nil
}

func validDriver(d string) error {
	switch d {
	case DriverSQLite, DriverPostgres:
		return nil
	}
	return fmt.Errorf("must be %q or %q, got %q", DriverSQLite, DriverPostgres, d)
}

func validTimezone(tz string) error {
	_, err := clock.LoadLocation(tz)
	return err
}

func atLeastOne(n int) error {
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validInterval(s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", s)
	}
	return nil
}

func (c Config) validateWorkCategories() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Insights.WorkCategories {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("insights.work_categories[%d]", i), fmt.Errorf("invalid pattern %q", p))
		}
	}
	return errs.ToError()
}

// Home returns the momentum data directory.
func Home() string {
	if env := os.Getenv("MOMENTUM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".momentum")
}
