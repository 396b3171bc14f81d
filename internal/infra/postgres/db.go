// Package postgres provides the remote PostgreSQL-backed record store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/infra/sqldb"
)

// DB is the PostgreSQL record store.
type DB struct {
	*sqldb.Store
}

// Open connects to dsn, verifies the connection and applies migrations.
// dsn accepts both URL ("postgres://...") and key=value forms.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*DB, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	d := &DB{Store: sqldb.New(db, sqldb.Dollar, log)}
	if err := d.Migrate(ctx, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Msg("postgres store opened")
	return d, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// migrations are idempotent schema statements. Timestamps are stored as text
// so malformed user input survives a round trip unchanged.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		priority     TEXT NOT NULL DEFAULT 'medium',
		completed    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TEXT NOT NULL,
		completed_at TEXT,
		deadline     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at)`,

	`CREATE TABLE IF NOT EXISTS habits (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		color            TEXT NOT NULL DEFAULT '',
		target_frequency INTEGER NOT NULL DEFAULT 7,
		created_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS habit_completions (
		habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		day      TEXT NOT NULL,
		PRIMARY KEY (habit_id, day)
	)`,

	`CREATE TABLE IF NOT EXISTS revisions (
		id               TEXT PRIMARY KEY,
		original_task_id TEXT NOT NULL,
		original_title   TEXT NOT NULL DEFAULT '',
		revision_number  INTEGER NOT NULL,
		scheduled_date   TEXT NOT NULL,
		completed        BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_scheduled ON revisions(scheduled_date)`,
}
