// Package sqlite provides the local SQLite-backed record store.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/productive-me/momentum/internal/infra/sqldb"
)

// FileName is the database file created inside the data directory.
const FileName = "momentum.db"

// DB is the SQLite record store.
type DB struct {
	*sqldb.Store
}

// Open creates or opens the database. path is either a directory, in which
// case FileName is created inside it, or a path ending in ".db".
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(ctx context.Context, path string, log zerolog.Logger) (*DB, error) {
	dbPath := path
	if !strings.HasSuffix(path, ".db") {
		dbPath = filepath.Join(path, FileName)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{Store: sqldb.New(db, sqldb.Question, log)}
	if err := d.Migrate(ctx, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("sqlite store opened")
	return d, nil
}

// migrations are idempotent schema statements.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		priority     TEXT NOT NULL DEFAULT 'medium',
		completed    BOOLEAN NOT NULL DEFAULT 0,
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

	// One row per (habit, day); set semantics come from the primary key.
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
		completed        BOOLEAN NOT NULL DEFAULT 0,
		completed_at     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_scheduled ON revisions(scheduled_date)`,
}
