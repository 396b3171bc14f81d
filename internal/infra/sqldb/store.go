// Package sqldb implements domain.RecordStore over database/sql. The SQLite
// and PostgreSQL adapters open the connection, run their own migrations and
// hand the pool to New with the placeholder style of their driver.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/domain"
)

// Placeholder is the bind-variable style of a driver.
type Placeholder int

const (
	Question Placeholder = iota // ?, ?, ?
	Dollar                      // $1, $2, $3
)

// Store is a RecordStore over a *sql.DB.
type Store struct {
	db  *sql.DB
	ph  Placeholder
	log zerolog.Logger
}

var _ domain.RecordStore = (*Store)(nil)

// New wraps db. The caller keeps ownership until Close.
func New(db *sql.DB, ph Placeholder, log zerolog.Logger) *Store {
	return &Store{db: db, ph: ph, log: log}
}

// DB exposes the pool for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close cleanly shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate runs idempotent schema statements in order.
func (s *Store) Migrate(ctx context.Context, statements []string) error {
	for _, m := range statements {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// bind rewrites ? placeholders for the driver.
func (s *Store) bind(query string) string {
	if s.ph != Dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.bind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.bind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.bind(q), args...)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

const taskColumns = `id, title, description, category, priority, completed, created_at, completed_at, deadline`

// ListTasks returns all tasks, oldest first.
func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task by id.
func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	t, err := scanTask(s.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, err
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := s.exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Category, string(t.Priority), t.Completed,
		t.CreatedAt.String(), nullableInstant(t.CompletedAt), nullableDate(t.Deadline),
	)
	if err != nil {
		return fmt.Errorf("create task %s: %w", t.ID, err)
	}
	return nil
}

const updateTaskSQL = `UPDATE tasks SET title = ?, description = ?, category = ?, priority = ?,
		completed = ?, completed_at = ?, deadline = ?
	 WHERE id = ?`

func updateTaskArgs(t domain.Task) []any {
	return []any{
		t.Title, t.Description, t.Category, string(t.Priority),
		t.Completed, nullableInstant(t.CompletedAt), nullableDate(t.Deadline), t.ID,
	}
}

// UpdateTask overwrites every mutable column of an existing task.
func (s *Store) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := s.exec(ctx, updateTaskSQL, updateTaskArgs(t)...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return expectOne(res, domain.ErrTaskNotFound)
}

// DeleteTask removes a task. Its revisions are kept.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return expectOne(res, domain.ErrTaskNotFound)
}

// ─── Habits ─────────────────────────────────────────────────────────────────

const habitColumns = `id, name, description, color, target_frequency, created_at`

// ListHabits returns all habits with their completion days.
func (s *Store) ListHabits(ctx context.Context) ([]domain.Habit, error) {
	rows, err := s.query(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	habits := []domain.Habit{}
	index := map[string]int{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, err := s.query(ctx, `SELECT habit_id, day FROM habit_completions ORDER BY habit_id, day`)
	if err != nil {
		return nil, fmt.Errorf("list habit completions: %w", err)
	}
	defer days.Close()
	for days.Next() {
		var habitID, day string
		if err := days.Scan(&habitID, &day); err != nil {
			return nil, err
		}
		if i, ok := index[habitID]; ok {
			habits[i].Completions = append(habits[i].Completions, clock.ParseDate(day))
		}
	}
	return habits, days.Err()
}

// GetHabit retrieves a habit and its completion days.
func (s *Store) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	h, err := scanHabit(s.queryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Habit{}, domain.ErrHabitNotFound
	}
	if err != nil {
		return domain.Habit{}, err
	}

	rows, err := s.query(ctx, `SELECT day FROM habit_completions WHERE habit_id = ? ORDER BY day`, id)
	if err != nil {
		return domain.Habit{}, fmt.Errorf("get habit completions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return domain.Habit{}, err
		}
		h.Completions = append(h.Completions, clock.ParseDate(day))
	}
	return h, rows.Err()
}

// CreateHabit inserts a habit together with any initial completion days.
func (s *Store) CreateHabit(ctx context.Context, h domain.Habit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.bind(`INSERT INTO habits (`+habitColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		h.ID, h.Name, h.Description, h.Color, h.TargetFrequency, h.CreatedAt.String(),
	); err != nil {
		return fmt.Errorf("create habit %s: %w", h.ID, err)
	}
	for _, d := range h.CompletionSet().Sorted() {
		if _, err := tx.ExecContext(ctx, s.bind(`INSERT INTO habit_completions (habit_id, day) VALUES (?, ?)`),
			h.ID, d.String(),
		); err != nil {
			return fmt.Errorf("create habit %s completion: %w", h.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteHabit removes a habit and its completion days.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.bind(`DELETE FROM habit_completions WHERE habit_id = ?`), id); err != nil {
		return fmt.Errorf("delete habit %s completions: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, s.bind(`DELETE FROM habits WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}
	if err := expectOne(res, domain.ErrHabitNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

// ToggleHabitCompletion flips one day of a habit's completion set.
func (s *Store) ToggleHabitCompletion(ctx context.Context, habitID string, day clock.Date) (bool, error) {
	if !day.IsValid() {
		return false, fmt.Errorf("toggle habit %s: invalid day", habitID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.bind(`SELECT COUNT(*) FROM habits WHERE id = ?`), habitID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("toggle habit %s: %w", habitID, err)
	}
	if exists == 0 {
		return false, domain.ErrHabitNotFound
	}

	res, err := tx.ExecContext(ctx, s.bind(`DELETE FROM habit_completions WHERE habit_id = ? AND day = ?`),
		habitID, day.String())
	if err != nil {
		return false, fmt.Errorf("toggle habit %s: %w", habitID, err)
	}
	marked := false
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx, s.bind(`INSERT INTO habit_completions (habit_id, day) VALUES (?, ?)`),
			habitID, day.String()); err != nil {
			return false, fmt.Errorf("toggle habit %s: %w", habitID, err)
		}
		marked = true
	}
	return marked, tx.Commit()
}

// ─── Revisions ──────────────────────────────────────────────────────────────

const revisionColumns = `id, original_task_id, original_title, revision_number, scheduled_date, completed, completed_at`

// ListRevisions returns every revision ordered by scheduled day.
func (s *Store) ListRevisions(ctx context.Context) ([]domain.Revision, error) {
	rows, err := s.query(ctx, `SELECT `+revisionColumns+` FROM revisions ORDER BY scheduled_date, revision_number, id`)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()
	return scanRevisions(rows)
}

func scanRevisions(rows *sql.Rows) ([]domain.Revision, error) {
	revs := []domain.Revision{}
	for rows.Next() {
		var r domain.Revision
		var day string
		var completedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.OriginalTaskID, &r.OriginalTitle, &r.RevisionNumber,
			&day, &r.Completed, &completedAt); err != nil {
			return nil, err
		}
		r.ScheduledDate = clock.ParseDate(day)
		r.CompletedAt = instantFromNull(completedAt)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// SaveRevisions inserts a batch in one transaction. Rows whose id already
// exists are left untouched, so a task completed twice keeps its first
// schedule.
func (s *Store) SaveRevisions(ctx context.Context, revs []domain.Revision) (int, error) {
	if len(revs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted, err := s.insertRevisions(ctx, tx, revs)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.Debug().Int("batch", len(revs)).Int("inserted", inserted).Msg("revisions saved")
	return inserted, nil
}

// CompleteTask updates t and inserts revs in one transaction, so a failed
// insert leaves the task open. It returns every stored revision of t and
// how many of revs were new.
func (s *Store) CompleteTask(ctx context.Context, t domain.Task, revs []domain.Revision) ([]domain.Revision, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.bind(updateTaskSQL), updateTaskArgs(t)...)
	if err != nil {
		return nil, 0, fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if err := expectOne(res, domain.ErrTaskNotFound); err != nil {
		return nil, 0, err
	}

	inserted, err := s.insertRevisions(ctx, tx, revs)
	if err != nil {
		return nil, 0, err
	}

	stored, err := s.taskRevisions(ctx, tx, t.ID)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	s.log.Debug().Str("task", t.ID).Int("inserted", inserted).Int("stored", len(stored)).Msg("task completed")
	return stored, inserted, nil
}

func (s *Store) insertRevisions(ctx context.Context, tx *sql.Tx, revs []domain.Revision) (int, error) {
	stmt := s.bind(`INSERT INTO revisions (` + revisionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	inserted := 0
	for _, r := range revs {
		res, err := tx.ExecContext(ctx, stmt,
			r.ID, r.OriginalTaskID, r.OriginalTitle, r.RevisionNumber,
			r.ScheduledDate.String(), r.Completed, nullableInstant(r.CompletedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("save revision %s: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (s *Store) taskRevisions(ctx context.Context, tx *sql.Tx, taskID string) ([]domain.Revision, error) {
	rows, err := tx.QueryContext(ctx, s.bind(`SELECT `+revisionColumns+` FROM revisions
		WHERE original_task_id = ? ORDER BY revision_number, id`), taskID)
	if err != nil {
		return nil, fmt.Errorf("list revisions of %s: %w", taskID, err)
	}
	defer rows.Close()
	return scanRevisions(rows)
}

// SetRevisionCompleted marks a revision done at the given instant, or open
// again when at is nil.
func (s *Store) SetRevisionCompleted(ctx context.Context, id string, at *clock.Instant) error {
	res, err := s.exec(ctx, `UPDATE revisions SET completed = ?, completed_at = ? WHERE id = ?`,
		at != nil, nullableInstant(at), id)
	if err != nil {
		return fmt.Errorf("complete revision %s: %w", id, err)
	}
	return expectOne(res, domain.ErrRevisionNotFound)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var t domain.Task
	var priority, createdAt string
	var completedAt, deadline sql.NullString

	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &priority,
		&t.Completed, &createdAt, &completedAt, &deadline)
	if err != nil {
		return domain.Task{}, err
	}

	t.Priority = domain.Priority(priority)
	t.CreatedAt = clock.ParseInstant(createdAt)
	t.CompletedAt = instantFromNull(completedAt)
	if deadline.Valid {
		d := clock.ParseDate(deadline.String)
		t.Deadline = &d
	}
	return t, nil
}

func scanHabit(s scanner) (domain.Habit, error) {
	var h domain.Habit
	var createdAt string
	if err := s.Scan(&h.ID, &h.Name, &h.Description, &h.Color, &h.TargetFrequency, &createdAt); err != nil {
		return domain.Habit{}, err
	}
	h.CreatedAt = clock.ParseInstant(createdAt)
	h.Completions = []clock.Date{}
	return h, nil
}

func nullableInstant(i *clock.Instant) sql.NullString {
	if i == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: i.String(), Valid: true}
}

func nullableDate(d *clock.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func instantFromNull(s sql.NullString) *clock.Instant {
	if !s.Valid {
		return nil
	}
	i := clock.ParseInstant(s.String)
	return &i
}

// expectOne maps "no row affected" to notFound.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
