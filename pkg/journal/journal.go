// Package journal records one row per lifecycle operation in a local
// SQLite database. The journal is purely additive observability: a
// journal failure never fails the operation it describes.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is one recorded lifecycle operation.
type Entry struct {
	ID              string
	Operation       string
	StartedAt       time.Time
	FinishedAt      *time.Time
	Success         bool
	RestartRequired bool
	Detail          string
}

// Journal is the operation history store.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the journal database at path and applies
// pending schema migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(j.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Begin records the start of an operation and returns its entry ID.
func (j *Journal) Begin(ctx context.Context, operation string) (string, error) {
	id := uuid.New().String()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO operations (id, operation, started_at) VALUES (?, ?, ?)`,
		id, operation, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record operation start: %w", err)
	}
	return id, nil
}

// Finish records the outcome of a previously started operation.
func (j *Journal) Finish(ctx context.Context, id string, success, restartRequired bool, detail string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE operations SET finished_at = ?, success = ?, restart_required = ?, detail = ? WHERE id = ?`,
		time.Now().UTC(), success, restartRequired, detail, id)
	if err != nil {
		return fmt.Errorf("failed to record operation outcome: %w", err)
	}
	return nil
}

// List returns entries newest first, up to limit.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, operation, started_at, finished_at, success, restart_required, detail
		 FROM operations ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var finished sql.NullTime
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Operation, &e.StartedAt, &finished, &e.Success, &e.RestartRequired, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			e.FinishedAt = &t
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
