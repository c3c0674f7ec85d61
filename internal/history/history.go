// Package history persists finished export jobs to a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status is the terminal outcome of an export job.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Entry is one finished export job.
type Entry struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Mode       string    `json:"mode"` // streaming or client
	Status     Status    `json:"status"`
	Rows       int       `json:"rows"`
	Filename   string    `json:"filename,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store records export outcomes in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the history database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS export_history (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			rows INTEGER NOT NULL DEFAULT 0,
			filename TEXT,
			error TEXT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_export_history_finished ON export_history(finished_at);
		CREATE INDEX IF NOT EXISTS idx_export_history_source ON export_history(source);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a finished job. An empty ID is assigned one.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = "exp_" + uuid.New().String()[:8]
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_history (id, source, mode, status, rows, filename, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.Mode, string(e.Status), e.Rows, e.Filename, e.Error, e.StartedAt, e.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	s.logger.Debug("export recorded", "id", e.ID, "source", e.Source, "status", e.Status)
	return nil
}

// Recent returns up to limit entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, mode, status, rows, filename, error, started_at, finished_at
		FROM export_history
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.ID, &e.Source, &e.Mode, &status, &e.Rows, &e.Filename, &e.Error, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Status = Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
