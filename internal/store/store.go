// Package store provides a SQLite-backed cache of sheet snapshots and a
// history of refresh runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates that no snapshot exists for the requested kind.
var ErrNotFound = errors.New("not found")

// Fixed width keeps lexical order equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	kind       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_runs (
	id          TEXT PRIMARY KEY,
	tab         TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_refresh_runs_started_at ON refresh_runs(started_at);
`

// Snapshot is the cached payload of one data kind.
type Snapshot struct {
	Kind      string
	Payload   []byte
	FetchedAt time.Time
}

// Run is one completed refresh of a tab.
type Run struct {
	ID         string    `json:"id"`
	Tab        string    `json:"tab"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the run ended with an error.
func (r Run) Failed() bool { return r.Error != "" }

// Store is a SQLite database holding snapshots and run history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot replaces the cached payload for kind.
func (s *Store) SaveSnapshot(ctx context.Context, kind string, payload []byte, fetchedAt time.Time) error {
	if strings.TrimSpace(kind) == "" {
		return fmt.Errorf("store: snapshot kind cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (kind, payload, fetched_at) VALUES (?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		kind, payload, formatTime(fetchedAt))
	if err != nil {
		return fmt.Errorf("store: save snapshot %s: %w", kind, err)
	}
	return nil
}

// LoadSnapshot returns the cached payload for kind or ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, kind string) (Snapshot, error) {
	snap := Snapshot{Kind: kind}
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM snapshots WHERE kind = ?`, kind,
	).Scan(&snap.Payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("store: snapshot %s: %w", kind, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: load snapshot %s: %w", kind, err)
	}
	if snap.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return Snapshot{}, fmt.Errorf("store: snapshot %s: %w", kind, err)
	}
	return snap, nil
}

// RecordRun inserts run, assigning a new ID when empty, and returns the ID.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if strings.TrimSpace(run.Tab) == "" {
		return "", fmt.Errorf("store: run tab cannot be empty")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return "", fmt.Errorf("store: invalid run id %q: %w", run.ID, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_runs (id, tab, started_at, finished_at, error) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Tab, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Error)
	if err != nil {
		return "", fmt.Errorf("store: record run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, tab, started_at, finished_at, error FROM refresh_runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
		)
		if err := rows.Scan(&run.ID, &run.Tab, &started, &finished, &run.Error); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("store: run %s: %w", run.ID, err)
		}
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("store: run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}

// PruneRuns deletes runs that started before cutoff and returns how many
// were removed.
func (s *Store) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("store: prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: prune rows affected: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
