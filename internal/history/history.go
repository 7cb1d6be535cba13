// Package history records one summary row per pipeline run in a local
// SQLite database, so past runs can be listed and pruned later.
//
// History is strictly best-effort for callers: a run that cannot be
// recorded is logged and forgotten, never surfaced as a run failure.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded pipeline run.
type Run struct {
	ID           string    `json:"id"`
	Root         string    `json:"root"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	Recursive    bool      `json:"recursive"`
	FilesSeen    int       `json:"files_seen"`
	Unparseable  int       `json:"unparseable"`
	Skipped      int       `json:"skipped"`
	Sessions     int       `json:"sessions"`
	Entries      int       `json:"entries"`
	OutputFormat string    `json:"output_format"`
}

// Store provides SQLite-backed run history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates (or opens) the history database at path.
// It configures WAL mode, sets pragmas, and runs the embedded schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Debug("run history opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runColumns is the ordered list of columns selected in run queries.
// Must match the scan order in scanRun.
const runColumns = `id, root, started_at, completed_at, recursive,
	files_seen, unparseable, skipped, sessions, entries, output_format`

// scanRun scans a sql.Row (or sql.Rows via its Scan method) into a Run.
func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var r Run

	var (
		startedAt   string
		completedAt string
		recursive   int
	)

	err := scanner.Scan(
		&r.ID,
		&r.Root,
		&startedAt,
		&completedAt,
		&recursive,
		&r.FilesSeen,
		&r.Unparseable,
		&r.Skipped,
		&r.Sessions,
		&r.Entries,
		&r.OutputFormat,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	r.CompletedAt, err = parseTime(completedAt)
	if err != nil {
		return nil, err
	}

	r.Recursive = recursive != 0

	return &r, nil
}

// RecordRun inserts a run summary row.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, root, started_at, completed_at, recursive,
			files_seen, unparseable, skipped, sessions, entries, output_format
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Root,
		formatTime(run.StartedAt),
		formatTime(run.CompletedAt),
		boolToInt(run.Recursive),
		run.FilesSeen,
		run.Unparseable,
		run.Skipped,
		run.Sessions,
		run.Entries,
		run.OutputFormat,
	)
	return err
}

// ListRecent returns up to limit runs, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// PruneOlderThan deletes runs started before cutoff.
// Returns the number of runs deleted.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
