// Package history records finished artists in a SQLite database so past
// crawls can be reviewed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the persistent download history using SQLite
type Store struct {
	db *sql.DB
}

// Entry is one finished artist
type Entry struct {
	ID        int64
	RunID     string
	Artist    string
	SourceID  string
	TargetID  string
	Success   bool
	Error     string
	Timestamp time.Time
}

// DefaultPath returns the history database location under dataDir, or
// under ~/.local/share/wildchain when dataDir is empty.
func DefaultPath(dataDir string) string {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "history.db"
		}
		dataDir = filepath.Join(homeDir, ".local", "share", "wildchain")
	}
	return filepath.Join(dataDir, "history.db")
}

// Open opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory store.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps in-memory databases consistent and serializes
	// writes from concurrent workers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			artist TEXT NOT NULL,
			source_id TEXT NOT NULL,
			target_id TEXT,
			success BOOLEAN NOT NULL DEFAULT 0,
			error TEXT,
			timestamp INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_downloads_timestamp ON downloads(timestamp);
		CREATE INDEX IF NOT EXISTS idx_downloads_run ON downloads(run_id);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add records a finished artist. A zero Timestamp is set to now.
func (s *Store) Add(ctx context.Context, e Entry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	query := `
		INSERT INTO downloads (run_id, artist, source_id, target_id, success, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		e.RunID,
		e.Artist,
		e.SourceID,
		nullable(e.TargetID),
		e.Success,
		nullable(e.Error),
		e.Timestamp.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// List returns the most recent entries, newest first.
// A limit of zero or less returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, run_id, artist, source_id, COALESCE(target_id, ''), success, COALESCE(error, ''), timestamp
		FROM downloads
		ORDER BY timestamp DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestampUnix int64

		err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.Artist,
			&e.SourceID,
			&e.TargetID,
			&e.Success,
			&e.Error,
			&timestampUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.Timestamp = time.Unix(timestampUnix, 0)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}

	return count, nil
}

// Clear removes every entry and returns how many were deleted
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM downloads")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Cleanup removes entries older than maxAge to prevent unbounded growth
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := s.db.ExecContext(ctx, "DELETE FROM downloads WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
