// Package audit persists a history of exec_command invocations for
// post-hoc diagnostics, grounded on the teacher's auth.Store
// migrate-then-exec pattern over modernc.org/sqlite.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles exec-history persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) the sqlite database at path
// and runs its migration.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate audit database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exec_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		command TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		process_died INTEGER NOT NULL DEFAULT 0,
		timed_out INTEGER NOT NULL DEFAULT 0,
		truncated INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_exec_history_session ON exec_history(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one exec_command outcome.
func (s *Store) Record(sessionID, command string, exitCode int, processDied, timedOut, truncated bool) error {
	_, err := s.db.Exec(
		`INSERT INTO exec_history (session_id, command, exit_code, process_died, timed_out, truncated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, command, exitCode, boolToInt(processDied), boolToInt(timedOut), boolToInt(truncated), time.Now(),
	)
	return err
}

// RecentForSession returns the most recent n exec_history rows for a
// session, newest first.
func (s *Store) RecentForSession(sessionID string, n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT command, exit_code, process_died, timed_out, truncated, created_at
		 FROM exec_history WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var processDied, timedOut, truncated int
		if err := rows.Scan(&e.Command, &e.ExitCode, &processDied, &timedOut, &truncated, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ProcessDied = processDied != 0
		e.TimedOut = timedOut != 0
		e.Truncated = truncated != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Entry is one exec_history row.
type Entry struct {
	Command     string
	ExitCode    int
	ProcessDied bool
	TimedOut    bool
	Truncated   bool
	CreatedAt   time.Time
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
