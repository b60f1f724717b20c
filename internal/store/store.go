// Package store persists user documents and progress records in SQLite.
// The engine itself never touches the store: callers load a record, run
// engine operations on it, and save it back under the per-user exclusivity
// contract enforced here with optimistic concurrency.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection and provides the repositories.
type Store struct {
	db *sql.DB
}

// Open creates a Store connected to the SQLite database at dsn. It applies
// recommended pragmas and creates the schema if needed.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for single-writer document workloads.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username    TEXT PRIMARY KEY,
			credentials BLOB,
			active_journey_id TEXT NOT NULL DEFAULT '',
			timezone    TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS progress (
			username   TEXT NOT NULL,
			journey_id TEXT NOT NULL,
			record_id  TEXT NOT NULL,
			state      TEXT NOT NULL,
			doc        TEXT NOT NULL,
			rev        INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (username, journey_id)
		)`,
		`CREATE TABLE IF NOT EXISTS progress_archive (
			record_id   TEXT PRIMARY KEY,
			username    TEXT NOT NULL,
			journey_id  TEXT NOT NULL,
			state       TEXT NOT NULL,
			doc         TEXT NOT NULL,
			archived_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_user ON progress_archive (username, archived_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. ODYSSEY_DB environment variable
// 2. $XDG_DATA_HOME/odyssey/odyssey.db
// 3. ~/.local/share/odyssey/odyssey.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ODYSSEY_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "odyssey", "odyssey.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
