// Package store handles SQLite persistence.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for typing results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			lang TEXT NOT NULL,
			mode TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			text_type TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			consistency REAL NOT NULL,
			correct_words INTEGER NOT NULL,
			incorrect_words INTEGER NOT NULL,
			characters_typed INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS result_char_stats (
			result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			char TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			latency_sum_ms INTEGER NOT NULL,
			latency_count INTEGER NOT NULL,
			PRIMARY KEY (result_id, char)
		);`,
		`CREATE TABLE IF NOT EXISTS result_mistakes (
			result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			position INTEGER NOT NULL,
			expected TEXT NOT NULL,
			actual TEXT NOT NULL,
			ts_ms INTEGER NOT NULL,
			PRIMARY KEY (result_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS result_fingers (
			result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			finger TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (result_id, finger)
		);`,
		`CREATE TABLE IF NOT EXISTS result_samples (
			result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			wpm REAL NOT NULL,
			PRIMARY KEY (result_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_ended_at ON results(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_lang ON results(lang);`,
		`CREATE INDEX IF NOT EXISTS idx_result_char_stats_char ON result_char_stats(char);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
