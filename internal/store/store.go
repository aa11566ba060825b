// Package store persists the dashboard's override blobs. Each key maps to a
// single JSON document, mirroring the browser local-storage layout the
// dashboard originally used: feeds, groups, keywords and settings are whole
// blobs read once at startup, never merged element-wise at this layer.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Well-known override keys. External collaborators (the settings and
// groups panels) write these; the loader only reads them.
const (
	KeyFeeds    = "dashboard_feeds"
	KeyGroups   = "dashboard_groups"
	KeyKeywords = "dashboard_keywords"
	KeySettings = "dashboard_settings"
)

// Store wraps a SQLite database holding the override key-value blobs.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the override store at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the raw blob for key, or nil if the key is absent.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.conn.QueryRow(
		"SELECT value FROM overrides WHERE key = ?", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores a blob under key, replacing any previous value.
func (s *Store) Put(key string, value []byte) error {
	_, err := s.conn.Exec(
		`INSERT INTO overrides (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// Delete removes an override, restoring baseline behavior for that key.
func (s *Store) Delete(key string) error {
	_, err := s.conn.Exec("DELETE FROM overrides WHERE key = ?", key)
	return err
}

// Keys returns all override keys currently present.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.conn.Query("SELECT key FROM overrides ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// migrate brings the store schema up to date. PRAGMA user_version tracks
// what has been applied.
func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= 1 {
		return nil
	}

	_, err := conn.Exec(`CREATE TABLE IF NOT EXISTS overrides (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("creating overrides table: %w", err)
	}

	if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return nil
}
