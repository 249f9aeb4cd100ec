// Package kvstore provides the host-provided key/value store capability
// the search indexer persists hit counts into, and that the reference
// local-file datasource backend uses for its attachment details index
// (SPEC_FULL.md DOMAIN STACK). Backed by modernc.org/sqlite, the pure-Go
// sqlite driver the rest of this module's storage layer standardizes on.
package kvstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a flat string-keyed, string-valued table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite-backed store at path. Pass
// ":memory:" for an ephemeral store, as tests do.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: failed to open %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, and false if no such key exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value stored under key.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("kvstore: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key, if present. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}
