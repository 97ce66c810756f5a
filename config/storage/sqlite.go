package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLitePreferences stores preferences in a single-table SQLite database
type SQLitePreferences struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLitePreferences opens (creating if needed) the database at path
func OpenSQLitePreferences(path string) (*SQLitePreferences, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("preferences: creating DB dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("preferences: opening DB: %w", err)
	}

	store := NewSQLitePreferences(db)
	if err := store.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLitePreferences wraps an open database; call Init before use
func NewSQLitePreferences(db *sql.DB) *SQLitePreferences {
	return &SQLitePreferences{db: db, now: time.Now}
}

// Init creates the schema
func (s *SQLitePreferences) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("preferences: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLitePreferences) Get(key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("preferences: reading %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("preferences: decoding %q: %w", key, err)
	}
	return true, nil
}

func (s *SQLitePreferences) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("preferences: encoding %q: %w", key, err)
	}
	_, err = s.db.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("preferences: writing %q: %w", key, err)
	}
	return nil
}

func (s *SQLitePreferences) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("preferences: deleting %q: %w", key, err)
	}
	return nil
}

func (s *SQLitePreferences) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
