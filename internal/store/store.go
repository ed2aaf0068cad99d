// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for progress blobs and reading positions.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// LastRead is the last verse opened in a mode.
type LastRead struct {
	ModeKey   string
	VerseID   string
	UpdatedAt time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; the ledger already serializes saves.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv_blobs (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS last_read (
			mode_key TEXT PRIMARY KEY,
			verse_id TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadBlob returns the blob stored under key, or nil when there is none.
func (s *Store) LoadBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM kv_blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SaveBlob replaces the blob stored under key.
func (s *Store) SaveBlob(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_blobs (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// SaveLastRead records the verse most recently opened in a mode.
func (s *Store) SaveLastRead(ctx context.Context, modeKey, verseID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_read (mode_key, verse_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(mode_key) DO UPDATE SET verse_id = excluded.verse_id, updated_at = excluded.updated_at`,
		modeKey, verseID, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// LastRead returns the last verse opened in a mode; ok is false when none.
func (s *Store) LastRead(ctx context.Context, modeKey string) (LastRead, bool, error) {
	var (
		lr        LastRead
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT mode_key, verse_id, updated_at FROM last_read WHERE mode_key = ?`, modeKey).
		Scan(&lr.ModeKey, &lr.VerseID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return LastRead{}, false, nil
	}
	if err != nil {
		return LastRead{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return LastRead{}, false, err
	}
	lr.UpdatedAt = parsed
	return lr, true, nil
}
