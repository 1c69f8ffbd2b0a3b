package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jonwraymond/unitops/cache"
)

//go:embed schema.sql
var schemaSQL string

// Store persists cache entries in a SQLite database.
//
// Timestamps are stored with millisecond resolution; sub-millisecond
// precision is truncated on write. Data round-trips through JSON, so
// numbers come back as float64 and objects as map[string]any.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and prepares
// the entries table. Use ":memory:" for an ephemeral store.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: connect: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Find returns entries for hash created strictly after notOlderThan, newest
// first, at most limit (limit <= 0 means unlimited).
func (s *Store) Find(ctx context.Context, hash string, notOlderThan time.Time, limit int) ([]cache.Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, data, created_at FROM entries
		WHERE hash = ? AND created_at > ?
		ORDER BY created_at DESC
		LIMIT ?
	`, hash, notOlderThan.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: find: %w", err)
	}
	defer rows.Close()

	var entries []cache.Entry
	for rows.Next() {
		var (
			h       string
			dataRaw string
			created int64
		)
		if err := rows.Scan(&h, &dataRaw, &created); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan entry: %w", err)
		}

		var data any
		if err := json.Unmarshal([]byte(dataRaw), &data); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode entry data: %w", err)
		}

		entries = append(entries, cache.Entry{
			Hash:      h,
			Data:      data,
			CreatedAt: time.UnixMilli(created),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: find: %w", err)
	}

	return entries, nil
}

// Create persists data for hash, stamped with the current time.
func (s *Store) Create(ctx context.Context, hash string, data any) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode entry data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (hash, data, created_at)
		VALUES (?, ?, ?)
	`, hash, string(dataJSON), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlitestore: create: %w", err)
	}

	return nil
}

// Count returns the number of entries for hash with CreatedAt at or before
// cutoff.
func (s *Store) Count(ctx context.Context, hash string, cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entries
		WHERE hash = ? AND created_at <= ?
	`, hash, cutoff.UnixMilli()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: count: %w", err)
	}
	return n, nil
}

// DeleteOldest removes entries for hash with CreatedAt at or before cutoff,
// keeping the newest keep of them.
func (s *Store) DeleteOldest(ctx context.Context, hash string, cutoff time.Time, keep int) error {
	if keep < 0 {
		keep = 0
	}

	// LIMIT -1 OFFSET keep: skip the newest `keep` expired rows, delete the rest
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM entries
		WHERE id IN (
			SELECT id FROM entries
			WHERE hash = ? AND created_at <= ?
			ORDER BY created_at DESC
			LIMIT -1 OFFSET ?
		)
	`, hash, cutoff.UnixMilli(), keep)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete oldest: %w", err)
	}

	return nil
}

// Ensure Store implements both cache capabilities
var (
	_ cache.Store      = (*Store)(nil)
	_ cache.Maintainer = (*Store)(nil)
)
