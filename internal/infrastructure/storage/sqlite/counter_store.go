// Package sqlite provides a single-host counter store backed by SQLite.
// It serves deployments without PostgreSQL, such as a branch office running
// docctl against a local file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"salesdocs/internal/core/numerator"
)

const schema = `
CREATE TABLE IF NOT EXISTS sys_sequences (
	document_type TEXT NOT NULL,
	date_prefix   TEXT NOT NULL,
	sequence      INTEGER NOT NULL CHECK (sequence >= 0),
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (document_type, date_prefix)
)`

// CounterStore implements numerator.CounterStore on SQLite.
type CounterStore struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*CounterStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer; the upsert is serialized by the connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &CounterStore{db: db}, nil
}

// Close closes the database.
func (s *CounterStore) Close() error {
	return s.db.Close()
}

const (
	incrementSQL = `
		INSERT INTO sys_sequences (document_type, date_prefix, sequence, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (document_type, date_prefix)
		DO UPDATE SET sequence = sequence + 1, updated_at = excluded.updated_at
		RETURNING sequence`

	advanceSQL = `
		INSERT INTO sys_sequences (document_type, date_prefix, sequence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (document_type, date_prefix)
		DO UPDATE SET sequence = MAX(sequence, excluded.sequence), updated_at = excluded.updated_at
		RETURNING sequence`
)

// Increment implements numerator.CounterStore.
func (s *CounterStore) Increment(ctx context.Context, key numerator.CounterKey) (int64, error) {
	now := time.Now().UTC()
	var seq int64
	err := s.db.QueryRowContext(ctx, incrementSQL, string(key.DocumentType), key.DatePrefix, now, now).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return seq, nil
}

// Current implements numerator.CounterStore.
func (s *CounterStore) Current(ctx context.Context, key numerator.CounterKey) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT sequence FROM sys_sequences WHERE document_type = ? AND date_prefix = ?`,
		string(key.DocumentType), key.DatePrefix,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	return seq, nil
}

// Advance implements numerator.CounterStore.
func (s *CounterStore) Advance(ctx context.Context, key numerator.CounterKey, value int64) (int64, error) {
	now := time.Now().UTC()
	var seq int64
	err := s.db.QueryRowContext(ctx, advanceSQL, string(key.DocumentType), key.DatePrefix, value, now, now).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq, nil
}

// List implements numerator.CounterStore.
func (s *CounterStore) List(ctx context.Context, kind numerator.Kind) ([]numerator.Counter, error) {
	query := `SELECT document_type, date_prefix, sequence, created_at, updated_at FROM sys_sequences`
	var args []any
	if kind != "" {
		query += ` WHERE document_type = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY document_type, date_prefix DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	var counters []numerator.Counter
	for rows.Next() {
		var (
			c       numerator.Counter
			docType string
		)
		if err := rows.Scan(&docType, &c.DatePrefix, &c.Sequence, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		c.DocumentType = numerator.Kind(docType)
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

var _ numerator.CounterStore = (*CounterStore)(nil)
