package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"salesdocs/internal/core/numerator"
)

// CounterStore keeps numbering counters in sys_sequences.
// It always runs on its own connection: a counter bump is never rolled back
// with the business transaction that uses the number.
type CounterStore struct {
	db Querier
}

// NewCounterStore creates a store over db, normally the pool.
func NewCounterStore(db Querier) *CounterStore {
	return &CounterStore{db: db}
}

const (
	incrementSQL = `
		INSERT INTO sys_sequences (document_type, date_prefix, sequence, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (document_type, date_prefix)
		DO UPDATE SET sequence = sys_sequences.sequence + 1, updated_at = NOW()
		RETURNING sequence`

	advanceSQL = `
		INSERT INTO sys_sequences (document_type, date_prefix, sequence, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (document_type, date_prefix)
		DO UPDATE SET sequence = GREATEST(sys_sequences.sequence, EXCLUDED.sequence), updated_at = NOW()
		RETURNING sequence`

	currentSQL = `SELECT sequence FROM sys_sequences WHERE document_type = $1 AND date_prefix = $2`
)

// Increment implements numerator.CounterStore with a single atomic UPSERT.
func (s *CounterStore) Increment(ctx context.Context, key numerator.CounterKey) (int64, error) {
	var seq int64
	if err := s.db.QueryRow(ctx, incrementSQL, string(key.DocumentType), key.DatePrefix).Scan(&seq); err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return seq, nil
}

// Current implements numerator.CounterStore.
func (s *CounterStore) Current(ctx context.Context, key numerator.CounterKey) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, currentSQL, string(key.DocumentType), key.DatePrefix).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	return seq, nil
}

// Advance implements numerator.CounterStore.
func (s *CounterStore) Advance(ctx context.Context, key numerator.CounterKey, value int64) (int64, error) {
	var seq int64
	if err := s.db.QueryRow(ctx, advanceSQL, string(key.DocumentType), key.DatePrefix, value).Scan(&seq); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq, nil
}

// listQuery builds the counter listing.
func listQuery(kind numerator.Kind) (string, []any, error) {
	q := Builder().
		Select("document_type", "date_prefix", "sequence", "created_at", "updated_at").
		From("sys_sequences").
		OrderBy("document_type", "date_prefix DESC")
	if kind != "" {
		q = q.Where(squirrel.Eq{"document_type": string(kind)})
	}
	return q.ToSql()
}

// List implements numerator.CounterStore.
func (s *CounterStore) List(ctx context.Context, kind numerator.Kind) ([]numerator.Counter, error) {
	sql, args, err := listQuery(kind)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var counters []numerator.Counter
	if err := pgxscan.Select(ctx, s.db, &counters, sql, args...); err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	return counters, nil
}

var _ numerator.CounterStore = (*CounterStore)(nil)
