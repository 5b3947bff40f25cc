package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdocs/internal/core/numerator"
)

func TestCounterStore_Increment(t *testing.T) {
	q := &scriptedQuerier{respond: func(string, []any) scriptedRow { return scriptedRow{value: int64(7)} }}
	store := NewCounterStore(q)

	seq, err := store.Increment(context.Background(), numerator.CounterKey{DocumentType: numerator.KindQuotation, DatePrefix: "680816"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)

	calls := q.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, incrementSQL, calls[0].sql)
	assert.Equal(t, []any{"QT", "680816"}, calls[0].args)
}

func TestCounterStore_CurrentMissingRowIsZero(t *testing.T) {
	q := &scriptedQuerier{respond: func(string, []any) scriptedRow { return scriptedRow{err: pgx.ErrNoRows} }}
	store := NewCounterStore(q)

	seq, err := store.Current(context.Background(), numerator.CounterKey{DocumentType: numerator.KindInvoice, DatePrefix: "6808"})
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestCounterStore_AdvanceWrapsErrors(t *testing.T) {
	boom := errors.New("connection reset")
	q := &scriptedQuerier{respond: func(string, []any) scriptedRow { return scriptedRow{err: boom} }}
	store := NewCounterStore(q)

	_, err := store.Advance(context.Background(), numerator.CounterKey{DocumentType: numerator.KindQuotation, DatePrefix: "680816"}, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []any{"QT", "680816", int64(50)}, q.recorded()[0].args)
}

func TestListQuery(t *testing.T) {
	sql, args, err := listQuery("")
	require.NoError(t, err)
	assert.Equal(t, "SELECT document_type, date_prefix, sequence, created_at, updated_at FROM sys_sequences ORDER BY document_type, date_prefix DESC", sql)
	assert.Empty(t, args)

	sql, args, err = listQuery(numerator.KindReceipt)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE document_type = $1")
	assert.Equal(t, []any{"RE"}, args)
}
