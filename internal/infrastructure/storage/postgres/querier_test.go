package postgres

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scriptedRow scans a fixed value into the first destination.
type scriptedRow struct {
	value any
	err   error
}

func (r scriptedRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *int64:
		*d = r.value.(int64)
	case *bool:
		*d = r.value.(bool)
	default:
		return errors.New("unsupported scan destination")
	}
	return nil
}

type recordedCall struct {
	sql  string
	args []any
}

// scriptedQuerier answers QueryRow with respond and records every call.
type scriptedQuerier struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(sql string, args []any) scriptedRow
}

func (q *scriptedQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not scripted")
}

func (q *scriptedQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not scripted")
}

func (q *scriptedQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	q.calls = append(q.calls, recordedCall{sql: sql, args: args})
	q.mu.Unlock()
	return q.respond(sql, args)
}

func (q *scriptedQuerier) recorded() []recordedCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]recordedCall(nil), q.calls...)
}
