package numerator

import (
	"context"
	"time"
)

// CounterKey identifies one sequence counter.
type CounterKey struct {
	DocumentType Kind
	DatePrefix   string
}

func (k CounterKey) String() string {
	return string(k.DocumentType) + "_" + k.DatePrefix
}

// Counter is a snapshot of a stored counter.
type Counter struct {
	DocumentType Kind      `db:"document_type" json:"documentType"`
	DatePrefix   string    `db:"date_prefix" json:"datePrefix"`
	Sequence     int64     `db:"sequence" json:"sequence"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// CounterStore persists counters. Implementations must make Increment
// atomic across processes: concurrent callers never receive the same value.
type CounterStore interface {
	// Increment bumps the counter, creating it at 1 when absent, and
	// returns the new value.
	Increment(ctx context.Context, key CounterKey) (int64, error)

	// Current returns the counter value, 0 when the counter does not exist.
	Current(ctx context.Context, key CounterKey) (int64, error)

	// Advance raises the counter to value. Lower values leave it unchanged.
	// Returns the resulting value.
	Advance(ctx context.Context, key CounterKey, value int64) (int64, error)

	// List returns stored counters, restricted to kind when it is not empty.
	List(ctx context.Context, kind Kind) ([]Counter, error)
}

// DuplicateChecker reports whether a candidate number is already used by
// some persisted document of the kind.
type DuplicateChecker interface {
	Exists(ctx context.Context, kind Kind, number string) (bool, error)
}
