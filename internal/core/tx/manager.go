// Package tx decouples domain services from the database transaction implementation.
package tx

import (
	"context"
)

// Manager runs a unit of work inside a database transaction.
// The implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction executes fn within a transaction. An error from fn
	// rolls back; nested calls reuse the transaction found in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Direct runs fn without a transaction. Used by stores that have no
// transactional work to group, and by tests.
type Direct struct{}

// RunInTransaction implements Manager.
func (Direct) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
