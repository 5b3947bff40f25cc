package idempotency

import (
	"context"
	"fmt"
	"strings"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/entity"
	"salesdocs/internal/core/numerator"
	"salesdocs/pkg/logger"
)

// DefaultPersistAttempts bounds redraws after a number collision at persist time.
const DefaultPersistAttempts = 3

// Result is the outcome of CreateOnce.
type Result[T any] struct {
	Document T
	// Created is false when an existing document was returned.
	Created bool
}

// Creation describes one idempotent creation.
type Creation[T any] struct {
	Kind        numerator.Kind
	Granularity numerator.Granularity

	// ExplicitKey is the client-supplied key, looked up first and stored
	// in preference to the computed key.
	ExplicitKey string
	Fields      KeyFields

	// FindByKey looks up a persisted document by idempotency key.
	FindByKey func(ctx context.Context, key string) (T, bool, error)

	// FindByNaturalKey is an optional last lookup for kinds that have a
	// natural key (e.g. one down-payment receipt per contract).
	FindByNaturalKey func(ctx context.Context) (T, bool, error)

	// Persist stores a new document under number and key. A unique
	// violation must surface as an apperror duplicate naming the field.
	Persist func(ctx context.Context, number, key string) (T, error)
}

// Guard runs creations so that retries converge on a single document.
type Guard[T any] struct {
	numbers         numerator.Generator
	persistAttempts int
}

// NewGuard creates a Guard drawing numbers from numbers.
func NewGuard[T any](numbers numerator.Generator, persistAttempts int) *Guard[T] {
	if persistAttempts <= 0 {
		persistAttempts = DefaultPersistAttempts
	}
	return &Guard[T]{numbers: numbers, persistAttempts: persistAttempts}
}

// CreateOnce returns the existing document for the request or creates one.
// A number is drawn only when no existing document is found.
func (g *Guard[T]) CreateOnce(ctx context.Context, c Creation[T]) (Result[T], error) {
	var zero Result[T]
	if c.FindByKey == nil || c.Persist == nil {
		return zero, apperror.NewInternal(fmt.Errorf("creation of %s lacks FindByKey or Persist", c.Kind))
	}

	explicit := strings.TrimSpace(c.ExplicitKey)
	computed := ComputeKey(c.Fields)

	doc, found, err := g.findExisting(ctx, c, explicit, computed)
	if err != nil {
		return zero, err
	}
	if found {
		return Result[T]{Document: doc, Created: false}, nil
	}

	key := explicit
	if key == "" {
		key = computed
	}

	var lastErr error
	for attempt := 1; attempt <= g.persistAttempts; attempt++ {
		number, err := g.numbers.Next(ctx, c.Kind, c.Granularity)
		if err != nil {
			return zero, err
		}

		doc, err := c.Persist(ctx, number, key)
		if err == nil {
			return Result[T]{Document: doc, Created: true}, nil
		}

		field, dup := apperror.DuplicateField(err)
		if !dup {
			return zero, err
		}

		// Lost a race: whoever won wrote the same key.
		existing, found, findErr := c.FindByKey(ctx, key)
		if findErr != nil {
			return zero, fmt.Errorf("re-read %s after unique violation: %w", c.Kind, findErr)
		}
		if found {
			logger.Info(ctx, "concurrent creation converged on existing document",
				"kind", c.Kind, "idempotency_key", key)
			return Result[T]{Document: existing, Created: false}, nil
		}
		if field != entity.ColumnNumber {
			return zero, err
		}

		lastErr = err
		logger.Warn(ctx, "document number collided at persist time, drawing another",
			"kind", c.Kind, "number", number, "attempt", attempt)
	}

	return zero, apperror.NewConflict(fmt.Sprintf("could not store %s: every drawn number was already taken", c.Kind)).
		WithDetail("attempts", g.persistAttempts).
		WithCause(lastErr)
}

func (g *Guard[T]) findExisting(ctx context.Context, c Creation[T], explicit, computed string) (T, bool, error) {
	keys := make([]string, 0, 2)
	if explicit != "" {
		keys = append(keys, explicit)
	}
	if computed != explicit {
		keys = append(keys, computed)
	}

	for _, k := range keys {
		doc, found, err := c.FindByKey(ctx, k)
		if err != nil {
			return doc, false, fmt.Errorf("find %s by idempotency key: %w", c.Kind, err)
		}
		if found {
			logger.Debug(ctx, "existing document found by idempotency key", "kind", c.Kind, "idempotency_key", k)
			return doc, true, nil
		}
	}

	if c.FindByNaturalKey != nil {
		doc, found, err := c.FindByNaturalKey(ctx)
		if err != nil {
			return doc, false, fmt.Errorf("find %s by natural key: %w", c.Kind, err)
		}
		if found {
			logger.Debug(ctx, "existing document found by natural key", "kind", c.Kind)
		}
		return doc, found, nil
	}

	var zero T
	return zero, false, nil
}
