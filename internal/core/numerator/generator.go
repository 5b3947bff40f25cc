package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salesdocs/internal/core/apperror"
	"salesdocs/pkg/logger"
)

var tracer = otel.Tracer("salesdocs/numerator")

// Generator issues document numbers.
type Generator interface {
	// Next draws a number that no persisted document of kind uses.
	Next(ctx context.Context, kind Kind, g Granularity) (string, error)

	// Preview returns the number Next would most likely issue. It consumes nothing.
	Preview(ctx context.Context, kind Kind, g Granularity) (string, error)
}

// Service is the store-backed Generator.
type Service struct {
	counters CounterStore
	checker  DuplicateChecker
	cfg      Config
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for date prefixes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. checker may be nil when no registry exists.
func NewService(counters CounterStore, checker DuplicateChecker, cfg Config, opts ...Option) *Service {
	s := &Service{
		counters: counters,
		checker:  checker,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// CounterKeyFor resolves the counter a kind draws from at the current time.
func (s *Service) CounterKeyFor(kind Kind, g Granularity) (CounterKey, error) {
	scheme, err := s.cfg.Schemes.Lookup(kind)
	if err != nil {
		return CounterKey{}, err
	}
	if g == GranularityDefault {
		g = scheme.Granularity
	}
	return CounterKey{
		DocumentType: scheme.CounterKind,
		DatePrefix:   DatePrefix(s.now().In(s.cfg.Location), g),
	}, nil
}

// Next implements Generator. Each attempt increments the counter, so numbers
// found taken are burned, never reissued. After MaxAttempts collisions it
// fails with ErrSequenceExhausted.
func (s *Service) Next(ctx context.Context, kind Kind, g Granularity) (string, error) {
	ctx, span := tracer.Start(ctx, "numerator.Next",
		trace.WithAttributes(attribute.String("document.kind", string(kind))))
	defer span.End()

	key, err := s.CounterKeyFor(kind, g)
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		seq, err := s.counters.Increment(ctx, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "increment failed")
			return "", fmt.Errorf("increment counter %s: %w", key, err)
		}

		if seq > MaxSequence {
			logger.Error(ctx, "document number sequence overflow",
				"counter", key.String(), "sequence", seq)
			span.SetStatus(codes.Error, "sequence overflow")
			return "", apperror.NewSequenceExhausted(string(kind), key.DatePrefix, attempt).
				WithCause(ErrSequenceExhausted)
		}

		candidate := FormatSequence(kind, key.DatePrefix, seq)
		taken, err := s.taken(ctx, kind, candidate)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "duplicate check failed")
			return "", err
		}
		if !taken {
			span.SetAttributes(
				attribute.String("document.number", candidate),
				attribute.Int("numerator.attempts", attempt),
			)
			return candidate, nil
		}

		logger.Debug(ctx, "document number already in use, skipping",
			"number", candidate, "attempt", attempt)
	}

	logger.Error(ctx, "document number sequence exhausted",
		"kind", kind, "date_prefix", key.DatePrefix, "attempts", s.cfg.MaxAttempts)
	span.SetStatus(codes.Error, "sequence exhausted")

	return "", apperror.NewSequenceExhausted(string(kind), key.DatePrefix, s.cfg.MaxAttempts).
		WithCause(ErrSequenceExhausted)
}

// taken applies the duplicate check policy to a registry lookup.
func (s *Service) taken(ctx context.Context, kind Kind, candidate string) (bool, error) {
	if s.checker == nil {
		return false, nil
	}
	exists, err := s.checker.Exists(ctx, kind, candidate)
	if exists || err == nil {
		return exists, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if s.cfg.Policy == FailClosed {
		return false, apperror.NewDuplicateCheckUnavailable(candidate).
			WithCause(errors.Join(ErrDuplicateCheckUnavailable, err))
	}
	logger.Warn(ctx, "duplicate check failed, issuing number unconfirmed",
		"number", candidate, "error", err)
	return false, nil
}

// Preview implements Generator.
func (s *Service) Preview(ctx context.Context, kind Kind, g Granularity) (string, error) {
	key, err := s.CounterKeyFor(kind, g)
	if err != nil {
		return "", err
	}
	current, err := s.counters.Current(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read counter %s: %w", key, err)
	}
	return FormatSequence(kind, key.DatePrefix, current+1), nil
}

// Advance raises the counter kind draws from for datePrefix to at least
// value. Used when importing documents numbered elsewhere. It never rewinds.
func (s *Service) Advance(ctx context.Context, kind Kind, datePrefix string, value int64) (int64, error) {
	scheme, err := s.cfg.Schemes.Lookup(kind)
	if err != nil {
		return 0, err
	}
	if !ValidDatePrefix(datePrefix) {
		return 0, apperror.NewValidation(fmt.Sprintf("invalid date prefix %q", datePrefix)).
			WithDetail("field", "datePrefix")
	}
	if value < 0 {
		return 0, apperror.NewValidation("value must not be negative").
			WithDetail("field", "value")
	}
	if value > MaxSequence {
		return 0, apperror.NewValidation(fmt.Sprintf("value must not exceed %d", MaxSequence)).
			WithDetail("field", "value")
	}

	key := CounterKey{DocumentType: scheme.CounterKind, DatePrefix: datePrefix}
	result, err := s.counters.Advance(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("advance counter %s: %w", key, err)
	}
	logger.Info(ctx, "counter advanced", "counter", key.String(), "requested", value, "sequence", result)
	return result, nil
}

// Stats returns stored counters, all of them when kind is empty.
func (s *Service) Stats(ctx context.Context, kind Kind) ([]Counter, error) {
	counters, err := s.counters.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	return counters, nil
}

// Report aggregates Stats into a UsageReport for the current business day.
func (s *Service) Report(ctx context.Context) (UsageReport, error) {
	counters, err := s.Stats(ctx, "")
	if err != nil {
		return UsageReport{}, err
	}
	return BuildUsageReport(counters, s.now().In(s.cfg.Location)), nil
}

var _ Generator = (*Service)(nil)
