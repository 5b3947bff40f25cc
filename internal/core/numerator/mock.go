package numerator

import (
	"context"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid storage dependencies.
type MockGenerator struct {
	NextFunc    func(ctx context.Context, kind Kind, g Granularity) (string, error)
	PreviewFunc func(ctx context.Context, kind Kind, g Granularity) (string, error)
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, kind Kind, g Granularity) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, kind, g)
	}
	return FormatSequence(kind, "680816", 1), nil
}

// Preview implements Generator.
func (m *MockGenerator) Preview(ctx context.Context, kind Kind, g Granularity) (string, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, kind, g)
	}
	return FormatSequence(kind, "680816", 1), nil
}

var _ Generator = (*MockGenerator)(nil)
