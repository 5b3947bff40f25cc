package documents

import (
	"context"
	"encoding/json"
	"time"

	"salesdocs/internal/core/id"
	"salesdocs/internal/core/numerator"
)

// Repository stores documents of every kind.
//
// Create must report unique violations as apperror duplicates naming the
// violated column (entity.ColumnNumber or entity.ColumnIdempotencyKey).
type Repository interface {
	Create(ctx context.Context, doc *Document) error

	// GetByNumber returns an apperror not-found error when absent.
	GetByNumber(ctx context.Context, kind numerator.Kind, number string) (*Document, error)

	FindByIdempotencyKey(ctx context.Context, kind numerator.Kind, key string) (*Document, bool, error)

	// FindByNaturalKey returns the most recently created match.
	FindByNaturalKey(ctx context.Context, kind numerator.Kind, key NaturalKey) (*Document, bool, error)

	// AddLink merges linkedKind -> linkedNumber into the links of the
	// document. Reports false when the document does not exist.
	AddLink(ctx context.Context, kind numerator.Kind, number string, linkedKind numerator.Kind, linkedNumber string) (bool, error)

	SetStatus(ctx context.Context, kind numerator.Kind, number string, status Status) error
}

// AuditRecord is one audit trail entry with its snapshot decompressed.
type AuditRecord struct {
	ID        id.ID           `json:"id"`
	Action    string          `json:"action"`
	UserID    string          `json:"userId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AuditLogger records document creation inside the creating transaction
// and reads the trail back, oldest first.
type AuditLogger interface {
	LogCreated(ctx context.Context, entityType string, entityID id.ID, snapshot any) error
	History(ctx context.Context, entityType string, entityID id.ID) ([]AuditRecord, error)
}
