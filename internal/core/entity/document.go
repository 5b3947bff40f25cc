// Package entity holds the persistence shape shared by every numbered document.
package entity

import (
	"time"

	"salesdocs/internal/core/id"
)

// Unique columns reported by storage when a write collides.
const (
	ColumnNumber         = "number"
	ColumnIdempotencyKey = "idempotency_key"
)

// Document is the base of every numbered business document.
// Number and IdempotencyKey are written only by the numbering subsystem.
type Document struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable document number, unique per document table
	Number string `db:"number" json:"number"`

	// IdempotencyKey deduplicates retried creations. Nullable for imported rows.
	IdempotencyKey *string `db:"idempotency_key" json:"idempotencyKey,omitempty"`

	// Version is incremented on each update
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewDocument creates a Document with a generated ID carrying number and key.
func NewDocument(number, idempotencyKey string) Document {
	now := time.Now().UTC()
	d := Document{
		ID:        id.New(),
		Number:    number,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if idempotencyKey != "" {
		d.IdempotencyKey = &idempotencyKey
	}
	return d
}

// Key returns the idempotency key or empty string.
func (d *Document) Key() string {
	if d.IdempotencyKey == nil {
		return ""
	}
	return *d.IdempotencyKey
}

// Touch increments version and refreshes UpdatedAt.
func (d *Document) Touch() {
	d.Version++
	d.UpdatedAt = time.Now().UTC()
}
