package documents

import (
	"context"
	"time"

	appctx "salesdocs/internal/core/context"
	"salesdocs/internal/domain"
)

// EventDocumentCreated is sent once per newly created document.
const EventDocumentCreated = "document.created"

// Event is a post-commit notification.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	RequestID  string    `json:"requestId,omitempty"`
	Document   *Document `json:"document"`
}

// Notifier accepts events without blocking the caller. Delivery failures
// are the notifier's concern and never reach the creator.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifyOnCreate returns an after-create hook handing new documents to n.
func NotifyOnCreate(n Notifier) domain.Hook[*Document] {
	return func(ctx context.Context, doc *Document) error {
		n.Notify(ctx, Event{
			Type:       EventDocumentCreated,
			OccurredAt: time.Now().UTC(),
			RequestID:  appctx.GetRequestID(ctx),
			Document:   doc,
		})
		return nil
	}
}
