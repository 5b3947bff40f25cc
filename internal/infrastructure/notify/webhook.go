package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"salesdocs/internal/domain/documents"
)

// WebhookSender POSTs events as JSON to every configured URL.
type WebhookSender struct {
	urls   []string
	client *http.Client
}

// NewWebhookSender creates a sender. A nil client uses http.DefaultClient;
// deadlines come from the delivery context.
func NewWebhookSender(urls []string, client *http.Client) *WebhookSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSender{urls: urls, client: client}
}

// Send posts event to each URL. Every URL is attempted; errors are joined.
func (s *WebhookSender) Send(ctx context.Context, event documents.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	var errs []error
	for _, url := range s.urls {
		if err := s.post(ctx, url, event, body); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}

func (s *WebhookSender) post(ctx context.Context, url string, event documents.Event, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.Type)
	if event.RequestID != "" {
		req.Header.Set("X-Request-ID", event.RequestID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

var _ Sender = (*WebhookSender)(nil)
