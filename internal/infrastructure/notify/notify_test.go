package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdocs/internal/core/entity"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/domain/documents"
	"salesdocs/pkg/logger"
)

func testEvent(number string) documents.Event {
	doc := &documents.Document{Document: entity.NewDocument(number, ""), Kind: numerator.KindTaxInvoice}
	return documents.Event{Type: documents.EventDocumentCreated, OccurredAt: time.Now().UTC(), RequestID: "req-1", Document: doc}
}

type recordingSender struct {
	mu     sync.Mutex
	events []documents.Event
	err    error
	block  chan struct{}
}

func (s *recordingSender) Send(_ context.Context, e documents.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, DispatcherConfig{QueueSize: 10, Workers: 2, Timeout: time.Second}, logger.Nop())

	for _, n := range []string{"TX-680816-001", "TX-680816-002", "TX-680816-003"} {
		d.Notify(context.Background(), testEvent(n))
	}
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 3, sender.count())

	// Closed dispatchers drop silently.
	d.Notify(context.Background(), testEvent("TX-680816-004"))
	assert.Equal(t, 3, sender.count())
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, DispatcherConfig{QueueSize: 1, Workers: 1, Timeout: time.Second}, logger.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Notify(context.Background(), testEvent("RE-680816-001"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(sender.block)
	require.NoError(t, d.Close(context.Background()))
	assert.LessOrEqual(t, sender.count(), 2)
	assert.GreaterOrEqual(t, sender.count(), 1)
}

func TestDispatcher_SenderFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	d := NewDispatcher(sender, DefaultDispatcherConfig(), logger.Nop())

	d.Notify(context.Background(), testEvent("INV-680816-001"))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 1, sender.count())
}

func TestWebhookSender_PostsJSON(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, documents.EventDocumentCreated, r.Header.Get("X-Event-Type"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, documents.EventDocumentCreated, body["type"])
		doc, _ := body["document"].(map[string]any)
		assert.Equal(t, "TX-680816-001", doc["number"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewWebhookSender([]string{srv.URL, srv.URL}, srv.Client())
	require.NoError(t, sender.Send(context.Background(), testEvent("TX-680816-001")))
	assert.Equal(t, int32(2), hits.Load())
}

func TestWebhookSender_ReportsEveryFailure(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	sender := NewWebhookSender([]string{bad.URL, ok.URL}, nil)
	err := sender.Send(context.Background(), testEvent("RE-680816-001"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Contains(t, err.Error(), bad.URL)
}
