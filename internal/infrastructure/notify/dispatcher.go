// Package notify delivers post-commit document events to external systems.
// Delivery is best effort: one attempt, failures are logged and dropped.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"salesdocs/internal/domain/documents"
	"salesdocs/pkg/logger"
)

// Sender delivers one event.
type Sender interface {
	Send(ctx context.Context, event documents.Event) error
}

// DispatcherConfig sizes the delivery queue.
type DispatcherConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single delivery.
	Timeout time.Duration
}

// DefaultDispatcherConfig returns sane defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{QueueSize: 256, Workers: 2, Timeout: 5 * time.Second}
}

type job struct {
	event documents.Event
	log   *logger.Logger
}

// Dispatcher queues events and delivers them from a fixed worker pool.
// It implements documents.Notifier.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts cfg.Workers delivery goroutines.
func NewDispatcher(sender Sender, cfg DispatcherConfig, log *logger.Logger) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if log == nil {
		log = logger.Default()
	}

	d := &Dispatcher{
		sender:  sender,
		timeout: cfg.Timeout,
		log:     log.WithComponent("notify"),
		queue:   make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Notify enqueues event without blocking. A full queue drops the event.
func (d *Dispatcher) Notify(ctx context.Context, event documents.Event) {
	log := d.log.WithContext(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warnw("dispatcher closed, dropping event", "type", event.Type, "number", eventNumber(event))
		return
	}
	select {
	case d.queue <- job{event: event, log: log}:
	default:
		log.Warnw("notification queue full, dropping event", "type", event.Type, "number", eventNumber(event))
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, j.event); err != nil {
		j.log.Warnw("notification failed", "type", j.event.Type, "number", eventNumber(j.event), "error", err)
		return
	}
	j.log.Debugw("notification delivered", "type", j.event.Type, "number", eventNumber(j.event))
}

// Close stops accepting events and waits for queued ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notification queue not drained"), ctx.Err())
	}
}

func eventNumber(e documents.Event) string {
	if e.Document == nil {
		return ""
	}
	return e.Document.Number
}

var _ documents.Notifier = (*Dispatcher)(nil)
