package numerator

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCounterStore is a process-local CounterStore for tests and tools.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[CounterKey]*Counter
	now      func() time.Time
}

// NewMemoryCounterStore creates an empty store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[CounterKey]*Counter),
		now:      time.Now,
	}
}

func (m *MemoryCounterStore) counter(key CounterKey) *Counter {
	c, ok := m.counters[key]
	if !ok {
		now := m.now()
		c = &Counter{DocumentType: key.DocumentType, DatePrefix: key.DatePrefix, CreatedAt: now, UpdatedAt: now}
		m.counters[key] = c
	}
	return c
}

// Increment implements CounterStore.
func (m *MemoryCounterStore) Increment(_ context.Context, key CounterKey) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.counter(key)
	c.Sequence++
	c.UpdatedAt = m.now()
	return c.Sequence, nil
}

// Current implements CounterStore.
func (m *MemoryCounterStore) Current(_ context.Context, key CounterKey) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[key]; ok {
		return c.Sequence, nil
	}
	return 0, nil
}

// Advance implements CounterStore.
func (m *MemoryCounterStore) Advance(_ context.Context, key CounterKey, value int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.counter(key)
	if value > c.Sequence {
		c.Sequence = value
		c.UpdatedAt = m.now()
	}
	return c.Sequence, nil
}

// List implements CounterStore. Order: document type, then newest bucket first.
func (m *MemoryCounterStore) List(_ context.Context, kind Kind) ([]Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Counter, 0, len(m.counters))
	for _, c := range m.counters {
		if kind != "" && c.DocumentType != kind {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentType != out[j].DocumentType {
			return out[i].DocumentType < out[j].DocumentType
		}
		return out[i].DatePrefix > out[j].DatePrefix
	})
	return out, nil
}

// MemoryRegistry is a DuplicateChecker backed by a set of numbers.
// Err, when set, is returned by every lookup.
type MemoryRegistry struct {
	mu      sync.RWMutex
	numbers map[Kind]map[string]struct{}
	Err     error
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{numbers: make(map[Kind]map[string]struct{})}
}

// Add records numbers as used by kind.
func (r *MemoryRegistry) Add(kind Kind, numbers ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.numbers[kind]
	if !ok {
		set = make(map[string]struct{})
		r.numbers[kind] = set
	}
	for _, n := range numbers {
		set[n] = struct{}{}
	}
}

// Exists implements DuplicateChecker.
func (r *MemoryRegistry) Exists(_ context.Context, kind Kind, number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return false, r.Err
	}
	_, ok := r.numbers[kind][number]
	return ok, nil
}

var (
	_ CounterStore     = (*MemoryCounterStore)(nil)
	_ DuplicateChecker = (*MemoryRegistry)(nil)
)
