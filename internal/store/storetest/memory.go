// Package storetest provides in-memory store implementations for tests.
// The fakes are safe for concurrent use and support fault injection so
// the local-first persistence discipline can be exercised without real
// sqlite, mongo, or postgres backends.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/store"
)

// MemoryLocalStore is an in-memory store.LocalStore.
type MemoryLocalStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites makes Set return an error while leaving reads working,
	// simulating a full or corrupt local store.
	FailWrites bool
}

var _ store.LocalStore = (*MemoryLocalStore)(nil)

// NewMemoryLocalStore creates an empty local store fake.
func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{data: make(map[string][]byte)}
}

// Get implements store.LocalStore.
func (s *MemoryLocalStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set implements store.LocalStore.
func (s *MemoryLocalStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return store.ErrUnavailable
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Remove implements store.LocalStore.
func (s *MemoryLocalStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryLocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// MemoryRemoteStore is an in-memory store.RemoteStore. Records are
// matched against filters by exact field equality, which is all the
// engine's queries need.
type MemoryRemoteStore struct {
	mu          sync.RWMutex
	collections map[string][]store.Record

	// Unavailable makes every call fail with store.ErrUnavailable,
	// simulating lost connectivity.
	Unavailable bool

	// UpsertCount tracks write traffic so tests can assert on
	// fire-and-forget propagation.
	UpsertCount int
}

var _ store.RemoteStore = (*MemoryRemoteStore)(nil)

// NewMemoryRemoteStore creates an empty remote store fake.
func NewMemoryRemoteStore() *MemoryRemoteStore {
	return &MemoryRemoteStore{collections: make(map[string][]store.Record)}
}

func matches(record, filter store.Record) bool {
	for k, want := range filter {
		if record[k] != want {
			return false
		}
	}
	return true
}

// Query implements store.RemoteStore.
func (s *MemoryRemoteStore) Query(_ context.Context, collection string, filter store.Record) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Unavailable {
		return nil, store.ErrUnavailable
	}
	var out []store.Record
	for _, record := range s.collections[collection] {
		if matches(record, filter) {
			copied := make(store.Record, len(record))
			for k, v := range record {
				copied[k] = v
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

// Upsert implements store.RemoteStore.
func (s *MemoryRemoteStore) Upsert(_ context.Context, collection string, filter store.Record, record store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return store.ErrUnavailable
	}
	s.UpsertCount++
	records := s.collections[collection]
	for i, existing := range records {
		if matches(existing, filter) {
			records[i] = record
			return nil
		}
	}
	s.collections[collection] = append(records, record)
	return nil
}

// Remove implements store.RemoteStore.
func (s *MemoryRemoteStore) Remove(_ context.Context, collection string, filter store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return store.ErrUnavailable
	}
	records := s.collections[collection]
	kept := records[:0]
	for _, record := range records {
		if !matches(record, filter) {
			kept = append(kept, record)
		}
	}
	s.collections[collection] = kept
	return nil
}

// Count returns the number of records in a collection.
func (s *MemoryRemoteStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// StaticCatalog is a store.CatalogProvider serving fixed item lists.
type StaticCatalog struct {
	Items map[string][]domain.CatalogItem
}

var _ store.CatalogProvider = (*StaticCatalog)(nil)

// GetItems implements store.CatalogProvider.
func (c *StaticCatalog) GetItems(_ context.Context, catalogID string, limit, offset int) ([]domain.CatalogItem, error) {
	items, ok := c.Items[catalogID]
	if !ok {
		return nil, store.ErrCatalogNotFound
	}
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

// FixedClock is a store.Clock that returns a settable instant.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

var _ store.Clock = (*FixedClock)(nil)

// NewFixedClock creates a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

// Now implements store.Clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
