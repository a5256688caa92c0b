// Package cache provides a single generic TTL cache used wherever the
// engine needs in-memory caching with expiry, replacing the scattered
// per-service caches the system grew historically.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe map from K to V where entries expire after
// a fixed TTL. Expired entries are dropped lazily on access and swept
// opportunistically on writes.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[K]entry[V]
	now   func() time.Time
}

// New creates a cache whose entries live for ttl. A ttl of zero means
// entries never expire.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:   ttl,
		items: make(map[K]entry[V]),
		now:   time.Now,
	}
}

// NewWithClock creates a cache using the given time source. Used in tests.
func NewWithClock[K comparable, V any](ttl time.Duration, now func() time.Time) *Cache[K, V] {
	c := New[K, V](ttl)
	c.now = now
	return c
}

// Get returns the live value for key, if any.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}

	// Sweep a handful of expired entries so an idle cache does not pin
	// memory for dead keys indefinitely.
	swept := 0
	for k, e := range c.items {
		if swept >= 8 {
			break
		}
		if c.expired(e) {
			delete(c.items, k)
		}
		swept++
	}
}

// Delete removes key from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Range calls fn for every live entry. fn must not call back into the
// cache. Iteration stops when fn returns false.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.items {
		if c.expired(e) {
			delete(c.items, k)
			continue
		}
		if !fn(k, e.value) {
			return
		}
	}
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if c.expired(e) {
			delete(c.items, k)
			continue
		}
		n++
	}
	return n
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}
