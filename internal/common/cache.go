package common

import (
	"sync"
	"time"
)

// CacheEntry is a cached value with the time it was fetched
type CacheEntry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// TTLCache is a process-lifetime map whose entries expire on read.
// Concurrent writers for the same key race benignly: the last write wins.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]CacheEntry[V]
	now     func() time.Time
}

// NewTTLCache creates a cache whose entries are fresh for ttl
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		entries: make(map[string]CacheEntry[V]),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for freshness checks
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.now = now
	return c
}

// TTL returns the freshness window
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key if present and fresh
func (c *TTLCache[V]) Get(key string) (V, bool) {
	entry, ok := c.Entry(key)
	if !ok || !IsFreshAt(entry.FetchedAt, c.ttl, c.now()) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Entry returns the entry for key regardless of freshness
func (c *TTLCache[V]) Entry(key string) (CacheEntry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Set stores value for key as fetched now
func (c *TTLCache[V]) Set(key string, value V) {
	c.SetAt(key, value, c.now())
}

// SetAt stores value for key with an explicit fetch time
func (c *TTLCache[V]) SetAt(key string, value V, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CacheEntry[V]{Value: value, FetchedAt: fetchedAt}
}

// Delete removes key
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, fresh or not
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
