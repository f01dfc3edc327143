// Package cache provides an in-memory freshness cache for GitHub API responses.
// Entries live for the lifetime of the process.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/log"
)

// Cacher defines the interface for caching operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Generation() uint64
	SetIfGeneration(key string, value any, gen uint64) bool
	Invalidate(match func(key string) bool) int
	InvalidatePrefix(prefix string) int
	InvalidateOne(key string) bool
	Clear()
	Stats() Stats
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// entry is a cached value and the time it was stored.
type entry struct {
	value    any
	storedAt time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	Total int
	Valid int
	TTL   time.Duration
}

// Cache is a TTL cache keyed by string. Expired entries are never returned
// but are only removed when overwritten, invalidated or cleared.
//
// Every invalidation or clear advances a generation counter, whether or not
// it removed anything. A reader that captured the generation before a
// fetch can store the result with SetIfGeneration so a response that was
// already in flight during a write is never cached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     Clock
	gen     uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the clock used for storedAt and freshness checks.
func WithClock(now Clock) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries stay fresh for ttl.
// A non-positive ttl uses constants.DefaultCacheTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key if it is still fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		log.Trace("cache miss", "key", key)
		return nil, false
	}
	if !c.fresh(e) {
		log.Trace("cache expired", "key", key, "stored_at", e.storedAt)
		return nil, false
	}
	log.Trace("cache hit", "key", key)
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Generation returns the invalidation counter.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores value under key only if no invalidation happened
// since gen was read. It reports whether the value was stored.
func (c *Cache) SetIfGeneration(key string, value any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		log.Debug("cache write skipped after invalidation", "key", key)
		return false
	}
	c.entries[key] = entry{value: value, storedAt: c.now()}
	return true
}

// Invalidate removes every entry whose key satisfies match and returns the
// number of entries removed.
func (c *Cache) Invalidate(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	removed := 0
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		log.Debug("cache invalidated", "removed", removed)
	}
	return removed
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (c *Cache) InvalidatePrefix(prefix string) int {
	return c.Invalidate(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// InvalidateOne removes exactly the entry stored under key.
func (c *Cache) InvalidateOne(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	log.Debug("cache invalidated", "key", key)
	return true
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]entry)
}

// Stats returns the number of stored and still-fresh entries.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Total: len(c.entries), TTL: c.ttl}
	for _, e := range c.entries {
		if c.fresh(e) {
			s.Valid++
		}
	}
	return s
}

// fresh must be called with mu held.
func (c *Cache) fresh(e entry) bool {
	return c.now().Sub(e.storedAt) < c.ttl
}

// GetAs returns the fresh value stored under key if it has type T.
func GetAs[T any](c Cacher, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
