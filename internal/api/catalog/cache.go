package catalog

import (
	"encoding/json"
	"sync"
	"time"
)

// Cache stores raw catalog documents keyed by request fingerprint. Get
// reports a hit only when the entry is younger than ttl; freshness is
// the reader's concern so one store can serve operations with different
// lifetimes.
type Cache interface {
	Get(fingerprint string, ttl time.Duration) (json.RawMessage, bool)
	Set(fingerprint string, doc json.RawMessage)
}

// TTLCache is the default in-memory Cache.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	storedAt time.Time
	doc      json.RawMessage
}

// CacheOption configures a TTLCache.
type CacheOption func(*TTLCache)

// WithCacheClock overrides the cache's time source.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *TTLCache) {
		c.now = now
	}
}

// NewTTLCache returns an empty cache.
func NewTTLCache(opts ...CacheOption) *TTLCache {
	c := &TTLCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached document when present and fresh. Stale entries
// are evicted on the way out.
func (c *TTLCache) Get(fingerprint string, ttl time.Duration) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= ttl {
		delete(c.entries, fingerprint)
		return nil, false
	}
	return entry.doc, true
}

// Set stores a document stamped with the current time.
func (c *TTLCache) Set(fingerprint string, doc json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = cacheEntry{storedAt: c.now(), doc: doc}
}
