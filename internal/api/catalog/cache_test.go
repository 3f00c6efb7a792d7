package catalog

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTTLCacheFreshness(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(WithCacheClock(func() time.Time { return now }))

	doc := json.RawMessage(`{"restaurants":[]}`)
	cache.Set("restaurants:COLLECTION:12.9716:77.5946", doc)

	if _, ok := cache.Get("restaurants:COLLECTION:12.9716:77.5946", 5*time.Minute); !ok {
		t.Fatal("fresh entry missed")
	}

	// One second short of the lifetime is still fresh.
	now = now.Add(5*time.Minute - time.Second)
	if _, ok := cache.Get("restaurants:COLLECTION:12.9716:77.5946", 5*time.Minute); !ok {
		t.Error("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok := cache.Get("restaurants:COLLECTION:12.9716:77.5946", 5*time.Minute); ok {
		t.Error("entry served at exactly its lifetime")
	}

	// Expired entries are evicted, not resurrected by a longer ttl.
	if _, ok := cache.Get("restaurants:COLLECTION:12.9716:77.5946", time.Hour); ok {
		t.Error("evicted entry served again")
	}
}

func TestTTLCachePerReaderLifetimes(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(WithCacheClock(func() time.Time { return now }))

	cache.Set("menu:123:12.9716:77.5946", json.RawMessage(`{}`))
	now = now.Add(4 * time.Minute)

	if _, ok := cache.Get("menu:123:12.9716:77.5946", 3*time.Minute); ok {
		t.Error("entry older than the short lifetime served")
	}
	// The short read evicts for everyone.
	if _, ok := cache.Get("menu:123:12.9716:77.5946", 10*time.Minute); ok {
		t.Error("expected eviction by the earlier reader")
	}
}

func TestTTLCacheMiss(t *testing.T) {
	cache := NewTTLCache()
	if _, ok := cache.Get("absent", time.Minute); ok {
		t.Error("hit on an empty cache")
	}
}
