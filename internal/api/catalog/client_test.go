package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// recordingCache captures every lookup so tests can check fingerprints
// and lifetimes without waiting on a clock.
type recordingCache struct {
	gets []struct {
		fingerprint string
		ttl         time.Duration
	}
	sets map[string]json.RawMessage
}

func newRecordingCache() *recordingCache {
	return &recordingCache{sets: make(map[string]json.RawMessage)}
}

func (c *recordingCache) Get(fingerprint string, ttl time.Duration) (json.RawMessage, bool) {
	c.gets = append(c.gets, struct {
		fingerprint string
		ttl         time.Duration
	}{fingerprint, ttl})
	doc, ok := c.sets[fingerprint]
	return doc, ok
}

func (c *recordingCache) Set(fingerprint string, doc json.RawMessage) {
	c.sets[fingerprint] = doc
}

func TestRestaurantsFingerprintAndTTL(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/restaurants" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = map[string]string{
			"lat":       r.URL.Query().Get("lat"),
			"lng":       r.URL.Query().Get("lng"),
			"page_type": r.URL.Query().Get("page_type"),
		}
		w.Write([]byte(`{"data":{"cards":[]}}`))
	}))
	defer srv.Close()

	cache := newRecordingCache()
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))

	doc, err := c.Restaurants(context.Background(), 12.9716, 77.5946, "")
	if err != nil {
		t.Fatalf("Restaurants: %v", err)
	}
	if string(doc) != `{"data":{"cards":[]}}` {
		t.Errorf("doc = %s", doc)
	}

	if gotQuery["lat"] != "12.9716" || gotQuery["lng"] != "77.5946" {
		t.Errorf("coords = %v", gotQuery)
	}
	if gotQuery["page_type"] != "COLLECTION" {
		t.Errorf("page_type = %q, want default COLLECTION", gotQuery["page_type"])
	}

	if len(cache.gets) != 1 {
		t.Fatalf("cache lookups = %d, want 1", len(cache.gets))
	}
	if want := "restaurants:COLLECTION:12.9716:77.5946"; cache.gets[0].fingerprint != want {
		t.Errorf("fingerprint = %q, want %q", cache.gets[0].fingerprint, want)
	}
	if cache.gets[0].ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", cache.gets[0].ttl)
	}
	if _, stored := cache.sets["restaurants:COLLECTION:12.9716:77.5946"]; !stored {
		t.Error("response not cached")
	}
}

func TestSearchAndMenuLifetimes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cache := newRecordingCache()
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))

	if _, err := c.Search(context.Background(), 12.9716, 77.5946, "pizza"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := c.Menu(context.Background(), 12.9716, 77.5946, "229"); err != nil {
		t.Fatalf("Menu: %v", err)
	}

	if len(cache.gets) != 2 {
		t.Fatalf("cache lookups = %d, want 2", len(cache.gets))
	}
	if want := "search:pizza:12.9716:77.5946"; cache.gets[0].fingerprint != want {
		t.Errorf("search fingerprint = %q, want %q", cache.gets[0].fingerprint, want)
	}
	if cache.gets[0].ttl != 3*time.Minute {
		t.Errorf("search ttl = %v, want 3m", cache.gets[0].ttl)
	}
	if want := "menu:229:12.9716:77.5946"; cache.gets[1].fingerprint != want {
		t.Errorf("menu fingerprint = %q, want %q", cache.gets[1].fingerprint, want)
	}
	if cache.gets[1].ttl != 10*time.Minute {
		t.Errorf("menu ttl = %v, want 10m", cache.gets[1].ttl)
	}
}

func TestFetchServesFromCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	for i := 0; i < 3; i++ {
		if _, err := c.Restaurants(context.Background(), 12.9716, 77.5946, "COLLECTION"); err != nil {
			t.Fatalf("Restaurants: %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("upstream hits = %d, want 1", hits)
	}

	// A different page type is a different fingerprint.
	if _, err := c.Restaurants(context.Background(), 12.9716, 77.5946, "NEW_RESTAURANT"); err != nil {
		t.Fatalf("Restaurants: %v", err)
	}
	if hits != 2 {
		t.Errorf("upstream hits = %d, want 2", hits)
	}
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, `{"detail":"API returned status code 503"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	for i := 0; i < 2; i++ {
		if _, err := c.Search(context.Background(), 12.9716, 77.5946, "pizza"); err == nil {
			t.Fatal("expected an error from a 500 response")
		}
	}
	if hits != 2 {
		t.Errorf("upstream hits = %d, want 2 (failures must not be cached)", hits)
	}
}

func TestFetchRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>upstream login page</html>"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Menu(context.Background(), 12.9716, 77.5946, "229"); err == nil {
		t.Fatal("expected an error for a non-JSON body")
	}
}
