package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/internal/registry"
	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStrategies(fetcher contract.Fetcher) *Strategies {
	return &Strategies{
		Fetcher:        fetcher,
		OfflineKey:     "GET http://origin.local:8080/offline.html",
		OfflineMessage: "You are offline and this content is not cached.",
		APIPrefix:      "/api/",
	}
}

func snapshot(status int, body string) *schema.ResponseSnapshot {
	return &schema.ResponseSnapshot{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte(body),
	}
}

// TestCacheFirstHitSkipsNetwork tests that a pre-populated entry is
// served with zero network calls.
func TestCacheFirstHitSkipsNetwork(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/static/app.css", nil)
	cached := snapshot(200, "cached body")
	store.On("Match", desc.Key()).Return(cached, nil)

	snap, commit := s.CacheFirst(context.Background(), store, desc)
	assert.Equal(t, cached, snap, "cached entry should be returned as-is")
	assert.Nil(t, commit, "a hit has nothing to persist")
	fetcher.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

// TestCacheFirstMissWritesThrough tests the write-through on first fetch.
func TestCacheFirstMissWritesThrough(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/static/app.css", nil)
	fresh := snapshot(200, "fresh body")
	store.On("Match", desc.Key()).Return(nil, contract.ErrNoEntry)
	fetcher.On("Do", mock.Anything, desc).Return(fresh, nil)
	store.On("Put", desc.Key(), mock.Anything).Return(nil)

	snap, commit := s.CacheFirst(context.Background(), store, desc)
	assert.Equal(t, fresh, snap, "network response is returned")
	require.NotNil(t, commit, "a successful fetch must offer a cache write")
	require.NoError(t, commit(), "commit should persist the clone")
	store.AssertCalled(t, "Put", desc.Key(), mock.MatchedBy(func(s *schema.ResponseSnapshot) bool {
		return string(s.Body) == "fresh body"
	}))
}

// TestCacheFirstNeverCachesErrors tests that non-2xx responses are
// returned but not written.
func TestCacheFirstNeverCachesErrors(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/static/missing.css", nil)
	store.On("Match", desc.Key()).Return(nil, contract.ErrNoEntry)
	fetcher.On("Do", mock.Anything, desc).Return(snapshot(404, "not found"), nil)

	snap, commit := s.CacheFirst(context.Background(), store, desc)
	assert.Equal(t, 404, snap.Status, "error status is passed through")
	assert.Nil(t, commit, "error responses are never cached")
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// TestCacheFirstOfflineFallsBackToOfflinePage tests the offline page
// fallback when the network itself fails.
func TestCacheFirstOfflineFallsBackToOfflinePage(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/static/app.css", nil)
	offlinePage := snapshot(200, "<h1>Offline</h1>")
	store.On("Match", desc.Key()).Return(nil, contract.ErrNoEntry)
	fetcher.On("Do", mock.Anything, desc).Return(nil, errors.New("dial tcp: connection refused"))
	store.On("Match", s.OfflineKey).Return(offlinePage, nil)

	snap, commit := s.CacheFirst(context.Background(), store, desc)
	assert.Nil(t, commit)
	assert.Equal(t, 200, snap.Status, "precached offline page is served")
	assert.True(t, snap.IsFallback(), "fallback marker must be set")
	assert.False(t, offlinePage.IsFallback(), "the stored page itself stays unmarked")
}

// TestCacheFirstOfflineWithoutPageSynthesizes503 tests the bare 503
// when no offline page was precached.
func TestCacheFirstOfflineWithoutPageSynthesizes503(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/static/app.css", nil)
	store.On("Match", desc.Key()).Return(nil, contract.ErrNoEntry)
	fetcher.On("Do", mock.Anything, desc).Return(nil, errors.New("network down"))
	store.On("Match", s.OfflineKey).Return(nil, contract.ErrNoEntry)

	snap, _ := s.CacheFirst(context.Background(), store, desc)
	assert.Equal(t, http.StatusServiceUnavailable, snap.Status)
	assert.True(t, snap.IsFallback())
}

// TestNetworkFirstPrefersFreshness tests that a reachable network wins
// over an existing cache entry and the store is updated to match.
func TestNetworkFirstPrefersFreshness(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/api/widgets/", nil)
	fresh := snapshot(200, `[{"id":2}]`)
	fetcher.On("Do", mock.Anything, desc).Return(fresh, nil)
	store.On("Put", desc.Key(), mock.Anything).Return(nil)

	snap, commit := s.NetworkFirst(context.Background(), store, desc)
	assert.Equal(t, fresh.Body, snap.Body, "network body wins over any cached body")
	require.NotNil(t, commit)
	require.NoError(t, commit())
	store.AssertCalled(t, "Put", desc.Key(), mock.MatchedBy(func(s *schema.ResponseSnapshot) bool {
		return string(s.Body) == `[{"id":2}]`
	}))
	// Freshness means no cache read on the happy path
	store.AssertNotCalled(t, "Match", mock.Anything)
}

// TestNetworkFirstMutatingNeverCached tests that a successful mutation
// is returned but never written to the store.
func TestNetworkFirstMutatingNeverCached(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("POST", "http://origin.local:8080/api/widgets/", nil)
	created := snapshot(201, `{"id":3}`)
	fetcher.On("Do", mock.Anything, desc).Return(created, nil)

	snap, commit := s.NetworkFirst(context.Background(), store, desc)
	assert.Equal(t, 201, snap.Status)
	assert.Nil(t, commit, "mutations must not produce a cache write")
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// TestNetworkFirstOfflineServesCachedEntry tests the GET fallback to a
// previously cached snapshot.
func TestNetworkFirstOfflineServesCachedEntry(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/api/widgets/", nil)
	cached := snapshot(200, `[{"id":1}]`)
	fetcher.On("Do", mock.Anything, desc).Return(nil, errors.New("network down"))
	store.On("Match", desc.Key()).Return(cached, nil)

	snap, commit := s.NetworkFirst(context.Background(), store, desc)
	assert.Nil(t, commit)
	assert.Equal(t, cached, snap, "cached snapshot serves the offline GET")
}

// TestNetworkFirstOfflineAPIWithoutCache tests the bit-exact structured
// JSON error for API requests that fail fully offline.
func TestNetworkFirstOfflineAPIWithoutCache(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/api/widgets/", nil)
	fetcher.On("Do", mock.Anything, desc).Return(nil, errors.New("network down"))
	store.On("Match", desc.Key()).Return(nil, contract.ErrNoEntry)

	snap, commit := s.NetworkFirst(context.Background(), store, desc)
	assert.Nil(t, commit)
	assert.Equal(t, http.StatusServiceUnavailable, snap.Status, "status must be exactly 503")
	assert.Equal(t, "application/json", snap.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(snap.Body, &body), "body must be valid JSON")
	assert.Equal(t, "Offline", body["error"], `error field must be exactly "Offline"`)
	assert.NotEmpty(t, body["message"], "message must be a non-empty string")
	assert.Len(t, body, 2, "body must carry exactly the error and message fields")
}

// TestNetworkFirstOfflineMutationFallsBack tests that a failed offline
// mutation never consults the cache and gets a marked fallback.
func TestNetworkFirstOfflineMutationFallsBack(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("POST", "http://origin.local:8080/api/widgets/", nil)
	fetcher.On("Do", mock.Anything, desc).Return(nil, errors.New("network down"))

	snap, commit := s.NetworkFirst(context.Background(), store, desc)
	assert.Nil(t, commit)
	assert.Equal(t, http.StatusServiceUnavailable, snap.Status)
	assert.True(t, snap.IsFallback(), "failed offline mutation yields a marked fallback")
	store.AssertNotCalled(t, "Match", mock.Anything)
}

// TestNetworkFirstNonAPIOfflineServesOfflinePage tests the generic
// document fallback for navigations.
func TestNetworkFirstNonAPIOfflineServesOfflinePage(t *testing.T) {
	fetcher := &MockFetcher{}
	store := &registry.MockStore{}
	s := newStrategies(fetcher)

	desc := describe("GET", "http://origin.local:8080/deep/route/", nil)
	offlinePage := snapshot(200, "<h1>Offline</h1>")
	fetcher.On("Do", mock.Anything, desc).Return(nil, errors.New("network down"))
	store.On("Match", desc.Key()).Return(nil, contract.ErrNoEntry)
	store.On("Match", s.OfflineKey).Return(offlinePage, nil)

	snap, _ := s.NetworkFirst(context.Background(), store, desc)
	assert.Equal(t, 200, snap.Status, "precached offline page is served for documents")
	assert.Equal(t, offlinePage.Body, snap.Body)
	assert.True(t, snap.IsFallback())
}
