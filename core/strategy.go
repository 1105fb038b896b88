package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// Commit persists the cache write a strategy decided on. Callers run it
// inline to await the write, or detach it to respond faster; a nil
// Commit means the strategy has nothing to persist.
type Commit func() error

// Strategies implements the cache-first and network-first algorithms.
// Both are total: they always produce a response, synthesizing an
// offline fallback when neither network nor cache can serve.
type Strategies struct {
	Fetcher        contract.Fetcher
	OfflineKey     string // cache key of the precached offline page
	OfflineMessage string
	APIPrefix      string
}

// CacheFirst serves from the store when possible and fetches through on
// a miss. A cached entry wins even if stale; no network call is made.
func (s *Strategies) CacheFirst(ctx context.Context, store contract.Store, desc schema.RequestDescriptor) (*schema.ResponseSnapshot, Commit) {
	snap, err := store.Match(desc.Key())
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, contract.ErrNoEntry) {
		contract.LogWarn("cache lookup failed, treating as miss", err)
	}

	fetched, err := s.Fetcher.Do(ctx, desc)
	if err != nil {
		return s.offlineFallback(store, desc), nil
	}
	if !fetched.IsSuccess() {
		// Error statuses are returned to the caller but never cached
		return fetched, nil
	}

	clone := fetched.Clone()
	key := desc.Key()
	return fetched, func() error { return store.Put(key, clone) }
}

// NetworkFirst fetches fresh and falls back to the store only when the
// network itself fails. Only successful GET responses are written back;
// mutating methods are never cached and never served from a snapshot.
func (s *Strategies) NetworkFirst(ctx context.Context, store contract.Store, desc schema.RequestDescriptor) (*schema.ResponseSnapshot, Commit) {
	fetched, err := s.Fetcher.Do(ctx, desc)
	if err == nil {
		if desc.Method == http.MethodGet && fetched.IsSuccess() {
			clone := fetched.Clone()
			key := desc.Key()
			return fetched, func() error { return store.Put(key, clone) }
		}
		return fetched, nil
	}

	if desc.Method == http.MethodGet {
		cached, matchErr := store.Match(desc.Key())
		if matchErr == nil {
			return cached, nil
		}
		if !errors.Is(matchErr, contract.ErrNoEntry) {
			contract.LogWarn("offline cache lookup failed", matchErr)
		}
	}

	if strings.HasPrefix(desc.Path, s.APIPrefix) {
		return s.apiOfflineResponse(), nil
	}
	return s.offlineFallback(store, desc), nil
}

// apiOfflineResponse synthesizes the structured JSON error returned for
// API requests that fail fully offline with no cache entry.
func (s *Strategies) apiOfflineResponse() *schema.ResponseSnapshot {
	body, _ := json.Marshal(schema.OfflineError{
		Error:   "Offline",
		Message: s.OfflineMessage,
	})
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(schema.FallbackHeader, "api")
	return &schema.ResponseSnapshot{
		Status: http.StatusServiceUnavailable,
		Header: header,
		Body:   body,
	}
}

// offlineFallback serves the precached offline page when present, else
// a bare 503. Either way the response carries the fallback marker.
func (s *Strategies) offlineFallback(store contract.Store, desc schema.RequestDescriptor) *schema.ResponseSnapshot {
	if desc.Method == http.MethodGet && s.OfflineKey != "" {
		page, err := store.Match(s.OfflineKey)
		if err == nil {
			marked := page.Clone()
			marked.Header.Set(schema.FallbackHeader, "document")
			return marked
		}
		if !errors.Is(err, contract.ErrNoEntry) {
			contract.LogWarn("offline page lookup failed", err)
		}
	}

	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set(schema.FallbackHeader, "generic")
	return &schema.ResponseSnapshot{
		Status: http.StatusServiceUnavailable,
		Header: header,
		Body:   []byte(s.OfflineMessage),
	}
}
