package schema

import (
	"net/http"
)

// ResponseSnapshot is an immutable point-in-time capture of an HTTP
// response. Snapshots are the values stored in cache entries; the Body
// field round-trips through JSON as base64.
type ResponseSnapshot struct {
	Status     int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	CapturedAt int64       `json:"captured_at,omitempty"` // Unix seconds; zero for synthesized responses
}

// FallbackHeader marks synthesized offline responses so the caller can
// distinguish them from real origin responses.
const FallbackHeader = "X-Offline-Fallback"

// IsSuccess reports whether the snapshot carries a 2xx status. Only
// successful responses are ever written to a store.
func (s *ResponseSnapshot) IsSuccess() bool {
	return s.Status >= 200 && s.Status < 300
}

// IsFallback reports whether the snapshot was synthesized by the
// offline layer rather than captured from the origin.
func (s *ResponseSnapshot) IsFallback() bool {
	return s.Header.Get(FallbackHeader) != ""
}

// Clone returns a deep copy of the snapshot. Strategies clone before
// handing a snapshot to a detached cache write so the caller's copy
// cannot be mutated underneath it.
func (s *ResponseSnapshot) Clone() *ResponseSnapshot {
	body := make([]byte, len(s.Body))
	copy(body, s.Body)
	return &ResponseSnapshot{
		Status:     s.Status,
		Header:     s.Header.Clone(),
		Body:       body,
		CapturedAt: s.CapturedAt,
	}
}

// OfflineError is the bit-exact error body returned for API requests
// that fail fully offline with no cache entry.
type OfflineError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
