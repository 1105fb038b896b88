// Package proxy exposes the interception layer over HTTP: it fronts the
// configured origin, dispatches intercepted requests into the core bus
// and serves the small control surface used by clients and operators.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// DefaultFetchTimeout bounds a single origin fetch.
const DefaultFetchTimeout = 30 * time.Second

// maxSnapshotBody caps how much of an origin response is buffered into
// a snapshot (8 MiB).
const maxSnapshotBody = 8 << 20

// originFetcher performs real network fetches against the origin.
type originFetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher backed by a shared HTTP client. A zero
// timeout selects the default.
func NewFetcher(timeout time.Duration) contract.Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &originFetcher{client: &http.Client{Timeout: timeout}}
}

// Do executes the described request and buffers the response into a
// snapshot. Origin error statuses come back as snapshots; only a failed
// network round trip returns an error.
func (f *originFetcher) Do(ctx context.Context, desc schema.RequestDescriptor) (*schema.ResponseSnapshot, error) {
	var body io.Reader
	if len(desc.Body) > 0 {
		body = bytes.NewReader(desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, desc.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build origin request: %w", err)
	}
	for name, values := range desc.Header {
		req.Header[name] = values
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("origin fetch failed: %w", err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read origin response: %w", err)
	}

	return &schema.ResponseSnapshot{
		Status:     resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       buf,
		CapturedAt: time.Now().Unix(),
	}, nil
}
