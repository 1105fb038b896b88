//go:build integration

// Package integration contains integration tests for liferaft.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Or use: make test-integration
package integration

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort reserves an ephemeral port and returns it for reuse.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// startOrigin serves a small application on the given port. replayed
// counts POST requests to the API path.
func startOrigin(t *testing.T, port int, replayed *atomic.Int64) *http.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/offline.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<h1>You are offline</h1>")
	})
	mux.HandleFunc("/app.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, "body { margin: 0 }")
	})
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			replayed.Add(1)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"created":true}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[]}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<h1>Home</h1>")
	})

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()
	return srv
}

// waitForHealthy polls the proxy liveness endpoint until it responds.
func waitForHealthy(t *testing.T, proxyURL string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(proxyURL + "/-/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("proxy never became healthy")
}

// TestOfflineContinuity runs the full proxy against a real origin,
// takes the origin down, and verifies cached serving, offline errors,
// queueing, and replay after the origin returns.
func TestOfflineContinuity(t *testing.T) {
	originPort := freePort(t)
	proxyPort := freePort(t)
	proxyURL := fmt.Sprintf("http://127.0.0.1:%d", proxyPort)

	var replayed atomic.Int64
	origin := startOrigin(t, originPort, &replayed)

	binaryPath := getLiferaftBinary()
	serveCmd := exec.Command(binaryPath, "serve",
		"--origin", fmt.Sprintf("http://127.0.0.1:%d", originPort),
		"--listen", fmt.Sprintf("127.0.0.1:%d", proxyPort),
		"--manifest", "/,/offline.html,/app.css",
	)
	serveCmd.Dir = tempDir // Keep the SQLite file out of the project root
	require.NoError(t, serveCmd.Start())
	defer func() {
		_ = serveCmd.Process.Kill()
		_ = serveCmd.Wait()
	}()

	waitForHealthy(t, proxyURL)

	// Online: asset served through the proxy
	resp, err := http.Get(proxyURL + "/app.css")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "margin")

	// Take the origin down
	require.NoError(t, origin.Close())

	// Offline: asset still serves from the precached store
	resp, err = http.Get(proxyURL + "/app.css")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "margin")

	// Offline: uncached API read gets the structured offline error
	resp, err = http.Get(proxyURL + "/api/missing")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "api", resp.Header.Get("X-Offline-Fallback"))
	assert.Contains(t, string(body), `"error":"Offline"`)

	// Offline: mutation is acknowledged and queued for replay
	resp, err = http.Post(proxyURL+"/api/items", "application/json", strings.NewReader(`{"name":"raft"}`))
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Origin returns; a reconnect signal replays the queue
	origin = startOrigin(t, originPort, &replayed)
	defer func() { _ = origin.Close() }()

	resp, err = http.Post(proxyURL+"/-/sync", "application/x-www-form-urlencoded", strings.NewReader("tag=replay-outbox"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return replayed.Load() == 1
	}, 10*time.Second, 100*time.Millisecond, "queued mutation was never replayed")
}
