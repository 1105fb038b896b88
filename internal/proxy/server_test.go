package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/liferaft/liferaft/core"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/internal/registry"
	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *Server
	origin   *httptest.Server
	outbox   *registry.MockOutbox
	notifier *core.MockNotifier
}

func newTestEnv(t *testing.T, originHandler http.Handler) *testEnv {
	t.Helper()

	origin := httptest.NewServer(originHandler)
	t.Cleanup(origin.Close)

	originURL, err := url.Parse(origin.URL)
	require.NoError(t, err)

	cfg := &contract.Config{
		ListenAddr:      ":0",
		Origin:          originURL,
		AssetVersion:    1,
		APIVersion:      1,
		APIPrefix:       "/api/",
		SharePath:       "/share-target/",
		DevPrefixes:     []string{"/@vite/"},
		CapabilityParam: "action",
		Manifest:        []string{"/offline.html"},
		OfflinePath:     "/offline.html",
		OfflineMessage:  contract.DefaultOfflineMessage,
		Workers:         2,
		OutboxLimit:     50,
	}

	db, _, err := registry.OpenDatabase(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	reg, err := registry.NewRegistry(db, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	outbox := &registry.MockOutbox{}
	notifier := &core.MockNotifier{}
	hub := NewClientHub()

	svc := core.NewService(cfg, reg, outbox, NewFetcher(0), notifier, hub)
	return &testEnv{
		server:   NewServer(cfg, svc, outbox, hub),
		origin:   origin,
		outbox:   outbox,
		notifier: notifier,
	}
}

func originStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		case r.URL.Path == "/offline.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<h1>Offline</h1>"))
		default:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("origin:" + r.URL.Path))
		}
	})
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestServerPassthrough(t *testing.T) {
	env := newTestEnv(t, originStub())

	rec := env.do(httptest.NewRequest("GET", "/@vite/client", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "origin:/@vite/client", rec.Body.String())
	assert.Empty(t, rec.Header().Get(schema.FallbackHeader))
}

// TestServerCacheFirstSurvivesOriginOutage tests the central promise:
// an asset served once keeps serving after the origin disappears.
func TestServerCacheFirstSurvivesOriginOutage(t *testing.T) {
	env := newTestEnv(t, originStub())

	first := env.do(httptest.NewRequest("GET", "/static/app.css", nil))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "origin:/static/app.css", first.Body.String())

	env.origin.Close()

	second := env.do(httptest.NewRequest("GET", "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, second.Code, "cached asset must survive the outage")
	assert.Equal(t, "origin:/static/app.css", second.Body.String())
	assert.Empty(t, second.Header().Get(schema.FallbackHeader), "a cache hit is not a fallback")
}

func TestServerShareTargetRedirect(t *testing.T) {
	env := newTestEnv(t, originStub())

	form := url.Values{"title": []string{"Found this"}, "url": []string{"https://example.com"}}
	req := httptest.NewRequest("POST", "/share-target/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code, "share submissions redirect with 303")

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	assert.Equal(t, "share", loc.Query().Get("action"))
	assert.Equal(t, "true", loc.Query().Get("shared"))
	assert.Equal(t, "Found this", loc.Query().Get("title"))
	assert.Equal(t, "https://example.com", loc.Query().Get("url"))
}

func TestServerOfflineAPIRequest(t *testing.T) {
	env := newTestEnv(t, originStub())
	env.origin.Close()

	rec := env.do(httptest.NewRequest("GET", "/api/widgets/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body schema.OfflineError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Offline", body.Error)
	assert.NotEmpty(t, body.Message)
}

// TestServerQueuesOfflineMutation tests that a mutation failing offline
// lands in the outbox for later replay.
func TestServerQueuesOfflineMutation(t *testing.T) {
	env := newTestEnv(t, originStub())
	env.origin.Close()

	env.outbox.On("Enqueue", mock.MatchedBy(func(task schema.SyncTask) bool {
		return task.Method == "POST" &&
			strings.HasSuffix(task.URL, "/api/widgets/") &&
			string(task.Body) == `{"name":"widget"}` &&
			task.ContentType == "application/json"
	})).Return(nil)

	req := httptest.NewRequest("POST", "/api/widgets/", strings.NewReader(`{"name":"widget"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(schema.FallbackHeader))
	env.outbox.AssertExpectations(t)
}

// TestServerSuccessfulMutationNotQueued tests that online mutations
// pass straight through without touching the outbox.
func TestServerSuccessfulMutationNotQueued(t *testing.T) {
	env := newTestEnv(t, originStub())

	req := httptest.NewRequest("POST", "/api/widgets/", strings.NewReader(`{}`))
	rec := env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	env.outbox.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestServerLifecycle(t *testing.T) {
	env := newTestEnv(t, originStub())

	require.NoError(t, env.server.Lifecycle(context.Background()))

	// The offline page precached at install keeps navigations alive
	env.origin.Close()
	rec := env.do(httptest.NewRequest("GET", "/deep/route/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>Offline</h1>", rec.Body.String())
	assert.Equal(t, "document", rec.Header().Get(schema.FallbackHeader))
}

func TestServerHealthz(t *testing.T) {
	env := newTestEnv(t, originStub())

	rec := env.do(httptest.NewRequest("GET", "/-/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestServerPushEndpoint(t *testing.T) {
	env := newTestEnv(t, originStub())
	env.notifier.On("Display", mock.MatchedBy(func(n schema.Notification) bool {
		return n.Title == "Deploy done"
	})).Return("notif-1", nil)

	req := httptest.NewRequest("POST", "/-/push", strings.NewReader(`{"title":"Deploy done"}`))
	rec := env.do(req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	env.notifier.AssertExpectations(t)
}

func TestServerPushRequiresPost(t *testing.T) {
	env := newTestEnv(t, originStub())

	rec := env.do(httptest.NewRequest("GET", "/-/push", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerSyncRejectsUnknownTag(t *testing.T) {
	env := newTestEnv(t, originStub())

	req := httptest.NewRequest("POST", "/-/sync", strings.NewReader("tag=mystery"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerSyncDrainsOutbox(t *testing.T) {
	env := newTestEnv(t, originStub())
	env.outbox.On("ListReady", 50).Return([]schema.SyncTask{}, nil)

	rec := env.do(httptest.NewRequest("POST", "/-/sync", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	env.outbox.AssertCalled(t, "ListReady", 50)
}

func TestServerControlUnknownPath(t *testing.T) {
	env := newTestEnv(t, originStub())

	rec := env.do(httptest.NewRequest("GET", "/-/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
