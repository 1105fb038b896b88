package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/liferaft/liferaft/core"
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// ControlPrefix is the path prefix reserved for the control surface.
// Origin traffic never uses it.
const ControlPrefix = "/-/"

// maxRequestBody caps how much of an intercepted request body is
// buffered (4 MiB). Larger uploads pass through uncached.
const maxRequestBody = 4 << 20

// Server is the HTTP front. Every origin-bound request is classified
// and dispatched through the service bus; control endpoints drive the
// lifecycle, push and sync paths directly.
type Server struct {
	Config   *contract.Config
	Service  *core.Service
	Outbox   contract.Outbox
	Hub      *ClientHub
	upstream *httputil.ReverseProxy
}

// NewServer wires a server over an assembled service.
func NewServer(cfg *contract.Config, svc *core.Service, ob contract.Outbox, hub *ClientHub) *Server {
	return &Server{
		Config:   cfg,
		Service:  svc,
		Outbox:   ob,
		Hub:      hub,
		upstream: httputil.NewSingleHostReverseProxy(cfg.Origin),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, ControlPrefix) {
		s.serveControl(w, r)
		return
	}

	desc := s.describe(r)
	action, _ := s.Service.Router.Route(desc)

	switch action {
	case schema.IgnoreAction:
		// Untouched passthrough; the body was not consumed
		s.upstream.ServeHTTP(w, r)
	case schema.ShareTargetAction:
		s.serveShareTarget(w, r)
	default:
		s.serveFetch(w, r, desc)
	}
}

// describe canonicalizes an incoming request without consuming its
// body. The descriptor's URL points at the origin, query included.
func (s *Server) describe(r *http.Request) schema.RequestDescriptor {
	target := *s.Config.Origin
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	return schema.RequestDescriptor{
		Method:      strings.ToUpper(r.Method),
		URL:         target.String(),
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		Destination: schema.DestinationFor(r.URL.Path, r.Header),
		Header:      r.Header,
	}
}

// serveFetch buffers the body, runs the request through the bus and
// writes whatever snapshot the strategy produced. A mutating request
// that came back as an offline fallback is queued for replay.
func (s *Server) serveFetch(w http.ResponseWriter, r *http.Request, desc schema.RequestDescriptor) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	desc.Body = body

	var snap *schema.ResponseSnapshot
	evt := core.Event{
		Kind:    core.FetchEvent,
		Request: &desc,
		Respond: func(s *schema.ResponseSnapshot) { snap = s },
	}
	if err := s.Service.Bus.Dispatch(r.Context(), evt); err != nil {
		contract.LogWarn("fetch dispatch failed", err)
		http.Error(w, "interception failed", http.StatusBadGateway)
		return
	}
	if snap == nil {
		http.Error(w, "no response produced", http.StatusBadGateway)
		return
	}

	writeSnapshot(w, snap)

	if desc.IsMutating() && snap.IsFallback() {
		s.queueForReplay(desc)
	}
}

// queueForReplay stores a failed mutation in the outbox so the next
// reconnect signal can replay it.
func (s *Server) queueForReplay(desc schema.RequestDescriptor) {
	task := schema.SyncTask{
		Method:      desc.Method,
		URL:         desc.URL,
		Body:        desc.Body,
		ContentType: desc.Header.Get("Content-Type"),
	}
	if err := s.Outbox.Enqueue(task); err != nil {
		contract.LogWarn("failed to queue offline submission", err)
		return
	}
	fmt.Printf("Queued offline submission %s %s\n", desc.Method, desc.Path)
}

// serveShareTarget accepts a shared payload and redirects the client to
// the root with the received fields as query parameters. The redirect
// is a 303 so the browser re-requests with GET.
func (s *Server) serveShareTarget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRequestBody); err != nil && err != http.ErrNotMultipart {
		http.Error(w, "failed to parse shared payload", http.StatusBadRequest)
		return
	}

	q := url.Values{"action": []string{"share"}, "shared": []string{"true"}}
	for _, field := range []string{"title", "text", "url"} {
		if v := r.FormValue(field); v != "" {
			q.Set(field, v)
		}
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

// serveControl routes the operator and client control endpoints.
func (s *Server) serveControl(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case ControlPrefix + "healthz":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	case ControlPrefix + "events":
		s.Hub.ServeHTTP(w, r)
	case ControlPrefix + "push":
		s.servePush(w, r)
	case ControlPrefix + "notification-click":
		s.serveNotificationClick(w, r)
	case ControlPrefix + "sync":
		s.serveSync(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) servePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "push requires POST", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "failed to read push payload", http.StatusBadRequest)
		return
	}

	evt := core.Event{Kind: core.PushEvent, Payload: payload}
	if err := s.Service.Bus.Dispatch(r.Context(), evt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) serveNotificationClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "notification-click requires POST", http.StatusMethodNotAllowed)
		return
	}

	evt := core.Event{
		Kind:           core.NotificationClickEvent,
		NotificationID: r.FormValue("id"),
		Action:         r.FormValue("action"),
	}
	if err := s.Service.Bus.Dispatch(r.Context(), evt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "sync requires POST", http.StatusMethodNotAllowed)
		return
	}

	tag := r.FormValue("tag")
	if tag == "" {
		tag = core.SyncTag
	}
	evt := core.Event{Kind: core.SyncEvent, Tag: tag}
	if err := s.Service.Bus.Dispatch(r.Context(), evt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Lifecycle runs the install and activate phases in order, the handshake
// every deployment performs before serving traffic.
func (s *Server) Lifecycle(ctx context.Context) error {
	if err := s.Service.Bus.Dispatch(ctx, core.Event{Kind: core.InstallEvent}); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	if err := s.Service.Bus.Dispatch(ctx, core.Event{Kind: core.ActivateEvent}); err != nil {
		return fmt.Errorf("activate failed: %w", err)
	}
	return nil
}

// writeSnapshot copies a snapshot onto the wire.
func writeSnapshot(w http.ResponseWriter, snap *schema.ResponseSnapshot) {
	for name, values := range snap.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(snap.Status)
	if _, err := w.Write(snap.Body); err != nil {
		contract.LogWarn("failed to write response body", err)
	}
}
