package proxy

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/liferaft/liferaft/internal/contract"
)

// Control event names sent over the client channel.
const (
	claimEventName = "claim"
	openEventName  = "open"
)

// ClientHub tracks connected clients over server-sent events and pushes
// control messages to them. It implements ClientClaimer: claiming
// broadcasts a claim event, opening the root broadcasts a navigation
// event.
type ClientHub struct {
	mu      sync.RWMutex
	clients map[chan sseMessage]struct{}
}

var _ contract.ClientClaimer = &ClientHub{} // Compile-time check

type sseMessage struct {
	event string
	data  string
}

// NewClientHub creates an empty hub.
func NewClientHub() *ClientHub {
	return &ClientHub{clients: make(map[chan sseMessage]struct{})}
}

// ClientCount returns the number of currently connected clients.
func (h *ClientHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Claim broadcasts the claim event so every connected client switches
// to the newly activated version without reloading.
func (h *ClientHub) Claim(_ context.Context) error {
	h.broadcast(sseMessage{event: claimEventName, data: "now"})
	return nil
}

// OpenRoot asks connected clients to navigate to the application root.
// With no clients connected there is nowhere to navigate, which is not
// an error; the next client to connect starts at the root anyway.
func (h *ClientHub) OpenRoot(_ context.Context) error {
	h.broadcast(sseMessage{event: openEventName, data: "/"})
	return nil
}

func (h *ClientHub) broadcast(msg sseMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// Slow client; drop the message rather than block the hub
		}
	}
}

func (h *ClientHub) subscribe() chan sseMessage {
	ch := make(chan sseMessage, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *ClientHub) unsubscribe(ch chan sseMessage) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// ServeHTTP streams control events to one client until it disconnects.
func (h *ClientHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.event, msg.data)
			flusher.Flush()
		}
	}
}
