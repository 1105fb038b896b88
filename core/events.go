// Package core has core logic for routing, caching strategies and lifecycle.
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/liferaft/liferaft/schema"
)

// Kind identifies one event class the layer handles.
type Kind string

// All event kinds dispatched through the bus.
const (
	InstallEvent           Kind = "install"
	ActivateEvent          Kind = "activate"
	FetchEvent             Kind = "fetch"
	PushEvent              Kind = "push"
	NotificationClickEvent Kind = "notificationclick"
	SyncEvent              Kind = "sync"
)

// Event is one dispatched unit of work. Only the fields matching the
// event kind are populated.
type Event struct {
	Kind Kind

	// Fetch events
	Request *schema.RequestDescriptor
	Respond func(*schema.ResponseSnapshot)

	// Push events
	Payload []byte

	// Notification click events
	NotificationID string
	Action         string

	// Sync events
	Tag string
}

// HandlerFunc handles one event. The handler's return marks the event
// as settled; async side effects it spawned are its own business.
type HandlerFunc func(ctx context.Context, evt Event) error

// Bus is the explicit handler table mapping event kinds to handlers.
// It is constructed once at startup; registration after dispatch has
// begun is safe but unusual.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind]HandlerFunc
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind]HandlerFunc)}
}

// Register installs the handler for an event kind, replacing any
// previous handler.
func (b *Bus) Register(kind Kind, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = h
}

// Dispatch runs the handler registered for the event's kind. A kind
// with no handler is an error; events must never fail silently.
func (b *Bus) Dispatch(ctx context.Context, evt Event) error {
	b.mu.RLock()
	h, ok := b.handlers[evt.Kind]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for %s events", evt.Kind)
	}
	return h(ctx, evt)
}
