// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/liferaft/liferaft/schema"
)

// ErrNoEntry is returned by Store.Match when no snapshot exists for a key.
var ErrNoEntry = errors.New("no cache entry")

// Store is one named, versioned cache store. A store holds response
// snapshots keyed by canonical request key.
type Store interface {
	// Name returns the store's name, e.g. "assets-v1".
	Name() string

	// Match returns the snapshot stored under key, or ErrNoEntry.
	Match(key string) (*schema.ResponseSnapshot, error)

	// Put stores a snapshot under key, replacing any existing entry.
	Put(key string, snap *schema.ResponseSnapshot) error

	// Evict removes the entry under key. Missing keys are not an error.
	Evict(key string) error
}

// Registry manages the collection of named stores.
// This allows the cache layer to be mocked for testing.
type Registry interface {
	// Open returns the store with the given name, creating it on first use.
	Open(name string) (Store, error)

	// Delete drops a store and every entry it holds.
	Delete(name string) error

	// ListNames returns the names of all stores that hold at least one
	// entry, plus any store explicitly created.
	ListNames() ([]string, error)

	// GetStatus returns status information about the cache database.
	GetStatus() (schema.CacheStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Fetcher performs a network fetch against the origin. A returned error
// means the network itself failed; an origin response with any status
// code, including 5xx, comes back as a snapshot with a nil error.
type Fetcher interface {
	Do(ctx context.Context, desc schema.RequestDescriptor) (*schema.ResponseSnapshot, error)
}

// Outbox is the persistent queue of deferred mutating requests.
type Outbox interface {
	// Enqueue stores a task for later replay.
	Enqueue(task schema.SyncTask) error

	// ListReady returns up to limit tasks in enqueue order.
	ListReady(limit int) ([]schema.SyncTask, error)

	// Ack removes a completed task.
	Ack(id string) error

	// Nack records a failed replay attempt and keeps the task queued.
	Nack(id string, errMsg string) error

	// GetStatus returns status information about the outbox.
	GetStatus() (schema.OutboxStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Notifier displays notifications to the user.
// This allows the notification surface to be mocked for testing.
type Notifier interface {
	// Display shows a notification and returns its identifier.
	Display(n schema.Notification) (string, error)

	// Dismiss closes a previously displayed notification.
	Dismiss(id string) error
}

// ClientClaimer controls connected clients during activation and
// notification clicks.
type ClientClaimer interface {
	// Claim takes control of all connected clients immediately.
	Claim(ctx context.Context) error

	// OpenRoot opens or focuses a client at the application root.
	OpenRoot(ctx context.Context) error
}
