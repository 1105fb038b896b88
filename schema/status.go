package schema

import "time"

// StoreStatus describes one named store inside the cache database.
type StoreStatus struct {
	Name            string
	Entries         int
	LastEntryTime   time.Time
	OldestEntryTime time.Time
}

// CacheStatus describes the cache database as a whole.
type CacheStatus struct {
	Backend        string
	Connected      bool
	TotalEntries   int
	Stores         []StoreStatus
	TableSizeBytes int64
}

// OutboxStatus describes the deferred-write queue.
type OutboxStatus struct {
	Backend        string
	Connected      bool
	Pending        int
	OldestTaskTime time.Time
	LastTaskTime   time.Time
}

// SyncTask is one deferred mutating request awaiting replay when
// connectivity returns. Tasks carry an idempotency key so a replay
// that raced a successful original cannot apply twice.
type SyncTask struct {
	ID             string
	Method         string
	URL            string
	Body           []byte
	ContentType    string
	IdempotencyKey string
	Attempts       int
	LastError      string
	CreatedAt      int64 // Unix seconds
}
