// Package parquet provides data structures and functions for exporting
// cache and outbox data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
)

// CacheEntry represents one stored response snapshot.
// This struct maps to the liferaft_cache_entries database table.
type CacheEntry struct {
	// StoreName is the named store holding this entry, e.g. "assets-v1"
	StoreName string `parquet:"store_name,snappy"`

	// EntryKey is the canonical cache key (method + absolute URL)
	EntryKey string `parquet:"entry_key,snappy"`

	// Status is the HTTP status of the stored snapshot
	Status int32 `parquet:"status,snappy"`

	// ContentType is the snapshot's Content-Type header (nullable)
	ContentType *string `parquet:"content_type,optional,snappy"`

	// BodyBytes is the uncompressed body size of the snapshot
	BodyBytes int64 `parquet:"body_bytes,snappy"`

	// CreatedAt is when the entry was written (stored as TIMESTAMP)
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// OutboxTask represents one deferred mutating request awaiting replay.
// This struct maps to the liferaft_sync_outbox database table.
type OutboxTask struct {
	// TaskID is the unique identifier for this task
	TaskID string `parquet:"task_id,snappy"`

	// Method is the HTTP method of the deferred request
	Method string `parquet:"method,snappy"`

	// URL is the absolute target URL of the deferred request
	URL string `parquet:"url,snappy"`

	// ContentType is the request body's media type (nullable)
	ContentType *string `parquet:"content_type,optional,snappy"`

	// BodyBytes is the size of the buffered request body
	BodyBytes int64 `parquet:"body_bytes,snappy"`

	// IdempotencyKey guards against double application on replay
	IdempotencyKey string `parquet:"idempotency_key,snappy"`

	// Attempts is the number of failed replay attempts so far
	Attempts int32 `parquet:"attempts,snappy"`

	// LastError is the message of the last failed attempt (nullable)
	LastError *string `parquet:"last_error,optional,snappy"`

	// CreatedAt is when the task was enqueued (stored as TIMESTAMP)
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// MockFetchCacheEntries generates sample CacheEntry data for demonstration.
func MockFetchCacheEntries() []CacheEntry {
	htmlType := "text/html; charset=utf-8"
	jsonType := "application/json"
	now := time.Now().Truncate(time.Second)

	return []CacheEntry{
		{
			StoreName:   "assets-v1",
			EntryKey:    "GET http://origin.local/static/app.css",
			Status:      200,
			ContentType: nil,
			BodyBytes:   2048,
			CreatedAt:   now.Add(-2 * time.Hour),
		},
		{
			StoreName:   "assets-v1",
			EntryKey:    "GET http://origin.local/",
			Status:      200,
			ContentType: &htmlType,
			BodyBytes:   5120,
			CreatedAt:   now.Add(-time.Hour),
		},
		{
			StoreName:   "api-v1",
			EntryKey:    "GET http://origin.local/api/widgets",
			Status:      200,
			ContentType: &jsonType,
			BodyBytes:   345,
			CreatedAt:   now,
		},
	}
}

// MockFetchOutboxTasks generates sample OutboxTask data for demonstration.
func MockFetchOutboxTasks() []OutboxTask {
	jsonType := "application/json"
	lastErr := "connection refused"
	now := time.Now().Truncate(time.Second)

	return []OutboxTask{
		{
			TaskID:         "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
			Method:         "POST",
			URL:            "http://origin.local/api/widgets",
			ContentType:    &jsonType,
			BodyBytes:      87,
			IdempotencyKey: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			Attempts:       2,
			LastError:      &lastErr,
			CreatedAt:      now.Add(-30 * time.Minute),
		},
		{
			TaskID:         "9e107d9d-372b-41d2-a716-446655440000",
			Method:         "DELETE",
			URL:            "http://origin.local/api/widgets/42",
			ContentType:    nil,
			BodyBytes:      0,
			IdempotencyKey: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
			Attempts:       0,
			LastError:      nil,
			CreatedAt:      now,
		},
	}
}

// WriteCacheEntriesParquet writes a slice of CacheEntry structs to a Parquet file.
func WriteCacheEntriesParquet(data []CacheEntry, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the CacheEntry struct tags
	writer := parquet.NewGenericWriter[CacheEntry](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// WriteOutboxTasksParquet writes a slice of OutboxTask structs to a Parquet file.
func WriteOutboxTasksParquet(data []OutboxTask, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is automatically derived from the OutboxTask struct tags
	writer := parquet.NewGenericWriter[OutboxTask](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}
