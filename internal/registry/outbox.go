package registry

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// SQLOutbox is the persistent queue of deferred mutating requests,
// stored alongside the cache entries.
type SQLOutbox struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.Outbox = &SQLOutbox{} // Compile-time check

// NewOutbox initializes an outbox on top of an open database handle and
// creates the outbox table when missing. A nil db selects the no-op
// outbox for disabled persistence.
func NewOutbox(db *sql.DB, backend schema.DatabaseBackend) (contract.Outbox, error) {
	if backend == schema.NoneBackend || db == nil {
		return &NoneOutbox{}, nil
	}

	if err := validateTableName(outboxTable); err != nil {
		return nil, err
	}
	if _, err := db.Exec(createOutboxTableQuery(backend)); err != nil {
		return nil, fmt.Errorf("failed to create outbox table: %w", err)
	}
	return &SQLOutbox{db: db, backend: backend}, nil
}

// createOutboxTableQuery returns the CREATE TABLE query for the backend.
func createOutboxTableQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(outboxTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				task_id VARCHAR(36) PRIMARY KEY,
				method VARCHAR(16) NOT NULL,
				url TEXT NOT NULL,
				body LONGBLOB NOT NULL,
				content_type VARCHAR(255) NOT NULL,
				idempotency_key VARCHAR(64) NOT NULL,
				attempts INT NOT NULL,
				last_error TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				task_id TEXT PRIMARY KEY,
				method TEXT NOT NULL,
				url TEXT NOT NULL,
				body BYTEA NOT NULL,
				content_type TEXT NOT NULL,
				idempotency_key TEXT NOT NULL,
				attempts INTEGER NOT NULL,
				last_error TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				task_id TEXT PRIMARY KEY,
				method TEXT NOT NULL,
				url TEXT NOT NULL,
				body BLOB NOT NULL,
				content_type TEXT NOT NULL,
				idempotency_key TEXT NOT NULL,
				attempts INTEGER NOT NULL,
				last_error TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);
		`, quoted)
	}
}

// NewTaskID returns a random version 4 UUID, used for both task IDs and
// idempotency keys.
func NewTaskID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// Enqueue stores a task for later replay. Missing task IDs and
// idempotency keys are generated here so callers can enqueue a bare
// request descriptor.
func (o *SQLOutbox) Enqueue(task schema.SyncTask) error {
	if task.ID == "" {
		task.ID = NewTaskID()
	}
	if task.IdempotencyKey == "" {
		task.IdempotencyKey = NewTaskID()
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = time.Now().Unix()
	}
	if task.Body == nil {
		task.Body = []byte{}
	}

	quoted := quoteTableName(outboxTable, o.backend)
	var query string
	switch o.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (task_id, method, url, body, content_type, idempotency_key, attempts, last_error, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, quoted)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`INSERT INTO %s (task_id, method, url, body, content_type, idempotency_key, attempts, last_error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoted)
	}

	_, err := o.db.Exec(query, task.ID, task.Method, task.URL, task.Body, task.ContentType, task.IdempotencyKey, task.Attempts, task.LastError, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// ListReady returns up to limit tasks in enqueue order.
func (o *SQLOutbox) ListReady(limit int) ([]schema.SyncTask, error) {
	quoted := quoteTableName(outboxTable, o.backend)
	var query string
	switch o.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT task_id, method, url, body, content_type, idempotency_key, attempts, last_error, created_at
			FROM %s ORDER BY created_at ASC, task_id ASC LIMIT $1`, quoted)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`SELECT task_id, method, url, body, content_type, idempotency_key, attempts, last_error, created_at
			FROM %s ORDER BY created_at ASC, task_id ASC LIMIT ?`, quoted)
	}

	rows, err := o.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []schema.SyncTask
	for rows.Next() {
		var t schema.SyncTask
		if err := rows.Scan(&t.ID, &t.Method, &t.URL, &t.Body, &t.ContentType, &t.IdempotencyKey, &t.Attempts, &t.LastError, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Ack removes a completed task.
func (o *SQLOutbox) Ack(id string) error {
	quoted := quoteTableName(outboxTable, o.backend)
	var query string
	switch o.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1`, quoted)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`DELETE FROM %s WHERE task_id = ?`, quoted)
	}
	_, err := o.db.Exec(query, id)
	return err
}

// Nack records a failed replay attempt and keeps the task queued.
func (o *SQLOutbox) Nack(id string, errMsg string) error {
	quoted := quoteTableName(outboxTable, o.backend)
	var query string
	switch o.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET attempts = attempts + 1, last_error = $1 WHERE task_id = $2`, quoted)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET attempts = attempts + 1, last_error = ? WHERE task_id = ?`, quoted)
	}
	_, err := o.db.Exec(query, errMsg, id)
	return err
}

// GetStatus returns status information about the outbox.
func (o *SQLOutbox) GetStatus() (schema.OutboxStatus, error) {
	status := schema.OutboxStatus{
		Backend:   string(o.backend),
		Connected: o.db != nil,
	}
	if o.db == nil {
		return status, nil
	}

	quoted := quoteTableName(outboxTable, o.backend)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)
	if err := o.db.QueryRow(countQuery).Scan(&status.Pending); err != nil {
		return status, fmt.Errorf("failed to get pending count: %w", err)
	}
	if status.Pending == 0 {
		return status, nil
	}

	boundsQuery := fmt.Sprintf("SELECT MIN(created_at), MAX(created_at) FROM %s", quoted)
	var oldestTs, lastTs int64
	if err := o.db.QueryRow(boundsQuery).Scan(&oldestTs, &lastTs); err != nil {
		return status, fmt.Errorf("failed to get task time bounds: %w", err)
	}
	status.OldestTaskTime = time.Unix(oldestTs, 0)
	status.LastTaskTime = time.Unix(lastTs, 0)
	return status, nil
}

// Close closes the underlying DB connection.
func (o *SQLOutbox) Close() error {
	if o.db != nil {
		return o.db.Close()
	}
	return nil
}

// NoneOutbox is the no-op outbox used when persistence is disabled.
// Enqueued tasks are dropped.
type NoneOutbox struct{}

var _ contract.Outbox = &NoneOutbox{} // Compile-time check

// Enqueue implements the Outbox interface.
func (o *NoneOutbox) Enqueue(schema.SyncTask) error { return nil }

// ListReady implements the Outbox interface.
func (o *NoneOutbox) ListReady(int) ([]schema.SyncTask, error) { return nil, nil }

// Ack implements the Outbox interface.
func (o *NoneOutbox) Ack(string) error { return nil }

// Nack implements the Outbox interface.
func (o *NoneOutbox) Nack(string, string) error { return nil }

// GetStatus implements the Outbox interface.
func (o *NoneOutbox) GetStatus() (schema.OutboxStatus, error) {
	return schema.OutboxStatus{Backend: string(schema.NoneBackend), Connected: false}, nil
}

// Close implements the Outbox interface.
func (o *NoneOutbox) Close() error { return nil }
