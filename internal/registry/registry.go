package registry

import (
	"database/sql"
	"fmt"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// SQLRegistry manages named stores inside a single SQL database.
type SQLRegistry struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.Registry = &SQLRegistry{} // Compile-time check

// NewRegistry initializes a registry on top of an open database handle
// and creates the cache tables when missing. A nil db selects the no-op
// registry for disabled caching.
func NewRegistry(db *sql.DB, backend schema.DatabaseBackend, connStr string) (contract.Registry, error) {
	if backend == schema.NoneBackend || db == nil {
		return &NoneRegistry{}, nil
	}

	for _, name := range []string{entriesTable, storesTable} {
		if err := validateTableName(name); err != nil {
			return nil, err
		}
	}

	for _, query := range createCacheTableQueries(backend) {
		if _, err := db.Exec(query); err != nil {
			return nil, fmt.Errorf("failed to create cache tables: %w", err)
		}
	}

	return &SQLRegistry{db: db, backend: backend, connStr: connStr}, nil
}

// createCacheTableQueries returns the CREATE TABLE queries for the backend.
func createCacheTableQueries(backend schema.DatabaseBackend) []string {
	quotedEntries := quoteTableName(entriesTable, backend)
	quotedStores := quoteTableName(storesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					store_name VARCHAR(128) NOT NULL,
					key_hash CHAR(64) NOT NULL,
					entry_key TEXT NOT NULL,
					snapshot LONGBLOB NOT NULL,
					created_at BIGINT NOT NULL,
					PRIMARY KEY (store_name, key_hash)
				);
			`, quotedEntries),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					store_name VARCHAR(128) PRIMARY KEY
				);
			`, quotedStores),
		}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					store_name TEXT NOT NULL,
					key_hash TEXT NOT NULL,
					entry_key TEXT NOT NULL,
					snapshot BYTEA NOT NULL,
					created_at BIGINT NOT NULL,
					PRIMARY KEY (store_name, key_hash)
				);
			`, quotedEntries),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					store_name TEXT PRIMARY KEY
				);
			`, quotedStores),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					store_name TEXT NOT NULL,
					key_hash TEXT NOT NULL,
					entry_key TEXT NOT NULL,
					snapshot BLOB NOT NULL,
					created_at INTEGER NOT NULL,
					PRIMARY KEY (store_name, key_hash)
				);
			`, quotedEntries),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					store_name TEXT PRIMARY KEY
				);
			`, quotedStores),
		}
	}
}

// Open returns the store with the given name, creating it on first use.
func (r *SQLRegistry) Open(name string) (contract.Store, error) {
	if name == "" {
		return nil, fmt.Errorf("store name cannot be empty")
	}

	quoted := quoteTableName(storesTable, r.backend)
	var query string
	switch r.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT IGNORE INTO %s (store_name) VALUES (?)`, quoted)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (store_name) VALUES ($1) ON CONFLICT (store_name) DO NOTHING`, quoted)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR IGNORE INTO %s (store_name) VALUES (?)`, quoted)
	}
	if _, err := r.db.Exec(query, name); err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", name, err)
	}

	return &sqlStore{db: r.db, name: name, backend: r.backend}, nil
}

// Delete drops a store and every entry it holds.
func (r *SQLRegistry) Delete(name string) error {
	quotedEntries := quoteTableName(entriesTable, r.backend)
	quotedStores := quoteTableName(storesTable, r.backend)

	var entriesQuery, storesQuery string
	switch r.backend {
	case schema.PostgreSQLBackend:
		entriesQuery = fmt.Sprintf(`DELETE FROM %s WHERE store_name = $1`, quotedEntries)
		storesQuery = fmt.Sprintf(`DELETE FROM %s WHERE store_name = $1`, quotedStores)
	default: // SQLite and MySQL
		entriesQuery = fmt.Sprintf(`DELETE FROM %s WHERE store_name = ?`, quotedEntries)
		storesQuery = fmt.Sprintf(`DELETE FROM %s WHERE store_name = ?`, quotedStores)
	}

	if _, err := r.db.Exec(entriesQuery, name); err != nil {
		return fmt.Errorf("failed to delete entries of store %s: %w", name, err)
	}
	if _, err := r.db.Exec(storesQuery, name); err != nil {
		return fmt.Errorf("failed to delete store %s: %w", name, err)
	}
	return nil
}

// ListNames returns the names of all known stores in sorted order.
func (r *SQLRegistry) ListNames() ([]string, error) {
	quotedEntries := quoteTableName(entriesTable, r.backend)
	quotedStores := quoteTableName(storesTable, r.backend)

	query := fmt.Sprintf(`
		SELECT store_name FROM %s
		UNION
		SELECT DISTINCT store_name FROM %s
		ORDER BY store_name
	`, quotedStores, quotedEntries)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying DB connection.
func (r *SQLRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// NoneRegistry is the no-op registry used when caching is disabled.
type NoneRegistry struct{}

var _ contract.Registry = &NoneRegistry{} // Compile-time check

// Open implements the Registry interface.
func (r *NoneRegistry) Open(name string) (contract.Store, error) {
	return &noneStore{name: name}, nil
}

// Delete implements the Registry interface.
func (r *NoneRegistry) Delete(string) error { return nil }

// ListNames implements the Registry interface.
func (r *NoneRegistry) ListNames() ([]string, error) { return nil, nil }

// GetStatus implements the Registry interface.
func (r *NoneRegistry) GetStatus() (schema.CacheStatus, error) {
	return schema.CacheStatus{Backend: string(schema.NoneBackend), Connected: false}, nil
}

// Close implements the Registry interface.
func (r *NoneRegistry) Close() error { return nil }
