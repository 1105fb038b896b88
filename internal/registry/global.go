package registry

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// Global StoreManager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// StoreManager holds the process-wide registry and outbox instances.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	registry     contract.Registry
	outbox       contract.Outbox
}

// GetRegistry returns the cache store registry.
func (mgr *StoreManager) GetRegistry() contract.Registry {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.registry
}

// GetOutbox returns the deferred-write outbox.
func (mgr *StoreManager) GetOutbox() contract.Outbox {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.outbox
}

// SetForTesting swaps the managed instances. Tests only.
func (mgr *StoreManager) SetForTesting(reg contract.Registry, ob contract.Outbox) {
	mgr.Lock()
	defer mgr.Unlock()
	mgr.registry = reg
	mgr.outbox = ob
}

// InitStores initializes the global manager with a registry and outbox
// sharing one database connection.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		db, _, err := OpenDatabase(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to open cache database: %w", err)
			return
		}

		reg, err := NewRegistry(db, backend, connStr)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			initErr = fmt.Errorf("failed to initialize cache registry: %w", err)
			return
		}

		ob, err := NewOutbox(db, backend)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			initErr = fmt.Errorf("failed to initialize sync outbox: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.registry = reg
		Manager.outbox = ob
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		// Registry and outbox share one sql.DB; closing it twice is safe.
		if Manager.registry != nil {
			_ = Manager.registry.Close()
		}
		if Manager.outbox != nil {
			_ = Manager.outbox.Close()
		}
	})
}

// ClearCache clears the cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return dropTables("mysql", connStr)

	case schema.PostgreSQLBackend:
		return dropTables("pgx", connStr)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// dropTables connects to the SQL database and drops every liferaft table.
func dropTables(driverName, connStr string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range []string{entriesTable, storesTable, outboxTable} {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
