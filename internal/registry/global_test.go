package registry

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/liferaft/liferaft/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitStores(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test

		err := InitStores(schema.SQLiteBackend, dbPath)
		assert.NoError(t, err, "Failed to initialize stores")

		assert.NotNil(t, Manager, "Manager should not be nil")
		assert.NotNil(t, Manager.GetRegistry(), "Registry should not be nil")
		assert.NotNil(t, Manager.GetOutbox(), "Outbox should not be nil")

		CloseStores()

		// Verify database file was created
		_, err = os.Stat(dbPath)
		assert.False(t, os.IsNotExist(err), "Database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test

		// Multiple initializations should be safe (sync.Once)
		err1 := InitStores(schema.SQLiteBackend, dbPath)
		err2 := InitStores(schema.SQLiteBackend, dbPath)
		err3 := InitStores(schema.SQLiteBackend, dbPath)

		assert.NoError(t, err1, "First init should not fail")
		assert.NoError(t, err2, "Second init should not fail")
		assert.NoError(t, err3, "Third init should not fail")

		// Multiple closes should be safe (sync.Once)
		CloseStores()
		CloseStores()
		CloseStores()
	})

	t.Run("none backend", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test

		err := InitStores(schema.NoneBackend, "")
		assert.NoError(t, err, "Failed to initialize stores with none backend")

		assert.NotNil(t, Manager.GetRegistry(), "Registry should not be nil")
		assert.NotNil(t, Manager.GetOutbox(), "Outbox should not be nil")

		CloseStores()
	})
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("stub"), 0o644))

		err := ClearCache(schema.SQLiteBackend, dbPath, "")
		assert.NoError(t, err, "ClearCache should succeed")

		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err), "Database file should be removed")
	})

	t.Run("sqlite missing file is not an error", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "missing.db")
		assert.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend is a no-op", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})
}
