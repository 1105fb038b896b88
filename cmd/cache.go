package cmd

import (
	"fmt"
	"os"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/internal/registry"
	"github.com/liferaft/liferaft/internal/render"
	"github.com/liferaft/liferaft/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize the registry and outbox with the loaded config
	if err := registry.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cfg.AssetVersion = viper.GetInt("asset-version")
	cfg.APIVersion = viper.GetInt("api-version")

	colors, err := contract.ParseBoolString(viper.GetString("color"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func cacheMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheMigrateSetupWrapper wraps cacheMigrateSetup to provide PreRunE for migrate command.
func cacheMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheMigrateSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the serve command. This avoids origin URL
// validation and manifest processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response snapshot cache",
	Long: `Manage the response snapshot cache that keeps the application
usable offline.

The cache holds named, versioned stores ("assets-v1", "api-v1") of
captured origin responses. Stores from previous versions are evicted
at activation; these commands inspect and maintain the database
directly.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show per-store entry counts and connection info
  clear   - Remove all cached data
  export  - Export cache and outbox data to Parquet
  migrate - Run database schema migrations

Examples:
  # Check cache status
  liferaft cache status

  # Clear cache after an incompatible origin change
  liferaft cache clear`,
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display per-store statistics and connection details",
	Long: `Show detailed information about the snapshot cache.

Displays:
- Backend type and connection status
- Entry count, newest and oldest entry per store
- Health label per store (Current or Stale) against the configured versions
- Approximate cache size on disk

Examples:
  # Check cache status
  liferaft cache status

  # Check against a planned version bump
  liferaft cache status --asset-version 2`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := registry.Manager.GetRegistry().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		if err := render.PrintCacheStatus(os.Stdout, status, cfg.CurrentStoreNames(), cfg.UseColors); err != nil {
			contract.LogFatal("Failed to print cache status", err)
		}
	},
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached snapshots and queued submissions",
	Long: `Delete all cached data from the configured backend.

Use this when:
- The origin's content changed incompatibly
- Cache may be stale or corrupted
- Testing cold-start behavior

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache tables

Examples:
  # Clear SQLite cache (default)
  liferaft cache clear

  # Clear MySQL cache (set connection string via env variable)
  LIFERAFT_CACHE_BACKEND=mysql LIFERAFT_CACHE_DB_CONNECT="..." liferaft cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := registry.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheExportCmd exports cache and outbox data to Parquet files.
var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached data to Parquet for analytics",
	Long: `Export cache entries and queued submissions to Parquet format.

Exports two datasets:
- Cache entries - store, key, status and size per snapshot
- Outbox tasks  - queued submissions with attempt history

Parquet format enables:
- Fast querying with DuckDB, Apache Spark, pandas
- Efficient storage with columnar compression
- Direct import into BI tools

Requires: --output-file parameter

Examples:
  # Export all data
  liferaft cache export --output-file liferaft-data

  # Inspect with DuckDB
  duckdb -c "SELECT * FROM read_parquet('liferaft-data.cache_entries.parquet') LIMIT 10"`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := registry.ExecuteCacheExport(viper.GetString("output-file")); err != nil {
			contract.LogFatal("Failed to export cache data", err)
		}
	},
}

// cacheMigrateCmd runs database migrations for the cache database.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the cache database.

Migrations allow:
- Upgrading to new schema versions when Liferaft is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  liferaft cache migrate

  # Rollback everything
  liferaft cache migrate --target-version 0`,
	PreRunE: cacheMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := registry.MigrateCache(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
