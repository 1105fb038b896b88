// Package cmd defines the command-line interface for liferaft.
package cmd

import (
	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lifecycleCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(outboxCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the lifecycle subcommands to the parent lifecycle command
	lifecycleCmd.AddCommand(installCmd)
	lifecycleCmd.AddCommand(activateCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Add the outbox subcommands to the parent outbox command
	outboxCmd.AddCommand(outboxStatusCmd)
	outboxCmd.AddCommand(outboxListCmd)
	outboxCmd.AddCommand(outboxDrainCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("listen", contract.DefaultListenAddr, "Address the interception proxy listens on")
	rootCmd.PersistentFlags().String("origin", contract.DefaultOrigin, "Origin server URL to front")
	rootCmd.PersistentFlags().Int("asset-version", 1, "Version number of the asset store (bump to invalidate precached assets)")
	rootCmd.PersistentFlags().Int("api-version", 1, "Version number of the API store")
	rootCmd.PersistentFlags().String("api-prefix", contract.DefaultAPIPrefix, "Path prefix routed network-first against the API store")
	rootCmd.PersistentFlags().String("share-path", contract.DefaultSharePath, "Path that accepts share-target submissions")
	rootCmd.PersistentFlags().String("dev-prefixes", "", "Comma-separated path prefixes that bypass interception (dev tooling)")
	rootCmd.PersistentFlags().String("capability-param", "action", "Query parameter whose presence bypasses interception")
	rootCmd.PersistentFlags().String("manifest", "", "Comma-separated paths precached at install time")
	rootCmd.PersistentFlags().String("offline-path", contract.DefaultOfflinePath, "Path of the precached offline page")
	rootCmd.PersistentFlags().String("offline-message", contract.DefaultOfflineMessage, "Message body for synthesized offline errors")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent precache workers")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().Bool("detach-writes", false, "Run strategy cache writes in the background instead of inline")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of outboxCmd to Viper
	outboxCmd.PersistentFlags().Int("outbox-limit", contract.DefaultOutboxLimit, "Maximum number of tasks replayed per drain")
	if err := viper.BindPFlags(outboxCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding outbox flags", err)
	}

	// Bind all flags of cacheExportCmd to Viper
	cacheExportCmd.Flags().String("output-file", "", "Path prefix for the exported Parquet files")
	if err := viper.BindPFlags(cacheExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache export flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
