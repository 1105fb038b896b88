package contract

import (
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"github.com/liferaft/liferaft/schema"
)

// Default values for configuration.
const (
	DefaultListenAddr     = ":8787"
	DefaultOrigin         = "http://localhost:8080"
	DefaultAPIPrefix      = "/api/"
	DefaultSharePath      = "/share-target/"
	DefaultOfflinePath    = "/offline.html"
	DefaultOfflineMessage = "You are offline and this content is not cached."
	DefaultOutboxLimit    = 50
	MaxOutboxLimit        = 1000
)

// DefaultWorkers is the default number of concurrent precache workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultManifest lists the resources precached at install time.
var DefaultManifest = []string{
	"/",
	"/manifest.json",
	"/static/app.css",
	"/static/app.js",
	"/offline.html",
}

// DefaultDevPrefixes lists path prefixes that bypass interception,
// matching the live-reload endpoints of common dev tooling.
var DefaultDevPrefixes = []string{"/@vite/", "/__webpack_hmr", "/sockjs-node/"}

// Config holds the runtime configuration for the daemon.
// This struct remains the "final, validated" config.
type Config struct {
	ListenAddr string
	Origin     *url.URL

	AssetVersion int
	APIVersion   int

	APIPrefix       string
	SharePath       string
	DevPrefixes     []string
	CapabilityParam string // query parameter that marks capability probes

	Manifest       []string
	OfflinePath    string
	OfflineMessage string
	Workers        int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	OutboxLimit int // max tasks replayed per sync signal

	// DetachCacheWrites makes strategy cache commits run in the
	// background instead of inline with the response.
	DetachCacheWrites bool

	UseColors bool // Enable colored labels in console output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Listen         string `mapstructure:"listen"`
	Origin         string `mapstructure:"origin"`
	AssetVersion   int    `mapstructure:"asset-version"`
	APIVersion     int    `mapstructure:"api-version"`
	APIPrefix      string `mapstructure:"api-prefix"`
	SharePath      string `mapstructure:"share-path"`
	DevPrefixes    string `mapstructure:"dev-prefixes"`
	Capability     string `mapstructure:"capability-param"`
	Manifest       string `mapstructure:"manifest"`
	OfflinePath    string `mapstructure:"offline-path"`
	OfflineMessage string `mapstructure:"offline-message"`
	Workers        int    `mapstructure:"workers"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	Color          string `mapstructure:"color"`

	// --- Fields from serveCmd.Flags() ---
	DetachWrites bool `mapstructure:"detach-writes"`

	// --- Fields from outboxCmd.Flags() ---
	OutboxLimit int `mapstructure:"outbox-limit"`
}

// StoreName builds a versioned store name like "assets-v1".
func StoreName(purpose string, version int) string {
	return fmt.Sprintf("%s-v%d", purpose, version)
}

// AssetStoreName returns the current asset store name.
func (c *Config) AssetStoreName() string {
	return StoreName("assets", c.AssetVersion)
}

// APIStoreName returns the current API store name.
func (c *Config) APIStoreName() string {
	return StoreName("api", c.APIVersion)
}

// CurrentStoreNames returns the set of store names that survive
// activation. Every other store is evicted.
func (c *Config) CurrentStoreNames() map[string]struct{} {
	return map[string]struct{}{
		c.AssetStoreName(): {},
		c.APIStoreName():   {},
	}
}

// OfflineKey returns the cache key under which the offline page is
// precached and later looked up by the document fallback.
func (c *Config) OfflineKey() string {
	return "GET " + c.AbsoluteURL(c.OfflinePath)
}

// AbsoluteURL resolves a path against the configured origin.
func (c *Config) AbsoluteURL(path string) string {
	u := *c.Origin
	u.Path = path
	u.RawQuery = ""
	return u.String()
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processOrigin(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	processManifest(cfg, input)
	return nil
}

// validateSimpleInputs processes and validates all non-origin fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.ListenAddr = input.Listen
	cfg.CapabilityParam = input.Capability
	cfg.OfflineMessage = input.OfflineMessage
	cfg.DetachCacheWrites = input.DetachWrites

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Version Validation ---
	if input.AssetVersion < 1 {
		return fmt.Errorf("asset-version must be at least 1 (received %d)", input.AssetVersion)
	}
	cfg.AssetVersion = input.AssetVersion
	if input.APIVersion < 1 {
		return fmt.Errorf("api-version must be at least 1 (received %d)", input.APIVersion)
	}
	cfg.APIVersion = input.APIVersion

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Outbox Limit Validation ---
	if input.OutboxLimit <= 0 || input.OutboxLimit > MaxOutboxLimit {
		return fmt.Errorf("outbox-limit must be greater than 0 and cannot exceed %d (received %d)", MaxOutboxLimit, input.OutboxLimit)
	}
	cfg.OutboxLimit = input.OutboxLimit

	// --- 4. Path Prefix Validation ---
	cfg.APIPrefix = input.APIPrefix
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		return fmt.Errorf("api-prefix must start with '/' (received %q)", input.APIPrefix)
	}
	cfg.SharePath = input.SharePath
	if !strings.HasPrefix(cfg.SharePath, "/") {
		return fmt.Errorf("share-path must start with '/' (received %q)", input.SharePath)
	}
	cfg.OfflinePath = input.OfflinePath
	if !strings.HasPrefix(cfg.OfflinePath, "/") {
		return fmt.Errorf("offline-path must start with '/' (received %q)", input.OfflinePath)
	}

	// --- 5. Dev Prefixes Processing ---
	cfg.DevPrefixes = DefaultDevPrefixes
	if input.DevPrefixes != "" {
		cfg.DevPrefixes = nil
		for _, p := range strings.Split(input.DevPrefixes, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cfg.DevPrefixes = append(cfg.DevPrefixes, trimmed)
			}
		}
	}

	return nil
}

// processOrigin parses and validates the origin URL.
func processOrigin(cfg *Config, input *ConfigRawInput) error {
	u, err := url.Parse(input.Origin)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", input.Origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must be an http or https URL (received %q)", input.Origin)
	}
	if u.Host == "" {
		return fmt.Errorf("origin must include a host (received %q)", input.Origin)
	}
	cfg.Origin = u
	return nil
}

// validateBackendConfigs validates the cache backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	return ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// processManifest expands the precache manifest list.
func processManifest(cfg *Config, input *ConfigRawInput) {
	cfg.Manifest = DefaultManifest
	if input.Manifest != "" {
		cfg.Manifest = nil
		for _, p := range strings.Split(input.Manifest, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cfg.Manifest = append(cfg.Manifest, trimmed)
			}
		}
	}

	// The offline page must be precached for the document fallback.
	for _, p := range cfg.Manifest {
		if p == cfg.OfflinePath {
			return
		}
	}
	cfg.Manifest = append(cfg.Manifest, cfg.OfflinePath)
}
