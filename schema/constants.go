package schema

// Custom string types for type safety.
type (
	// Action represents the routing decision for an intercepted request.
	Action string

	// Destination represents the declared destination of a request.
	Destination string

	// DatabaseBackend represents the database backend for cache storage.
	DatabaseBackend string
)

// All routing actions supported. Every intercepted request maps to
// exactly one of these.
const (
	IgnoreAction       Action = "ignore"
	ShareTargetAction  Action = "share-target"
	CacheFirstAction   Action = "cache-first"
	NetworkFirstAction Action = "network-first"
)

// All request destinations recognized by the router.
const (
	DocumentDestination Destination = "document"
	ImageDestination    Destination = "image"
	StyleDestination    Destination = "style"
	ScriptDestination   Destination = "script"
	FontDestination     Destination = "font"
	UnknownDestination  Destination = ""
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// AssetDestinations lists the destinations that prefer the cache for
// latency. Everything else defaults to freshness.
var AssetDestinations = map[Destination]struct{}{
	ImageDestination:  {},
	StyleDestination:  {},
	ScriptDestination: {},
	FontDestination:   {},
}

// IsAsset reports whether the destination is a static asset kind.
func (d Destination) IsAsset() bool {
	_, ok := AssetDestinations[d]
	return ok
}
