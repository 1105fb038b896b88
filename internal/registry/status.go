package registry

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/liferaft/liferaft/schema"
)

// GetStatus returns status information about the cache database,
// including per-store entry counts and timestamps.
func (r *SQLRegistry) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(r.backend),
		Connected: r.db != nil,
	}
	if r.db == nil {
		return status, nil
	}

	quotedEntries := quoteTableName(entriesTable, r.backend)
	quotedStores := quoteTableName(storesTable, r.backend)

	// Get total entries
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedEntries)
	if err := r.db.QueryRow(countQuery).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}

	// Per-store breakdown; a LEFT JOIN keeps empty stores visible
	storeQuery := fmt.Sprintf(`
		SELECT s.store_name, COUNT(e.key_hash), COALESCE(MAX(e.created_at), 0), COALESCE(MIN(e.created_at), 0)
		FROM %s s
		LEFT JOIN %s e ON e.store_name = s.store_name
		GROUP BY s.store_name
		ORDER BY s.store_name
	`, quotedStores, quotedEntries)

	rows, err := r.db.Query(storeQuery)
	if err != nil {
		return status, fmt.Errorf("failed to get store breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var st schema.StoreStatus
		var lastTs, oldestTs int64
		if err := rows.Scan(&st.Name, &st.Entries, &lastTs, &oldestTs); err != nil {
			return status, err
		}
		if lastTs > 0 {
			st.LastEntryTime = time.Unix(lastTs, 0)
		}
		if oldestTs > 0 {
			st.OldestEntryTime = time.Unix(oldestTs, 0)
		}
		status.Stores = append(status.Stores, st)
	}
	if err := rows.Err(); err != nil {
		return status, err
	}

	status.TableSizeBytes = r.tableSizeBytes(status.TotalEntries)
	return status, nil
}

// tableSizeBytes estimates the on-disk size of the entries table. Size
// queries are backend-specific and fall back to a rough row estimate.
func (r *SQLRegistry) tableSizeBytes(totalEntries int) int64 {
	fallback := int64(totalEntries) * 1000

	switch r.backend {
	case schema.SQLiteBackend:
		var size int64
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := r.db.QueryRow(sizeQuery).Scan(&size); err != nil {
			return 0
		}
		return size

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(r.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		var size int64
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := r.db.QueryRow(sizeQuery, cfg.DBName, entriesTable).Scan(&size); err != nil {
			return fallback
		}
		return size

	case schema.PostgreSQLBackend:
		var size int64
		sizeQuery := "SELECT pg_total_relation_size($1)"
		if err := r.db.QueryRow(sizeQuery, entriesTable).Scan(&size); err != nil {
			return fallback
		}
		return size

	default:
		return fallback
	}
}
