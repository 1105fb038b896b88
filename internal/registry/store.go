package registry

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/liferaft/liferaft/internal/contract"
	"github.com/liferaft/liferaft/schema"
)

// sqlStore is one named store backed by a shared SQL table. All stores
// of a registry share the entries table; rows are partitioned by
// store_name.
type sqlStore struct {
	db      *sql.DB
	name    string
	backend schema.DatabaseBackend
}

var _ contract.Store = &sqlStore{} // Compile-time check

// hashKey returns the fixed-width primary key component for an entry
// key. Raw keys are full URLs and can exceed index length limits.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Name returns the store's name.
func (s *sqlStore) Name() string {
	return s.name
}

// Match returns the snapshot stored under key, or contract.ErrNoEntry.
func (s *sqlStore) Match(key string) (*schema.ResponseSnapshot, error) {
	quoted := quoteTableName(entriesTable, s.backend)

	var query string
	switch s.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT snapshot FROM %s WHERE store_name = $1 AND key_hash = $2`, quoted)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`SELECT snapshot FROM %s WHERE store_name = ? AND key_hash = ?`, quoted)
	}

	var blob []byte
	row := s.db.QueryRow(query, s.name, hashKey(key))
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contract.ErrNoEntry
		}
		return nil, err
	}
	return decodeSnapshot(blob)
}

// Put stores a snapshot under key, replacing any existing entry.
func (s *sqlStore) Put(key string, snap *schema.ResponseSnapshot) error {
	blob, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	quoted := quoteTableName(entriesTable, s.backend)
	now := time.Now().Unix()

	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (store_name, key_hash, entry_key, snapshot, created_at) VALUES (?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE entry_key = new.entry_key, snapshot = new.snapshot, created_at = new.created_at`, quoted)

	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (store_name, key_hash, entry_key, snapshot, created_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (store_name, key_hash) DO UPDATE SET entry_key = EXCLUDED.entry_key, snapshot = EXCLUDED.snapshot, created_at = EXCLUDED.created_at`, quoted)

	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s (store_name, key_hash, entry_key, snapshot, created_at) VALUES (?, ?, ?, ?, ?)`, quoted)
	}

	_, err = s.db.Exec(query, s.name, hashKey(key), key, blob, now)
	return err
}

// Evict removes the entry under key. Missing keys are not an error.
func (s *sqlStore) Evict(key string) error {
	quoted := quoteTableName(entriesTable, s.backend)

	var query string
	switch s.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`DELETE FROM %s WHERE store_name = $1 AND key_hash = $2`, quoted)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`DELETE FROM %s WHERE store_name = ? AND key_hash = ?`, quoted)
	}

	_, err := s.db.Exec(query, s.name, hashKey(key))
	return err
}

// noneStore is the no-op store used when caching is disabled.
type noneStore struct {
	name string
}

var _ contract.Store = &noneStore{} // Compile-time check

func (s *noneStore) Name() string { return s.name }

func (s *noneStore) Match(string) (*schema.ResponseSnapshot, error) {
	return nil, contract.ErrNoEntry
}

func (s *noneStore) Put(string, *schema.ResponseSnapshot) error { return nil }

func (s *noneStore) Evict(string) error { return nil }
