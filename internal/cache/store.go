// Package cache is the durable local snapshot of every collection.
//
// It persists each collection as one namespaced key-value row in SQLite.
// The cache is the guaranteed side of every dual-write: a record is
// accepted once it is here, whether or not the remote upsert lands.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parkminsu/janbu/internal/errs"
	"github.com/parkminsu/janbu/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (kv + schema_version)
const currentSchemaVersion = 1

// DefaultPrefix namespaces cache keys when the configuration does not
// override it.
const DefaultPrefix = "janbu"

// Store is the SQLite-backed local cache.
// Uses WAL mode so the CLI can read while the engine writes.
type Store struct {
	db     *sql.DB
	prefix string
	logger *slog.Logger
}

// Open creates or opens the cache database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path, prefix string, logger *slog.Logger) (*Store, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, prefix: prefix, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// applySchema creates the tables and runs pending migrations.
func applySchema(db *sql.DB, logger *slog.Logger) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < currentSchemaVersion {
		if err := migrate(db, version, currentSchemaVersion, logger); err != nil {
			return err
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}

	return nil
}

// migrate upgrades the cache layout between schema versions.
//
// Migration hook for future key or payload layout changes. Version 0→1
// is the initial layout, created by schema.sql itself.
func migrate(db *sql.DB, from, to int, logger *slog.Logger) error {
	if from < to {
		logger.Info("migrating cache schema", "from", from, "to", to)
	}
	return nil
}

// Key returns the namespaced cache key for a collection.
func (s *Store) Key(collection string) string {
	return s.prefix + "_" + collection
}

// GetCollection returns the cached records for a collection.
//
// A missing key yields an empty slice. A corrupted payload is recovered
// by treating the collection as empty: the corruption is logged as a
// warning and a PARSE_ERROR is returned alongside the empty slice so
// callers can count it, but callers are expected to proceed.
func (s *Store) GetCollection(ctx context.Context, collection string) ([]record.Fields, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", s.Key(collection),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return []record.Fields{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}

	var records []record.Fields
	if err := json.Unmarshal(value, &records); err != nil {
		s.logger.Warn("corrupted cache payload, treating collection as empty",
			"collection", collection, "error", err)
		return []record.Fields{}, errs.Parse(collection, err)
	}
	if records == nil {
		records = []record.Fields{}
	}
	return records, nil
}

// PutCollection replaces the cached records for a collection.
func (s *Store) PutCollection(ctx context.Context, collection string, records []record.Fields) error {
	if records == nil {
		records = []record.Fields{}
	}
	value, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.Key(collection), value)
	if err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	return nil
}

// DeleteCollection removes a collection's cached payload entirely.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", s.Key(collection)); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}
