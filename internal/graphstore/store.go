// Package graphstore implements the graph store (spec §4.B): durable
// storage for Files, Symbols, and References, backed by SQLite, with
// name-indexed lookup, FTS5 full-text search, batch insert, and cascading
// deletion. Grounded in the teacher's internal/store/local_core.go
// (single connection, WAL + synchronous=NORMAL + foreign_keys=ON pragmas,
// a single process-wide write lock) adapted from the teacher's
// knowledge-graph/fact schema to the spec's files/symbols/references
// schema, and in original_source's
// crates/knowledgebase/core/src/storage/graph.rs for the exact table
// shape.
package graphstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"adi/internal/errs"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store is the durable graph store for one project. It holds a single
// *sql.DB capped at one open connection (matching the teacher's
// SetMaxOpenConns(1)) plus an RWMutex distinguishing write transactions
// from concurrent read-only queries, per spec §4.B/§5 concurrency model.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	log  *zap.Logger
}

// Open creates (or attaches to) the SQLite database at path, applying
// pragmas and running migrations.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &errs.IoError{Path: dir, Cause: err}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &errs.StorageError{Detail: "open sqlite3", Cause: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &errs.StorageError{Detail: fmt.Sprintf("pragma %q", pragma), Cause: err}
		}
	}

	s := &Store{db: db, path: path, log: log.With(zap.String("component", "graphstore"))}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string { return s.path }
