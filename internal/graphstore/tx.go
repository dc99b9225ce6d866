package graphstore

import (
	"database/sql"

	"adi/internal/errs"
)

// Tx is a write transaction against the graph store. The store's single
// process-wide write lock is held for the lifetime of the Tx; callers that
// already hold a Tx must use its own read methods (GetFile, FileExists,
// GetFileHash, SymbolsForFile) rather than the Store's RLock-guarded ones,
// which would deadlock against the held write lock. Other goroutines'
// reads through the Store wait for the same lock, so they block until the
// Tx commits or rolls back.
type Tx struct {
	tx   *sql.Tx
	s    *Store
	done bool
}

// BeginTransaction starts a write transaction, acquiring the store's write
// lock.
func (s *Store) BeginTransaction() (*Tx, error) {
	s.mu.Lock()
	tx, err := s.db.Begin()
	if err != nil {
		s.mu.Unlock()
		return nil, &errs.StorageError{Detail: "begin transaction", Cause: err}
	}
	return &Tx{tx: tx, s: s}, nil
}

// Commit commits the transaction and releases the write lock.
func (t *Tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.s.mu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return &errs.StorageError{Detail: "commit transaction", Cause: err}
	}
	return nil
}

// Rollback aborts the transaction and releases the write lock.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.s.mu.Unlock()
	if err := t.tx.Rollback(); err != nil {
		return &errs.StorageError{Detail: "rollback transaction", Cause: err}
	}
	return nil
}
