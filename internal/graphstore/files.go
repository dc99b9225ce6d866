package graphstore

import (
	"database/sql"
	"errors"

	"adi/internal/codegraph"
	"adi/internal/errs"
)

// InsertFile inserts a new File row within tx, returning the assigned id.
// Cascading deletion of symbols/references for a prior version of this
// path is the caller's responsibility (spec §4.D step 2) before calling
// this.
func (t *Tx) InsertFile(f codegraph.File) (codegraph.FileID, error) {
	res, err := t.tx.Exec(
		`INSERT INTO files (path, language, hash, size, description) VALUES (?, ?, ?, ?, ?)`,
		f.Path, string(f.Language), f.Hash, f.Size, f.Description,
	)
	if err != nil {
		return 0, &errs.StorageError{Detail: "insert file", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &errs.StorageError{Detail: "insert file: last insert id", Cause: err}
	}
	fileID := codegraph.FileID(id)
	if err := t.IndexFileFTS(fileID, f.Path); err != nil {
		return 0, err
	}
	return fileID, nil
}

// DeleteFile removes the File row for path, cascading to its symbols and
// references via ON DELETE CASCADE (invariant §3.1), and cleaning the
// files_fts/symbols_fts virtual tables, which carry no foreign keys of
// their own.
func (t *Tx) DeleteFile(path string) error {
	var fileID codegraph.FileID
	err := t.tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return &errs.StorageError{Detail: "delete file: lookup id", Cause: err}
	}

	if err := t.DeleteSymbolsForFile(fileID); err != nil {
		return err
	}
	if err := t.DeleteFileFTS(fileID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return &errs.StorageError{Detail: "delete file", Cause: err}
	}
	return nil
}

// GetFile looks up a File by path.
func (s *Store) GetFile(path string) (codegraph.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanFile(s.db.QueryRow(
		`SELECT id, path, language, hash, size, description FROM files WHERE path = ?`, path), path)
}

// GetFile looks up a File by path within an open write transaction. Callers
// holding a Tx must use this instead of the Store method: the store's write
// lock is already held for the transaction's lifetime, and RLock-ing it from
// the same goroutine would deadlock.
func (t *Tx) GetFile(path string) (codegraph.File, error) {
	return scanFile(t.tx.QueryRow(
		`SELECT id, path, language, hash, size, description FROM files WHERE path = ?`, path), path)
}

func scanFile(row *sql.Row, path string) (codegraph.File, error) {
	var f codegraph.File
	var lang string
	var desc sql.NullString
	err := row.Scan(&f.ID, &f.Path, &lang, &f.Hash, &f.Size, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return codegraph.File{}, &errs.NotFound{Path: path}
	}
	if err != nil {
		return codegraph.File{}, &errs.StorageError{Detail: "get file", Cause: err}
	}
	f.Language = codegraph.Language(lang)
	f.Description = desc.String
	return f, nil
}

// FileExists reports whether path is already tracked.
func (s *Store) FileExists(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE path = ?`, path).Scan(&n); err != nil {
		return false, &errs.StorageError{Detail: "file exists", Cause: err}
	}
	return n > 0, nil
}

// FileExists is the Tx-scoped counterpart of Store.FileExists, for use while
// a write transaction is already open.
func (t *Tx) FileExists(path string) (bool, error) {
	var n int
	if err := t.tx.QueryRow(`SELECT COUNT(*) FROM files WHERE path = ?`, path).Scan(&n); err != nil {
		return false, &errs.StorageError{Detail: "file exists", Cause: err}
	}
	return n > 0, nil
}

// GetFileHash returns the stored content hash for path, and whether the
// file is tracked at all — used to gate re-parsing (invariant §3.6).
func (s *Store) GetFileHash(path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM files WHERE path = ?`, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &errs.StorageError{Detail: "get file hash", Cause: err}
	}
	return hash, true, nil
}

// GetFileHash is the Tx-scoped counterpart of Store.GetFileHash.
func (t *Tx) GetFileHash(path string) (string, bool, error) {
	var hash string
	err := t.tx.QueryRow(`SELECT hash FROM files WHERE path = ?`, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &errs.StorageError{Detail: "get file hash", Cause: err}
	}
	return hash, true, nil
}

// FileIDByPath resolves a file id without loading the full row.
func (s *Store) FileIDByPath(path string) (codegraph.FileID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var id int64
	err := s.db.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &errs.StorageError{Detail: "file id by path", Cause: err}
	}
	return codegraph.FileID(id), true, nil
}
