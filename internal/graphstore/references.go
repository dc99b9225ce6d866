package graphstore

import (
	"database/sql"

	"adi/internal/codegraph"
	"adi/internal/errs"
)

// InsertReferencesBatch inserts all refs in a single transaction round
// trip. Duplicate (from, to, start_byte, end_byte) rows are ignored
// rather than erroring, since the resolver may legitimately re-emit the
// same call-site/target pair when an overload candidate search widens.
func (t *Tx) InsertReferencesBatch(refs []codegraph.Reference) error {
	if len(refs) == 0 {
		return nil
	}
	stmt, err := t.tx.Prepare(`INSERT OR IGNORE INTO "references" (
		from_symbol_id, to_symbol_id, kind, start_line, start_col, end_line, end_col, start_byte, end_byte
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &errs.StorageError{Detail: "prepare insert references", Cause: err}
	}
	defer stmt.Close()

	for _, r := range refs {
		if _, err := stmt.Exec(
			r.FromSymbolID, r.ToSymbolID, string(r.Kind),
			r.Location.StartLine, r.Location.StartCol, r.Location.EndLine, r.Location.EndCol,
			r.Location.StartByte, r.Location.EndByte,
		); err != nil {
			return &errs.StorageError{Detail: "insert reference", Cause: err}
		}
	}
	return nil
}

// DeleteReferencesForFile removes every reference whose source symbol
// belongs to fileID. Called before re-inserting a re-parsed file's
// symbols during incremental indexing (spec §4.D).
func (t *Tx) DeleteReferencesForFile(fileID codegraph.FileID) error {
	if _, err := t.tx.Exec(
		`DELETE FROM "references" WHERE from_symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)`,
		fileID,
	); err != nil {
		return &errs.StorageError{Detail: "delete references for file", Cause: err}
	}
	return nil
}

const referenceSelect = `SELECT from_symbol_id, to_symbol_id, kind, start_line, start_col, end_line, end_col, start_byte, end_byte FROM "references"`

// ReferencesFrom returns every reference whose call/use site is inside
// symbolID.
func (s *Store) ReferencesFrom(symbolID codegraph.SymbolID) ([]codegraph.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(referenceSelect+` WHERE from_symbol_id = ?`, symbolID)
	if err != nil {
		return nil, &errs.StorageError{Detail: "references from", Cause: err}
	}
	defer rows.Close()
	return scanReferences(rows)
}

// ReferencesTo returns every reference targeting symbolID — used for
// find-usages and dead-code reachability.
func (s *Store) ReferencesTo(symbolID codegraph.SymbolID) ([]codegraph.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(referenceSelect+` WHERE to_symbol_id = ?`, symbolID)
	if err != nil {
		return nil, &errs.StorageError{Detail: "references to", Cause: err}
	}
	defer rows.Close()
	return scanReferences(rows)
}

// AllReferences returns every reference in the store, used by reachability
// analysis to build an in-memory call graph (spec §4.D ReachabilityFrom).
func (s *Store) AllReferences() ([]codegraph.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(referenceSelect)
	if err != nil {
		return nil, &errs.StorageError{Detail: "all references", Cause: err}
	}
	defer rows.Close()
	return scanReferences(rows)
}

func scanReferences(rows *sql.Rows) ([]codegraph.Reference, error) {
	var out []codegraph.Reference
	for rows.Next() {
		var r codegraph.Reference
		var kind string
		if err := rows.Scan(
			&r.FromSymbolID, &r.ToSymbolID, &kind,
			&r.Location.StartLine, &r.Location.StartCol, &r.Location.EndLine, &r.Location.EndCol,
			&r.Location.StartByte, &r.Location.EndByte,
		); err != nil {
			return nil, &errs.StorageError{Detail: "scan reference", Cause: err}
		}
		r.Kind = codegraph.ReferenceKind(kind)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StorageError{Detail: "scan references", Cause: err}
	}
	return out, nil
}
