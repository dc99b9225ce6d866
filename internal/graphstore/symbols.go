package graphstore

import (
	"database/sql"

	"adi/internal/codegraph"
	"adi/internal/errs"
)

// InsertSymbol inserts a Symbol row within tx and keeps symbols_fts in
// sync, returning the assigned id.
func (t *Tx) InsertSymbol(sym codegraph.Symbol) (codegraph.SymbolID, error) {
	var parentID sql.NullInt64
	if sym.ParentID != nil {
		parentID = sql.NullInt64{Int64: int64(*sym.ParentID), Valid: true}
	}
	res, err := t.tx.Exec(
		`INSERT INTO symbols (
			file_id, name, kind, start_line, start_col, end_line, end_col,
			start_byte, end_byte, parent_id, signature, doc_comment,
			visibility, is_entry_point
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, string(sym.Kind),
		sym.Location.StartLine, sym.Location.StartCol, sym.Location.EndLine, sym.Location.EndCol,
		sym.Location.StartByte, sym.Location.EndByte,
		parentID, sym.Signature, sym.DocComment, string(sym.Visibility), sym.IsEntryPoint,
	)
	if err != nil {
		return 0, &errs.StorageError{Detail: "insert symbol", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &errs.StorageError{Detail: "insert symbol: last insert id", Cause: err}
	}

	if _, err := t.tx.Exec(
		`INSERT INTO symbols_fts (name, signature, doc_comment, symbol_id) VALUES (?, ?, ?, ?)`,
		sym.Name, sym.Signature, sym.DocComment, id,
	); err != nil {
		return 0, &errs.StorageError{Detail: "insert symbol fts", Cause: err}
	}
	return codegraph.SymbolID(id), nil
}

// DeleteSymbolsForFile removes all symbols (and their fts rows) belonging
// to fileID, cascading to references via ON DELETE CASCADE.
func (t *Tx) DeleteSymbolsForFile(fileID codegraph.FileID) error {
	if _, err := t.tx.Exec(
		`DELETE FROM symbols_fts WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)`,
		fileID,
	); err != nil {
		return &errs.StorageError{Detail: "delete symbols fts for file", Cause: err}
	}
	if _, err := t.tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return &errs.StorageError{Detail: "delete symbols for file", Cause: err}
	}
	return nil
}

// FindSymbolsByName returns every symbol whose name matches exactly.
func (s *Store) FindSymbolsByName(name string) ([]codegraph.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(symbolSelect+` WHERE name = ?`, name)
	if err != nil {
		return nil, &errs.StorageError{Detail: "find symbols by name", Cause: err}
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// GetSymbol loads a single symbol by id.
func (s *Store) GetSymbol(id codegraph.SymbolID) (codegraph.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(symbolSelect+` WHERE id = ?`, id)
	if err != nil {
		return codegraph.Symbol{}, &errs.StorageError{Detail: "get symbol", Cause: err}
	}
	defer rows.Close()
	syms, err := scanSymbols(rows)
	if err != nil {
		return codegraph.Symbol{}, err
	}
	if len(syms) == 0 {
		return codegraph.Symbol{}, &errs.NotFound{ID: int64(id)}
	}
	return syms[0], nil
}

// GetAllSymbols returns every symbol in the store. Intended for small/medium
// projects and reachability analysis (spec §4.D); callers needing scale
// should prefer FindSymbolsByName or FTSSearchSymbols.
func (s *Store) GetAllSymbols() ([]codegraph.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(symbolSelect)
	if err != nil {
		return nil, &errs.StorageError{Detail: "get all symbols", Cause: err}
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsForFile returns every symbol declared in fileID.
func (s *Store) SymbolsForFile(fileID codegraph.FileID) ([]codegraph.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(symbolSelect+` WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, &errs.StorageError{Detail: "symbols for file", Cause: err}
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsForFile is the Tx-scoped counterpart of Store.SymbolsForFile, for
// use while a write transaction is already open.
func (t *Tx) SymbolsForFile(fileID codegraph.FileID) ([]codegraph.Symbol, error) {
	rows, err := t.tx.Query(symbolSelect+` WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, &errs.StorageError{Detail: "symbols for file", Cause: err}
	}
	defer rows.Close()
	return scanSymbols(rows)
}

const symbolSelect = `SELECT
	id, file_id, name, kind, start_line, start_col, end_line, end_col,
	start_byte, end_byte, parent_id, signature, doc_comment, visibility, is_entry_point
	FROM symbols`

func scanSymbols(rows *sql.Rows) ([]codegraph.Symbol, error) {
	var out []codegraph.Symbol
	for rows.Next() {
		var sym codegraph.Symbol
		var kind, visibility string
		var parentID sql.NullInt64
		var signature, doc sql.NullString
		if err := rows.Scan(
			&sym.ID, &sym.FileID, &sym.Name, &kind,
			&sym.Location.StartLine, &sym.Location.StartCol,
			&sym.Location.EndLine, &sym.Location.EndCol,
			&sym.Location.StartByte, &sym.Location.EndByte,
			&parentID, &signature, &doc, &visibility, &sym.IsEntryPoint,
		); err != nil {
			return nil, &errs.StorageError{Detail: "scan symbol", Cause: err}
		}
		sym.Kind = codegraph.SymbolKind(kind)
		sym.Visibility = codegraph.Visibility(visibility)
		sym.Signature = signature.String
		sym.DocComment = doc.String
		if parentID.Valid {
			pid := codegraph.SymbolID(parentID.Int64)
			sym.ParentID = &pid
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StorageError{Detail: "scan symbols", Cause: err}
	}
	return out, nil
}
