package graphstore

import (
	"database/sql"

	"adi/internal/codegraph"
	"adi/internal/errs"
)

// SymbolMatch pairs a symbol with its FTS5 bm25 rank, best (most
// relevant) first.
type SymbolMatch struct {
	Symbol codegraph.Symbol
	Rank   float64
}

// FTSSearchSymbols runs a full-text query against symbol name, signature,
// and doc comment, returning at most limit matches ranked by bm25.
// query is passed to FTS5 largely as-is; callers wanting literal-token
// search should quote phrases themselves.
func (s *Store) FTSSearchSymbols(query string, limit int) ([]SymbolMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		symbolSelect+`, symbols_fts.rank AS rnk
		FROM symbols_fts JOIN symbols ON symbols.id = symbols_fts.symbol_id
		WHERE symbols_fts MATCH ?
		ORDER BY rnk
		LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, &errs.StorageError{Detail: "fts search symbols", Cause: err}
	}
	defer rows.Close()

	var out []SymbolMatch
	for rows.Next() {
		var sym codegraph.Symbol
		var kind, visibility string
		var parentID sql.NullInt64
		var signature, doc sql.NullString
		var rank float64
		if err := rows.Scan(
			&sym.ID, &sym.FileID, &sym.Name, &kind,
			&sym.Location.StartLine, &sym.Location.StartCol,
			&sym.Location.EndLine, &sym.Location.EndCol,
			&sym.Location.StartByte, &sym.Location.EndByte,
			&parentID, &signature, &doc, &visibility, &sym.IsEntryPoint,
			&rank,
		); err != nil {
			return nil, &errs.StorageError{Detail: "scan fts symbol", Cause: err}
		}
		sym.Kind = codegraph.SymbolKind(kind)
		sym.Visibility = codegraph.Visibility(visibility)
		sym.Signature = signature.String
		sym.DocComment = doc.String
		if parentID.Valid {
			pid := codegraph.SymbolID(parentID.Int64)
			sym.ParentID = &pid
		}
		out = append(out, SymbolMatch{Symbol: sym, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StorageError{Detail: "scan fts symbols", Cause: err}
	}
	return out, nil
}

// FileMatch pairs a file with its FTS5 bm25 rank.
type FileMatch struct {
	File codegraph.File
	Rank float64
}

// FTSSearchFiles runs a full-text query against file paths.
func (s *Store) FTSSearchFiles(query string, limit int) ([]FileMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT files.id, files.path, files.language, files.hash, files.size, files.description, files_fts.rank AS rnk
		FROM files_fts JOIN files ON files.id = files_fts.file_id
		WHERE files_fts MATCH ?
		ORDER BY rnk
		LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, &errs.StorageError{Detail: "fts search files", Cause: err}
	}
	defer rows.Close()

	var out []FileMatch
	for rows.Next() {
		var f codegraph.File
		var lang string
		var desc sql.NullString
		var rank float64
		if err := rows.Scan(&f.ID, &f.Path, &lang, &f.Hash, &f.Size, &desc, &rank); err != nil {
			return nil, &errs.StorageError{Detail: "scan fts file", Cause: err}
		}
		f.Language = codegraph.Language(lang)
		f.Description = desc.String
		out = append(out, FileMatch{File: f, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StorageError{Detail: "scan fts files", Cause: err}
	}
	return out, nil
}

// IndexFileFTS upserts path's files_fts row. Called alongside InsertFile
// since files_fts has no foreign key to cascade from the files table.
func (t *Tx) IndexFileFTS(fileID codegraph.FileID, path string) error {
	if _, err := t.tx.Exec(`DELETE FROM files_fts WHERE file_id = ?`, fileID); err != nil {
		return &errs.StorageError{Detail: "delete file fts", Cause: err}
	}
	if _, err := t.tx.Exec(`INSERT INTO files_fts (path, file_id) VALUES (?, ?)`, path, fileID); err != nil {
		return &errs.StorageError{Detail: "insert file fts", Cause: err}
	}
	return nil
}

// DeleteFileFTS removes path's files_fts row, called from DeleteFile
// since SQLite FTS5 virtual tables do not support foreign keys.
func (t *Tx) DeleteFileFTS(fileID codegraph.FileID) error {
	if _, err := t.tx.Exec(`DELETE FROM files_fts WHERE file_id = ?`, fileID); err != nil {
		return &errs.StorageError{Detail: "delete file fts", Cause: err}
	}
	return nil
}
