package graphstore

import (
	"database/sql"

	"adi/internal/codegraph"
	"adi/internal/errs"
)

// UpdateStatus replaces the singleton status row within tx. Called at the
// end of a successful index run (spec §4.D).
func (t *Tx) UpdateStatus(st codegraph.Status) error {
	_, err := t.tx.Exec(
		`INSERT INTO status (id, indexed_files, indexed_symbols, embedding_dimensions, embedding_model, last_indexed, storage_size_bytes)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			indexed_files = excluded.indexed_files,
			indexed_symbols = excluded.indexed_symbols,
			embedding_dimensions = excluded.embedding_dimensions,
			embedding_model = excluded.embedding_model,
			last_indexed = excluded.last_indexed,
			storage_size_bytes = excluded.storage_size_bytes`,
		st.IndexedFiles, st.IndexedSymbols, st.EmbeddingDimensions, st.EmbeddingModel,
		st.LastIndexed, st.StorageSizeBytes,
	)
	if err != nil {
		return &errs.StorageError{Detail: "update status", Cause: err}
	}
	return nil
}

// GetStatus returns the current store status, or a zero-value Status if
// no index run has completed yet.
func (s *Store) GetStatus() (codegraph.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st codegraph.Status
	var lastIndexed sql.NullInt64
	err := s.db.QueryRow(
		`SELECT indexed_files, indexed_symbols, embedding_dimensions, embedding_model, last_indexed, storage_size_bytes
		FROM status WHERE id = 1`,
	).Scan(&st.IndexedFiles, &st.IndexedSymbols, &st.EmbeddingDimensions, &st.EmbeddingModel, &lastIndexed, &st.StorageSizeBytes)
	if err == sql.ErrNoRows {
		return codegraph.Status{}, nil
	}
	if err != nil {
		return codegraph.Status{}, &errs.StorageError{Detail: "get status", Cause: err}
	}
	if lastIndexed.Valid {
		st.LastIndexed = &lastIndexed.Int64
	}
	return st, nil
}
