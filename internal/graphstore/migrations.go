package graphstore

import (
	"database/sql"

	"adi/internal/errs"
)

// migrations is a minimal numbered-migration runner, kept intentionally
// small: the migration runner's own feature set (rollback planning,
// checksum verification, etc.) is an external collaborator per spec §4.B,
// but opening a store still needs *some* concrete migrator, matching the
// teacher's internal/store/migrations.go numbered-migration pattern.
var migrations = []string{
	// 1: files
	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		language TEXT NOT NULL,
		hash TEXT NOT NULL,
		size INTEGER NOT NULL,
		description TEXT
	)`,
	// 2: symbols
	`CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		start_byte INTEGER NOT NULL,
		end_byte INTEGER NOT NULL,
		parent_id INTEGER REFERENCES symbols(id) ON DELETE CASCADE,
		signature TEXT,
		doc_comment TEXT,
		visibility TEXT NOT NULL,
		is_entry_point INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
	// 3: references
	`CREATE TABLE IF NOT EXISTS "references" (
		from_symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		to_symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		start_col INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_col INTEGER NOT NULL,
		start_byte INTEGER NOT NULL,
		end_byte INTEGER NOT NULL,
		PRIMARY KEY (from_symbol_id, to_symbol_id, start_byte, end_byte)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_references_from ON "references"(from_symbol_id)`,
	`CREATE INDEX IF NOT EXISTS idx_references_to ON "references"(to_symbol_id)`,
	// 4: full text search
	`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
		name, signature, doc_comment, symbol_id UNINDEXED, tokenize='porter'
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		path, file_id UNINDEXED
	)`,
	// 5: status singleton
	`CREATE TABLE IF NOT EXISTS status (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		indexed_files INTEGER NOT NULL DEFAULT 0,
		indexed_symbols INTEGER NOT NULL DEFAULT 0,
		embedding_dimensions INTEGER NOT NULL DEFAULT 0,
		embedding_model TEXT NOT NULL DEFAULT '',
		last_indexed INTEGER,
		storage_size_bytes INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`,
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return &errs.MigrationFailed{Version: 0, Cause: err}
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		return &errs.MigrationFailed{Version: 0, Cause: err}
	}

	for i := applied; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return &errs.MigrationFailed{Version: i + 1, Cause: err}
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return &errs.MigrationFailed{Version: i + 1, Cause: err}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i+1); err != nil {
			tx.Rollback()
			return &errs.MigrationFailed{Version: i + 1, Cause: err}
		}
		if err := tx.Commit(); err != nil {
			return &errs.MigrationFailed{Version: i + 1, Cause: err}
		}
	}
	return nil
}
