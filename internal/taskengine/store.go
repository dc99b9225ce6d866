package taskengine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"adi/internal/errs"
	"adi/internal/logging"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store is the durable task store for one project (or the global store).
// Mirrors graphstore.Store's single-connection-plus-RWMutex shape: one
// writer at a time; reads share the read lock and wait while a write holds
// the lock.
type Store struct {
	db          *sql.DB
	mu          sync.RWMutex
	path        string
	projectPath string
	log         *zap.Logger
}

var taskMigrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'todo',
		symbol_id INTEGER,
		project_path TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project_path ON tasks(project_path)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
	`CREATE TABLE IF NOT EXISTS task_dependencies (
		from_task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		to_task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		PRIMARY KEY (from_task_id, to_task_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_deps_to ON task_dependencies(to_task_id)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
		title, description, task_id UNINDEXED
	)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`,
}

func runTaskMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return &errs.MigrationFailed{Version: 0, Cause: err}
	}
	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		return &errs.MigrationFailed{Version: 0, Cause: err}
	}
	for i := applied; i < len(taskMigrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return &errs.MigrationFailed{Version: i + 1, Cause: err}
		}
		if _, err := tx.Exec(taskMigrations[i]); err != nil {
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

// Open creates (or attaches to) the task store at path, scoped to
// projectPath (empty string for the global store).
func Open(path, projectPath string, log *zap.Logger) (*Store, error) {
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

	if err := runTaskMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:          db,
		path:        path,
		projectPath: projectPath,
		log:         logging.Component(log, "taskengine"),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the on-disk location of this store.
func (s *Store) Path() string { return s.path }

// ProjectPath returns the canonical project path this store is scoped to,
// or "" for the global store.
func (s *Store) ProjectPath() string { return s.projectPath }

func now() int64 { return time.Now().Unix() }

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var desc sql.NullString
	var projectPath sql.NullString
	var symbolID sql.NullInt64
	var status string
	if err := row.Scan(&t.ID, &t.Title, &desc, &status, &symbolID, &projectPath, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, err
	}
	t.Description = desc.String
	t.Status = Status(status)
	t.ProjectPath = projectPath.String
	if symbolID.Valid {
		v := symbolID.Int64
		t.SymbolID = &v
	}
	return t, nil
}

const taskSelect = `SELECT id, title, description, status, symbol_id, project_path, created_at, updated_at FROM tasks`

// CreateTask inserts a task and wires its initial dependency edges.
func (s *Store) CreateTask(in CreateTask) (TaskID, error) {
	s.mu.Lock()
	t := now()
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, description, status, symbol_id, project_path, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, string(StatusTodo), in.SymbolID, nullableString(in.ProjectPath), t, t,
	)
	if err != nil {
		s.mu.Unlock()
		return 0, &errs.StorageError{Detail: "insert task", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.mu.Unlock()
		return 0, &errs.StorageError{Detail: "last insert id", Cause: err}
	}
	if _, err := s.db.Exec(`INSERT INTO tasks_fts (title, description, task_id) VALUES (?, ?, ?)`, in.Title, in.Description, id); err != nil {
		s.mu.Unlock()
		return 0, &errs.StorageError{Detail: "insert tasks_fts", Cause: err}
	}
	s.mu.Unlock()

	for _, dep := range in.DependsOn {
		if err := s.AddDependency(TaskID(id), dep); err != nil {
			return TaskID(id), err
		}
	}
	return TaskID(id), nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// GetTask fetches one task by id.
func (s *Store) GetTask(id TaskID) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(taskSelect+` WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, &errs.TaskNotFound{ID: int64(id)}
	}
	if err != nil {
		return Task{}, &errs.StorageError{Detail: "get task", Cause: err}
	}
	return t, nil
}

// UpdateTask persists the full task row and keeps tasks_fts in sync.
func (s *Store) UpdateTask(t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.UpdatedAt = now()
	res, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, symbol_id = ?, project_path = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, string(t.Status), t.SymbolID, nullableString(t.ProjectPath), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return &errs.StorageError{Detail: "update task", Cause: err}
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return &errs.TaskNotFound{ID: int64(t.ID)}
	}
	if _, err := s.db.Exec(`UPDATE tasks_fts SET title = ?, description = ? WHERE task_id = ?`, t.Title, t.Description, t.ID); err != nil {
		return &errs.StorageError{Detail: "update tasks_fts", Cause: err}
	}
	return nil
}

// UpdateStatus sets a task's status, a thin read-modify-write over
// UpdateTask matching the original's update_status helper.
func (s *Store) UpdateStatus(id TaskID, status Status) error {
	t, err := s.GetTask(id)
	if err != nil {
		return err
	}
	t.Status = status
	return s.UpdateTask(t)
}

// DeleteTask removes a task; FK cascade removes its dependency edges,
// tasks_fts is cleaned up explicitly since it carries no foreign key.
func (s *Store) DeleteTask(id TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM tasks_fts WHERE task_id = ?`, id); err != nil {
		return &errs.StorageError{Detail: "delete tasks_fts", Cause: err}
	}
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return &errs.StorageError{Detail: "delete task", Cause: err}
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return &errs.TaskNotFound{ID: int64(id)}
	}
	return nil
}

// ListTasks returns every task, optionally scoped to a project path.
func (s *Store) ListTasks(projectPath *string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if projectPath != nil {
		rows, err = s.db.Query(taskSelect+` WHERE project_path = ? ORDER BY created_at DESC`, *projectPath)
	} else {
		rows, err = s.db.Query(taskSelect + ` ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, &errs.StorageError{Detail: "list tasks", Cause: err}
	}
	return scanTasks(rows)
}

// GetTasksByStatus returns every task in the given status.
func (s *Store) GetTasksByStatus(status Status) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(taskSelect+` WHERE status = ? ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, &errs.StorageError{Detail: "get tasks by status", Cause: err}
	}
	return scanTasks(rows)
}

// SearchFTS full-text searches title/description via tasks_fts.
func (s *Store) SearchFTS(query string, limit int) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT t.id, t.title, t.description, t.status, t.symbol_id, t.project_path, t.created_at, t.updated_at
		 FROM tasks t JOIN tasks_fts fts ON t.id = fts.task_id
		 WHERE tasks_fts MATCH ? ORDER BY rank LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, &errs.StorageError{Detail: "search tasks_fts", Cause: err}
	}
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, &errs.StorageError{Detail: "scan task", Cause: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.StorageError{Detail: "scan tasks", Cause: err}
	}
	return out, nil
}
