package taskengine

import (
	"adi/internal/errs"
)

// AddDependency records that `from` depends on `to` (from must finish
// after to). Rejects self-dependencies, dependencies on absent tasks, and
// edges that would create a cycle; duplicate inserts are idempotent.
//
// Grounded in crates/tasks/core/src/storage/sqlite.rs's add_dependency plus
// crates/adi-tasks/core/src/lib.rs's TaskManager::add_dependency, which
// layers the cycle check (would_create_cycle) above the storage-level
// existence checks. The reachability walk itself follows
// josephgoksu-TaskWing's internal/task/dag.go VerifyDAG recursion shape,
// adapted from an in-memory task slice to SQL queries against
// task_dependencies.
func (s *Store) AddDependency(from, to TaskID) error {
	if from == to {
		return &errs.SelfDependency{ID: int64(from)}
	}

	if ok, err := s.taskExists(from); err != nil {
		return err
	} else if !ok {
		return &errs.TaskNotFound{ID: int64(from)}
	}
	if ok, err := s.taskExists(to); err != nil {
		return err
	} else if !ok {
		return &errs.TaskNotFound{ID: int64(to)}
	}

	reachable, err := s.reaches(to, from)
	if err != nil {
		return err
	}
	if reachable {
		return &errs.WouldCreateCycle{From: int64(from), To: int64(to)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO task_dependencies (from_task_id, to_task_id) VALUES (?, ?)`, from, to); err != nil {
		return &errs.StorageError{Detail: "insert dependency", Cause: err}
	}
	return nil
}

func (s *Store) taskExists(id TaskID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, &errs.StorageError{Detail: "task exists", Cause: err}
	}
	return exists, nil
}

// reaches reports whether start can reach target by following
// from_task_id -> to_task_id edges (a DFS over the dependency relation,
// matching VerifyDAG's recursionStack walk but querying live rows instead
// of an in-memory map).
func (s *Store) reaches(start, target TaskID) (bool, error) {
	visited := map[TaskID]bool{}
	var visit func(TaskID) (bool, error)
	visit = func(id TaskID) (bool, error) {
		if id == target {
			return true, nil
		}
		if visited[id] {
			return false, nil
		}
		visited[id] = true

		next, err := s.dependencyTargets(id)
		if err != nil {
			return false, err
		}
		for _, n := range next {
			found, err := visit(n)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
		return false, nil
	}
	return visit(start)
}

func (s *Store) dependencyTargets(from TaskID) ([]TaskID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT to_task_id FROM task_dependencies WHERE from_task_id = ?`, from)
	if err != nil {
		return nil, &errs.StorageError{Detail: "dependency targets", Cause: err}
	}
	defer rows.Close()
	var out []TaskID
	for rows.Next() {
		var id TaskID
		if err := rows.Scan(&id); err != nil {
			return nil, &errs.StorageError{Detail: "scan dependency target", Cause: err}
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RemoveDependency deletes the edge from -> to.
func (s *Store) RemoveDependency(from, to TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM task_dependencies WHERE from_task_id = ? AND to_task_id = ?`, from, to)
	if err != nil {
		return &errs.StorageError{Detail: "remove dependency", Cause: err}
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return &errs.DependencyNotFound{From: int64(from), To: int64(to)}
	}
	return nil
}

// DependencyExists reports whether the edge from -> to is present.
func (s *Store) DependencyExists(from, to TaskID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM task_dependencies WHERE from_task_id = ? AND to_task_id = ?)`, from, to).Scan(&exists)
	if err != nil {
		return false, &errs.StorageError{Detail: "dependency exists", Cause: err}
	}
	return exists, nil
}

// GetDependencies returns the tasks that id depends on.
func (s *Store) GetDependencies(id TaskID) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT t.id, t.title, t.description, t.status, t.symbol_id, t.project_path, t.created_at, t.updated_at
		 FROM tasks t JOIN task_dependencies d ON t.id = d.to_task_id
		 WHERE d.from_task_id = ?`, id,
	)
	if err != nil {
		return nil, &errs.StorageError{Detail: "get dependencies", Cause: err}
	}
	return scanTasks(rows)
}

// GetDependents returns the tasks that depend on id.
func (s *Store) GetDependents(id TaskID) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT t.id, t.title, t.description, t.status, t.symbol_id, t.project_path, t.created_at, t.updated_at
		 FROM tasks t JOIN task_dependencies d ON t.id = d.from_task_id
		 WHERE d.to_task_id = ?`, id,
	)
	if err != nil {
		return nil, &errs.StorageError{Detail: "get dependents", Cause: err}
	}
	return scanTasks(rows)
}

// GetTaskWithDependencies bundles a task with its direct edges.
func (s *Store) GetTaskWithDependencies(id TaskID) (WithDependencies, error) {
	t, err := s.GetTask(id)
	if err != nil {
		return WithDependencies{}, err
	}
	deps, err := s.GetDependencies(id)
	if err != nil {
		return WithDependencies{}, err
	}
	dependents, err := s.GetDependents(id)
	if err != nil {
		return WithDependencies{}, err
	}
	return WithDependencies{Task: t, DependsOn: deps, Dependents: dependents}, nil
}

// GetAllDependencies returns every (from, to) edge.
func (s *Store) GetAllDependencies() ([][2]TaskID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT from_task_id, to_task_id FROM task_dependencies`)
	if err != nil {
		return nil, &errs.StorageError{Detail: "get all dependencies", Cause: err}
	}
	defer rows.Close()
	var out [][2]TaskID
	for rows.Next() {
		var from, to TaskID
		if err := rows.Scan(&from, &to); err != nil {
			return nil, &errs.StorageError{Detail: "scan dependency", Cause: err}
		}
		out = append(out, [2]TaskID{from, to})
	}
	return out, rows.Err()
}

// GetReadyTasks returns non-terminal tasks with no outgoing edge to
// another non-terminal task.
func (s *Store) GetReadyTasks() ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.description, t.status, t.symbol_id, t.project_path, t.created_at, t.updated_at
		FROM tasks t
		WHERE t.status NOT IN ('done', 'cancelled')
		  AND NOT EXISTS (
		      SELECT 1 FROM task_dependencies d
		      JOIN tasks dep ON d.to_task_id = dep.id
		      WHERE d.from_task_id = t.id AND dep.status NOT IN ('done', 'cancelled')
		  )
		ORDER BY t.created_at ASC`)
	if err != nil {
		return nil, &errs.StorageError{Detail: "get ready tasks", Cause: err}
	}
	return scanTasks(rows)
}

// GetBlockedTasks returns non-terminal tasks with at least one outgoing
// edge to a non-terminal task.
func (s *Store) GetBlockedTasks() ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`
		SELECT DISTINCT t.id, t.title, t.description, t.status, t.symbol_id, t.project_path, t.created_at, t.updated_at
		FROM tasks t
		JOIN task_dependencies d ON t.id = d.from_task_id
		JOIN tasks dep ON d.to_task_id = dep.id
		WHERE t.status NOT IN ('done', 'cancelled') AND dep.status NOT IN ('done', 'cancelled')`)
	if err != nil {
		return nil, &errs.StorageError{Detail: "get blocked tasks", Cause: err}
	}
	return scanTasks(rows)
}

// GetTransitiveDependencies walks every dependency reachable from id.
func (s *Store) GetTransitiveDependencies(id TaskID) ([]TaskID, error) {
	return s.transitiveWalk(id, s.dependencyTargets)
}

// GetTransitiveDependents walks every task reachable by following edges
// backwards from id (everything that, directly or indirectly, depends on
// id).
func (s *Store) GetTransitiveDependents(id TaskID) ([]TaskID, error) {
	return s.transitiveWalk(id, s.dependentsOf)
}

func (s *Store) dependentsOf(to TaskID) ([]TaskID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT from_task_id FROM task_dependencies WHERE to_task_id = ?`, to)
	if err != nil {
		return nil, &errs.StorageError{Detail: "dependents of", Cause: err}
	}
	defer rows.Close()
	var out []TaskID
	for rows.Next() {
		var id TaskID
		if err := rows.Scan(&id); err != nil {
			return nil, &errs.StorageError{Detail: "scan dependent", Cause: err}
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) transitiveWalk(start TaskID, next func(TaskID) ([]TaskID, error)) ([]TaskID, error) {
	visited := map[TaskID]bool{}
	var out []TaskID
	queue := []TaskID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		neighbors, err := next(id)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if !visited[n] {
				visited[n] = true
				out = append(out, n)
				queue = append(queue, n)
			}
		}
	}
	return out, nil
}

// DetectCycles runs DFS-coloring over the whole dependency graph and
// returns every cycle found as an ordered vertex list. With add_dependency
// rejecting cycle-forming edges up front this should always return an
// empty slice in practice; it exists as a standalone invariant check and
// for graphs ingested outside that gate (e.g. test fixtures).
func (s *Store) DetectCycles() ([][]TaskID, error) {
	edges, err := s.GetAllDependencies()
	if err != nil {
		return nil, err
	}
	adj := map[TaskID][]TaskID{}
	nodes := map[TaskID]bool{}
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		nodes[e[0]] = true
		nodes[e[1]] = true
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[TaskID]int{}
	var stack []TaskID
	var cycles [][]TaskID

	var visit func(TaskID)
	visit = func(id TaskID) {
		color[id] = gray
		stack = append(stack, id)
		for _, n := range adj[id] {
			switch color[n] {
			case white:
				visit(n)
			case gray:
				// n is on the current stack: the cycle runs from n to the
				// top of the stack and back to n.
				start := 0
				for i, v := range stack {
					if v == n {
						start = i
						break
					}
				}
				cycle := append([]TaskID{}, stack[start:]...)
				cycles = append(cycles, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for id := range nodes {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles, nil
}

// Status returns an aggregate snapshot of this store, including whether
// the dependency graph currently contains a cycle.
func (s *Store) Status() (TasksStatus, error) {
	s.mu.RLock()
	var st TasksStatus
	counts := []struct {
		dest  *int64
		query string
	}{
		{&st.TotalTasks, `SELECT COUNT(*) FROM tasks`},
		{&st.TodoCount, `SELECT COUNT(*) FROM tasks WHERE status = 'todo'`},
		{&st.InProgressCount, `SELECT COUNT(*) FROM tasks WHERE status = 'in_progress'`},
		{&st.DoneCount, `SELECT COUNT(*) FROM tasks WHERE status = 'done'`},
		{&st.BlockedCount, `SELECT COUNT(*) FROM tasks WHERE status = 'blocked'`},
		{&st.CancelledCount, `SELECT COUNT(*) FROM tasks WHERE status = 'cancelled'`},
		{&st.TotalDependencies, `SELECT COUNT(*) FROM task_dependencies`},
	}
	var scanErr error
	for _, c := range counts {
		if scanErr = s.db.QueryRow(c.query).Scan(c.dest); scanErr != nil {
			break
		}
	}
	s.mu.RUnlock()
	if scanErr != nil {
		return TasksStatus{}, &errs.StorageError{Detail: "task status", Cause: scanErr}
	}

	cycles, err := s.DetectCycles()
	if err != nil {
		return TasksStatus{}, err
	}
	st.HasCycles = len(cycles) > 0
	return st, nil
}
