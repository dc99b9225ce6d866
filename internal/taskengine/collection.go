package taskengine

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Collection holds one Store per canonical project path, with the global
// store as a distinguished member, and unions cross-project queries.
//
// Grounded in crates/adi-tasks/core/src/lib.rs's TaskManagerCollection: a
// HashMap<PathBuf, TaskManager> keyed by canonicalized path, with
// list_all_tasks/status/search/get_by_status/get_ready/get_blocked each
// iterating every member and merging results.
type Collection struct {
	mu     sync.Mutex
	stores map[string]*Store
	log    *zap.Logger
}

// NewCollection creates an empty collection.
func NewCollection(log *zap.Logger) *Collection {
	return &Collection{
		stores: map[string]*Store{},
		log:    log,
	}
}

// GlobalPath returns the global task store's directory, following the
// original's dirs::data_local_dir() with XDG_DATA_HOME honored first, per
// the XDG base directory spec.
func GlobalPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "adi", "tasks")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "adi", "tasks")
	}
	return filepath.Join(home, ".local", "share", "adi", "tasks")
}

func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return real
}

// Add opens (or returns the already-open) store for the project at path.
func (c *Collection) Add(path string) (*Store, error) {
	canonical := canonicalize(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[canonical]; ok {
		return s, nil
	}
	dbPath := filepath.Join(canonical, ".adi", "tasks", "tasks.sqlite")
	s, err := Open(dbPath, canonical, c.log)
	if err != nil {
		return nil, err
	}
	c.stores[canonical] = s
	return s, nil
}

// AddGlobal opens (or returns) the global store.
func (c *Collection) AddGlobal() (*Store, error) {
	globalDir := GlobalPath()

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[globalDir]; ok {
		return s, nil
	}
	s, err := Open(filepath.Join(globalDir, "tasks.sqlite"), "", c.log)
	if err != nil {
		return nil, err
	}
	c.stores[globalDir] = s
	return s, nil
}

// Get returns the store for path, if already added.
func (c *Collection) Get(path string) (*Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stores[canonicalize(path)]
	return s, ok
}

// GetGlobal returns the global store, if already added.
func (c *Collection) GetGlobal() (*Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stores[GlobalPath()]
	return s, ok
}

// Remove closes and drops the store for path, if present.
func (c *Collection) Remove(path string) error {
	canonical := canonicalize(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stores[canonical]
	if !ok {
		return nil
	}
	delete(c.stores, canonical)
	return s.Close()
}

// Contains reports whether path has an open store in the collection.
func (c *Collection) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stores[canonicalize(path)]
	return ok
}

// Len returns the number of open stores.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stores)
}

func (c *Collection) snapshot() []*Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Store, 0, len(c.stores))
	for _, s := range c.stores {
		out = append(out, s)
	}
	return out
}

// ListAllTasks unions every member store's tasks, sorted by CreatedAt
// descending.
func (c *Collection) ListAllTasks() ([]Task, error) {
	var all []Task
	for _, s := range c.snapshot() {
		tasks, err := s.ListTasks(nil)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt > all[j].CreatedAt })
	return all, nil
}

// Status returns a combined TasksStatus across every member store.
func (c *Collection) Status() (TasksStatus, error) {
	var combined TasksStatus
	for _, s := range c.snapshot() {
		st, err := s.Status()
		if err != nil {
			return TasksStatus{}, err
		}
		combined.TotalTasks += st.TotalTasks
		combined.TodoCount += st.TodoCount
		combined.InProgressCount += st.InProgressCount
		combined.DoneCount += st.DoneCount
		combined.BlockedCount += st.BlockedCount
		combined.CancelledCount += st.CancelledCount
		combined.TotalDependencies += st.TotalDependencies
		combined.HasCycles = combined.HasCycles || st.HasCycles
	}
	return combined, nil
}

// Search runs FTS search against every member store, stopping once limit
// results have been collected.
func (c *Collection) Search(query string, limit int) ([]Task, error) {
	var out []Task
	for _, s := range c.snapshot() {
		if len(out) >= limit {
			break
		}
		remaining := limit - len(out)
		tasks, err := s.SearchFTS(query, remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, tasks...)
	}
	return out, nil
}

// GetByStatus unions tasks in the given status across every member store.
func (c *Collection) GetByStatus(status Status) ([]Task, error) {
	var out []Task
	for _, s := range c.snapshot() {
		tasks, err := s.GetTasksByStatus(status)
		if err != nil {
			return nil, err
		}
		out = append(out, tasks...)
	}
	return out, nil
}

// GetReady unions ready tasks across every member store.
func (c *Collection) GetReady() ([]Task, error) {
	var out []Task
	for _, s := range c.snapshot() {
		tasks, err := s.GetReadyTasks()
		if err != nil {
			return nil, err
		}
		out = append(out, tasks...)
	}
	return out, nil
}

// GetBlocked unions blocked tasks across every member store.
func (c *Collection) GetBlocked() ([]Task, error) {
	var out []Task
	for _, s := range c.snapshot() {
		tasks, err := s.GetBlockedTasks()
		if err != nil {
			return nil, err
		}
		out = append(out, tasks...)
	}
	return out, nil
}

// Close closes every member store.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for path, s := range c.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.stores, path)
	}
	return firstErr
}
