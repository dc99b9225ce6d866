// Package taskengine implements the task engine (spec §4.E): a DAG-backed
// task store with cycle prevention and ready/blocked projection, one
// instance per project plus a distinguished global store, unified by a
// Collection for cross-project queries.
//
// Grounded in the pack's josephgoksu-TaskWing internal/task/dag.go
// (VerifyDAG/TopologicalSort DFS pattern, adapted here from an in-memory
// slice check to a DFS reachability query against the live
// task_dependencies table) and original_source's
// crates/tasks/core/src/storage/sqlite.rs / crates/adi-tasks/core/src/lib.rs
// for the exact schema, cycle-prevention algorithm, and ready/blocked
// projection semantics.
package taskengine

// TaskID identifies a task within one store. IDs are not unique across
// stores in a Collection — a Task's ProjectPath disambiguates it.
type TaskID int64

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// terminal reports whether a task in this status counts as complete for
// dependency-resolution purposes (ready/blocked projection, cycle-free
// traversal of "still active" edges).
func (s Status) terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// Task is one unit of work, optionally linked to a code symbol and scoped
// to a project.
type Task struct {
	ID          TaskID
	Title       string
	Description string
	Status      Status
	SymbolID    *int64
	ProjectPath string
	CreatedAt   int64
	UpdatedAt   int64
}

// CreateTask is the input to Store.CreateTask. DependsOn is applied after
// the row is inserted, one AddDependency call per entry.
type CreateTask struct {
	Title       string
	Description string
	SymbolID    *int64
	ProjectPath string
	DependsOn   []TaskID
}

// WithDependencies bundles a task with its direct dependency edges in both
// directions.
type WithDependencies struct {
	Task       Task
	DependsOn  []Task
	Dependents []Task
}

// TasksStatus is an aggregate snapshot of a store (or a Collection).
type TasksStatus struct {
	TotalTasks        int64
	TodoCount         int64
	InProgressCount   int64
	DoneCount         int64
	BlockedCount      int64
	CancelledCount    int64
	TotalDependencies int64
	HasCycles         bool
}
