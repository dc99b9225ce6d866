package taskengine

import (
	"path/filepath"
	"testing"

	"adi/internal/errs"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.sqlite"), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateAndGetTask(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateTask(CreateTask{Title: "Test task", Description: "A test"})
	require.NoError(t, err)

	got, err := s.GetTask(id)
	require.NoError(t, err)
	require.Equal(t, "Test task", got.Title)
	require.Equal(t, "A test", got.Description)
	require.Equal(t, StatusTodo, got.Status)
}

func TestStore_UpdateStatus(t *testing.T) {
	s := openTestStore(t)
	id, err := s.CreateTask(CreateTask{Title: "Task"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(id, StatusInProgress))

	got, err := s.GetTask(id)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, got.Status)
}

func TestStore_Dependencies(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.CreateTask(CreateTask{Title: "Task 1"})
	require.NoError(t, err)
	id2, err := s.CreateTask(CreateTask{Title: "Task 2"})
	require.NoError(t, err)

	require.NoError(t, s.AddDependency(id2, id1)) // task2 depends on task1

	deps, err := s.GetDependencies(id2)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	require.Equal(t, id1, deps[0].ID)

	dependents, err := s.GetDependents(id1)
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	require.Equal(t, id2, dependents[0].ID)
}

func TestStore_ReadyAndBlockedTasks(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.CreateTask(CreateTask{Title: "Task 1"})
	require.NoError(t, err)
	id2, err := s.CreateTask(CreateTask{Title: "Task 2"})
	require.NoError(t, err)

	require.NoError(t, s.AddDependency(id2, id1))

	ready, err := s.GetReadyTasks()
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, id1, ready[0].ID)

	blocked, err := s.GetBlockedTasks()
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	require.Equal(t, id2, blocked[0].ID)

	require.NoError(t, s.UpdateStatus(id1, StatusDone))

	ready, err = s.GetReadyTasks()
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, id2, ready[0].ID)

	blocked, err = s.GetBlockedTasks()
	require.NoError(t, err)
	require.Empty(t, blocked)
}

func TestStore_SelfDependencyRejected(t *testing.T) {
	s := openTestStore(t)
	id, err := s.CreateTask(CreateTask{Title: "Task 1"})
	require.NoError(t, err)

	err = s.AddDependency(id, id)
	var selfDep *errs.SelfDependency
	require.ErrorAs(t, err, &selfDep)
}

func TestStore_CyclePrevention(t *testing.T) {
	s := openTestStore(t)

	t1, err := s.CreateTask(CreateTask{Title: "Task 1"})
	require.NoError(t, err)
	t2, err := s.CreateTask(CreateTask{Title: "Task 2"})
	require.NoError(t, err)
	t3, err := s.CreateTask(CreateTask{Title: "Task 3"})
	require.NoError(t, err)

	require.NoError(t, s.AddDependency(t2, t1))
	require.NoError(t, s.AddDependency(t3, t2))

	err = s.AddDependency(t1, t3)
	var cycleErr *errs.WouldCreateCycle
	require.ErrorAs(t, err, &cycleErr)

	cycles, err := s.DetectCycles()
	require.NoError(t, err)
	require.Empty(t, cycles)
}

func TestStore_FTSSearch(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateTask(CreateTask{Title: "Fix the parser", Description: "handles malformed input"})
	require.NoError(t, err)
	_, err = s.CreateTask(CreateTask{Title: "Write docs"})
	require.NoError(t, err)

	results, err := s.SearchFTS("parser", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Fix the parser", results[0].Title)
}

func TestCollection_CrossProjectQueries(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	c := NewCollection(nil)
	t.Cleanup(func() { c.Close() })

	s1, err := c.Add(dir1)
	require.NoError(t, err)
	s2, err := c.Add(dir2)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	_, err = s1.CreateTask(CreateTask{Title: "Task 1"})
	require.NoError(t, err)
	_, err = s2.CreateTask(CreateTask{Title: "Task 2"})
	require.NoError(t, err)

	all, err := c.ListAllTasks()
	require.NoError(t, err)
	require.Len(t, all, 2)

	status, err := c.Status()
	require.NoError(t, err)
	require.EqualValues(t, 2, status.TotalTasks)
}
