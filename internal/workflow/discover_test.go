package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"adi/internal/errs"

	"github.com/stretchr/testify/require"
)

func writeWorkflow(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "[workflow]\nname = \"" + name + "\"\ndescription = \"d\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o644))
}

func TestFind_LocalThenGlobal(t *testing.T) {
	cwd := t.TempDir()
	writeWorkflow(t, localDir(cwd), "deploy")

	f, err := Find(cwd, "deploy")
	require.NoError(t, err)
	require.Equal(t, "deploy", f.Name())
}

func TestFind_NotFound(t *testing.T) {
	cwd := t.TempDir()
	_, err := Find(cwd, "missing")
	require.Error(t, err)
	var notFound *errs.WorkflowNotFound
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.Name)
}

func TestDiscover_SortsByNameAndDedupes(t *testing.T) {
	cwd := t.TempDir()
	writeWorkflow(t, localDir(cwd), "zeta")
	writeWorkflow(t, localDir(cwd), "alpha")

	files, err := Discover(cwd)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "alpha", files[0].Name())
	require.Equal(t, "zeta", files[1].Name())
}
