package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFromCommand(t *testing.T) {
	lines, err := resolveFromCommand("printf 'a\\nb\\n\\nc\\n'", t.TempDir())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestResolveOptions_Priority(t *testing.T) {
	in := Input{
		Options:    []string{"static"},
		OptionsCmd: "echo from-cmd",
	}
	opts, err := resolveOptions(in, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, []string{"from-cmd"}, opts)
}

func TestResolveOptions_StaticFallback(t *testing.T) {
	in := Input{Options: []string{"a", "b"}}
	opts, err := resolveOptions(in, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, opts)
}

func TestGlobEntries_Directories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "services"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "services", "api"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "services", "web"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services", "notadir"), nil, 0o644))

	names, err := globEntries(dir, "services", "", true)
	require.NoError(t, err)
	require.Equal(t, []string{"api", "web"}, names)
}

func TestLinesFromFile_SkipsBlankAndComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\n\n# comment\ntwo\n"), 0o644))

	lines, err := linesFromFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, lines)
}

func TestScanComposeServices(t *testing.T) {
	yamlDoc := []byte("services:\n  web:\n    image: nginx\n  db:\n    image: postgres\n")
	names, err := scanComposeServices(yamlDoc)
	require.NoError(t, err)
	require.Equal(t, []string{"db", "web"}, names)
}

func TestReleaseServices(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "release", "api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release", "api", "Dockerfile"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "release", "nested", "web"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release", "nested", "web", "Dockerfile"), nil, 0o644))

	names, err := releaseServices(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"api", "web"}, names)
}
