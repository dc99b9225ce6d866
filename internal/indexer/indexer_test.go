package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"adi/internal/graphstore"
	"adi/internal/lang"
	"adi/internal/vectorindex"

	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a deterministic fixed-dimension vector derived from
// text length, so embedding-gated code paths exercise without a real model.
type stubEmbedder struct{ dims int }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, s.dims)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}
func (s *stubEmbedder) Dimensions() int   { return s.dims }
func (s *stubEmbedder) ModelName() string { return "stub" }

func newTestIndexer(t *testing.T) (*Indexer, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := graphstore.Open(filepath.Join(dir, "graph.sqlite"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	vecs, err := vectorindex.Open(filepath.Join(dir, "vectors.sqlite"), 4, nil)
	require.NoError(t, err)
	t.Cleanup(func() { vecs.Close() })

	dispatch := lang.NewDispatcher(nil)
	ix := New(store, vecs, dispatch, &stubEmbedder{dims: 4}, nil)

	projectDir := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	return ix, projectDir
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestIndexer_IndexProject_SymbolsAndReferences(t *testing.T) {
	ix, projectDir := newTestIndexer(t)

	writeFile(t, projectDir, "lib.go", `package lib

func Foo() {}

func Bar() { Foo() }
`)

	progress, err := ix.IndexProject(context.Background(), projectDir, DefaultDiscoveryConfig())
	require.NoError(t, err)
	require.Equal(t, 1, progress.FilesProcessed)
	require.Equal(t, 2, progress.SymbolsIndexed)

	syms, err := ix.FindSymbolsByName("Foo")
	require.NoError(t, err)
	require.Len(t, syms, 1)

	refs, err := ix.store.ReferencesTo(syms[0].ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

func TestIndexer_IndexProject_IdempotentOnUnchangedFile(t *testing.T) {
	ix, projectDir := newTestIndexer(t)
	writeFile(t, projectDir, "lib.go", "package lib\n\nfunc Foo() {}\n")

	_, err := ix.IndexProject(context.Background(), projectDir, DefaultDiscoveryConfig())
	require.NoError(t, err)

	progress, err := ix.IndexProject(context.Background(), projectDir, DefaultDiscoveryConfig())
	require.NoError(t, err)
	require.Equal(t, 0, progress.SymbolsIndexed)

	syms, err := ix.FindSymbolsByName("Foo")
	require.NoError(t, err)
	require.Len(t, syms, 1)
}

func TestIndexer_ReindexPaths_RemovesStaleSymbols(t *testing.T) {
	ix, projectDir := newTestIndexer(t)
	writeFile(t, projectDir, "lib.go", "package lib\n\nfunc Foo() {}\n")

	_, err := ix.IndexProject(context.Background(), projectDir, DefaultDiscoveryConfig())
	require.NoError(t, err)

	writeFile(t, projectDir, "lib.go", "package lib\n\nfunc Renamed() {}\n")
	require.NoError(t, ix.ReindexPaths(context.Background(), projectDir, []string{"lib.go"}))

	syms, err := ix.FindSymbolsByName("Foo")
	require.NoError(t, err)
	require.Empty(t, syms)

	syms, err = ix.FindSymbolsByName("Renamed")
	require.NoError(t, err)
	require.Len(t, syms, 1)
}
