package vectorindex

import (
	"path/filepath"
	"testing"

	"adi/internal/codegraph"

	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "vectors.sqlite"), 3, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_AddSearchRemove(t *testing.T) {
	idx := openTestIndex(t)

	require.NoError(t, idx.Add(1, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(2, []float32{0, 1, 0}))
	require.NoError(t, idx.Add(3, []float32{0.9, 0.1, 0}))

	matches, err := idx.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, codegraph.SymbolID(1), matches[0].ID)

	require.NoError(t, idx.Remove(1))
	matches, err = idx.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	for _, m := range matches {
		require.NotEqual(t, codegraph.SymbolID(1), m.ID)
	}
}

func TestIndex_AddDuplicateKey(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Add(1, []float32{1, 2, 3}))
	err := idx.Add(1, []float32{4, 5, 6})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := openTestIndex(t)
	err := idx.Add(1, []float32{1, 2})
	require.Error(t, err)
}
