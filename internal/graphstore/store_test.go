package graphstore

import (
	"path/filepath"
	"testing"

	"adi/internal/codegraph"
	"adi/internal/errs"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "graph.sqlite"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertFile(t *testing.T, s *Store, f codegraph.File) codegraph.FileID {
	t.Helper()
	tx, err := s.BeginTransaction()
	require.NoError(t, err)
	id, err := tx.InsertFile(f)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return id
}

// TestInsertFileGetFileRoundTrip exercises the round-trip law in spec §8:
// insert_file -> get_file fields round-trip exactly.
func TestInsertFileGetFileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := codegraph.File{
		Path:        "lib.rs",
		Language:    codegraph.LangRust,
		Hash:        "deadbeef",
		Size:        42,
		Description: "a library",
	}
	id := insertFile(t, s, want)
	want.ID = id

	got, err := s.GetFile("lib.rs")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("insert_file -> get_file round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetFileNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetFile("missing.go")
	require.Error(t, err)
	var nf *errs.NotFound
	require.ErrorAs(t, err, &nf)
}

// TestCascadingDelete exercises invariant §3.1/§8: after delete_file, no
// symbol with that file_id remains and no reference references any such
// symbol.
func TestCascadingDelete(t *testing.T) {
	s := newTestStore(t)
	fileID := insertFile(t, s, codegraph.File{Path: "a.go", Language: codegraph.LangGo, Hash: "h1", Size: 10})

	tx, err := s.BeginTransaction()
	require.NoError(t, err)
	fooID, err := tx.InsertSymbol(codegraph.Symbol{
		Name: "foo", Kind: codegraph.KindFunction, FileID: fileID,
		Location: codegraph.Location{StartLine: 1, EndLine: 1, StartByte: 0, EndByte: 10},
	})
	require.NoError(t, err)
	barID, err := tx.InsertSymbol(codegraph.Symbol{
		Name: "bar", Kind: codegraph.KindFunction, FileID: fileID,
		Location: codegraph.Location{StartLine: 2, EndLine: 2, StartByte: 11, EndByte: 20},
	})
	require.NoError(t, err)
	require.NoError(t, tx.InsertReferencesBatch([]codegraph.Reference{
		{FromSymbolID: barID, ToSymbolID: fooID, Kind: codegraph.RefCall, Location: codegraph.Location{StartLine: 2, EndLine: 2, StartByte: 15, EndByte: 18}},
	}))
	require.NoError(t, tx.Commit())

	syms, err := s.SymbolsForFile(fileID)
	require.NoError(t, err)
	require.Len(t, syms, 2)

	dtx, err := s.BeginTransaction()
	require.NoError(t, err)
	require.NoError(t, dtx.DeleteFile("a.go"))
	require.NoError(t, dtx.Commit())

	syms, err = s.SymbolsForFile(fileID)
	require.NoError(t, err)
	require.Empty(t, syms)

	refs, err := s.ReferencesTo(fooID)
	require.NoError(t, err)
	require.Empty(t, refs)

	refs, err = s.ReferencesFrom(barID)
	require.NoError(t, err)
	require.Empty(t, refs)

	_, err = s.GetFile("a.go")
	require.Error(t, err)
}

// TestFTSSearchSymbolsFindsExactMatch exercises end-to-end scenario 1
// (spec §8): a symbol-name search for "greet" returns exactly that symbol.
func TestFTSSearchSymbolsFindsExactMatch(t *testing.T) {
	s := newTestStore(t)
	fileID := insertFile(t, s, codegraph.File{Path: "lib.rs", Language: codegraph.LangRust, Hash: "h", Size: 1})

	tx, err := s.BeginTransaction()
	require.NoError(t, err)
	_, err = tx.InsertSymbol(codegraph.Symbol{
		Name: "greet", Kind: codegraph.KindFunction, FileID: fileID,
		Signature: `fn greet(name: &str) -> String`,
		Location:  codegraph.Location{StartLine: 1, EndLine: 1, StartByte: 0, EndByte: 60},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	matches, err := s.FTSSearchSymbols("greet", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "greet", matches[0].Symbol.Name)
}

func TestFTSSearchFiles(t *testing.T) {
	s := newTestStore(t)
	insertFile(t, s, codegraph.File{Path: "src/widgets/button.go", Language: codegraph.LangGo, Hash: "h", Size: 1})

	matches, err := s.FTSSearchFiles("button", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "src/widgets/button.go", matches[0].File.Path)
}

func TestUpdateStatusGetStatusRoundTrip(t *testing.T) {
	s := newTestStore(t)
	now := int64(1234567890)
	want := codegraph.Status{
		IndexedFiles:        3,
		IndexedSymbols:      12,
		EmbeddingDimensions: 384,
		EmbeddingModel:      "stub-embed-v1",
		LastIndexed:         &now,
	}

	tx, err := s.BeginTransaction()
	require.NoError(t, err)
	require.NoError(t, tx.UpdateStatus(want))
	require.NoError(t, tx.Commit())

	got, err := s.GetStatus()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("update_status -> get_status round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetStatusZeroValueWhenNeverIndexed(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetStatus()
	require.NoError(t, err)
	require.Equal(t, codegraph.Status{}, got)
}

func TestFileExistsAndGetFileHash(t *testing.T) {
	s := newTestStore(t)
	exists, err := s.FileExists("a.go")
	require.NoError(t, err)
	require.False(t, exists)

	insertFile(t, s, codegraph.File{Path: "a.go", Language: codegraph.LangGo, Hash: "abc123", Size: 5})

	exists, err = s.FileExists("a.go")
	require.NoError(t, err)
	require.True(t, exists)

	hash, ok, err := s.GetFileHash("a.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc123", hash)

	_, ok, err = s.GetFileHash("missing.go")
	require.NoError(t, err)
	require.False(t, ok)
}
