package lang

import (
	"testing"

	"adi/internal/codegraph"

	"github.com/stretchr/testify/require"
)

func TestGoAnalyzer_ExtractSymbols_Function(t *testing.T) {
	src := []byte(`package lib

// Greet says hello.
func Greet(name string) string { return "Hello, " + name }
`)
	a := NewGoAnalyzer()
	syms, err := a.ExtractSymbols(src)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	require.Equal(t, "Greet", syms[0].Name)
	require.Equal(t, codegraph.KindFunction, syms[0].Kind)
	require.Equal(t, codegraph.VisPublic, syms[0].Visibility)
	require.Contains(t, syms[0].Signature, "func Greet(name string) string")
	require.Equal(t, "Greet says hello.", syms[0].DocComment)
}

func TestGoAnalyzer_ExtractSymbols_StructWithFields(t *testing.T) {
	src := []byte(`package lib

type Point struct {
	X int
	Y int
}

func (p Point) Sum() int { return p.X + p.Y }
`)
	a := NewGoAnalyzer()
	syms, err := a.ExtractSymbols(src)
	require.NoError(t, err)
	require.Len(t, syms, 2) // Point struct, Sum method
	var pointSym *codegraph.ParsedSymbol
	for i := range syms {
		if syms[i].Name == "Point" {
			pointSym = &syms[i]
		}
	}
	require.NotNil(t, pointSym)
	require.Equal(t, codegraph.KindStruct, pointSym.Kind)
	require.Len(t, pointSym.Children, 2)
}

func TestGoAnalyzer_ExtractReferences_Call(t *testing.T) {
	src := []byte(`package lib

func foo() {}
func bar() { foo() }
`)
	a := NewGoAnalyzer()
	refs, err := a.ExtractReferences(src)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "foo", refs[0].Name)
	require.Equal(t, codegraph.RefCall, refs[0].Kind)
}

func TestDispatcher_UnregisteredLanguageYieldsEmpty(t *testing.T) {
	d := NewDispatcher(nil)
	pf, _, err := d.Parse([]byte("whatever"), codegraph.LangUnknown)
	require.NoError(t, err)
	require.Empty(t, pf.Symbols)
	require.Empty(t, pf.References)
}
