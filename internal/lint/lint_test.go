package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCommandLinter_RegexForbid(t *testing.T) {
	l, err := NewCommandLinter("no-todo", []Category{CategoryCodeQuality}, []string{"**/*.go"}, ScopeFile, SeverityWarning, CommandSpec{
		Kind: RegexForbid, Pattern: `TODO|FIXME`, Message: "Unresolved TODO",
	})
	require.NoError(t, err)

	lc := FileContext("test.go", "func main() {\n\t// TODO: fix this\n\tprintln(\"hello\")\n}")
	diags, err := l.Lint(context.Background(), lc)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, 2, diags[0].Location.StartLine)
}

func TestCommandLinter_MaxLineLength(t *testing.T) {
	l, err := NewCommandLinter("max-line", []Category{CategoryStyle}, []string{"**/*"}, ScopeFile, SeverityWarning, CommandSpec{
		Kind: MaxLineLength, Max: 10,
	})
	require.NoError(t, err)

	lc := FileContext("test.txt", "short\nthis line is way too long\nok")
	diags, err := l.Lint(context.Background(), lc)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, 2, diags[0].Location.StartLine)
}

func TestCommandLinter_RegexForbidWithFix(t *testing.T) {
	l, err := NewCommandLinter("no-panic", []Category{CategoryErrorHandling}, []string{"**/*.go"}, ScopeFile, SeverityWarning, CommandSpec{
		Kind:    RegexForbid,
		Pattern: `panic\(nil\)`,
		Message: "Avoid panic(nil)",
		Fix:     &RegexFix{Pattern: `panic\(nil\)`, Replacement: "panic(errNil)"},
	})
	require.NoError(t, err)

	lc := FileContext("test.go", "func f() { panic(nil) }")
	diags, err := l.Lint(context.Background(), lc)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.True(t, diags[0].IsFixable())
}

func TestRunner_Basic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.go"), []byte("func main() {\n\t// TODO: fix\n}\n"), 0o644))

	l, err := NewCommandLinter("test-linter", []Category{CategoryCodeQuality}, []string{"**/*.go"}, ScopeFile, SeverityWarning, CommandSpec{
		Kind: RegexForbid, Pattern: "TODO", Message: "Found TODO",
	})
	require.NoError(t, err)

	registry := NewRegistry()
	registry.Register(l)

	runner := NewRunner(registry, DefaultRunnerConfig(dir))
	result, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesChecked)
	require.Len(t, result.Diagnostics, 1)
	require.Equal(t, "Found TODO", result.Diagnostics[0].Message)
}

func TestRunner_Deduplication(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("// TODO\n"), 0o644))

	rule1, err := NewCommandLinter("rule1", []Category{CategorySecurity}, []string{"**/*.go"}, ScopeFile, SeverityError, CommandSpec{
		Kind: Contains, Text: "TODO", Message: "msg1",
	})
	require.NoError(t, err)
	rule1b, err := NewCommandLinter("rule1", []Category{CategorySecurity}, []string{"**/*.go"}, ScopeFile, SeverityError, CommandSpec{
		Kind: Contains, Text: "TODO", Message: "msg1",
	})
	require.NoError(t, err)

	registry := NewRegistry()
	registry.Register(rule1)
	registry.Register(rule1b)

	runner := NewRunner(registry, DefaultRunnerConfig(dir))
	result, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1) // deduped: same file/line/col/rule_id
}

func TestRunner_PriorityOrdering(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x\n"), 0o644))

	var order []string
	lowPriority, err := NewCommandLinter("low", []Category{CategoryStyle}, []string{"**/*.go"}, ScopeFile, SeverityInfo, CommandSpec{Kind: NotContains, Text: "zzz", Message: "low"})
	require.NoError(t, err)
	highPriority, err := NewCommandLinter("high", []Category{CategorySecurity}, []string{"**/*.go"}, ScopeFile, SeverityError, CommandSpec{Kind: NotContains, Text: "zzz", Message: "high"})
	require.NoError(t, err)

	registry := NewRegistry()
	registry.Register(lowPriority)
	registry.Register(highPriority)

	groups := registry.byPriorityGroupsDescending()
	for _, g := range groups {
		for _, l := range g.linters {
			order = append(order, l.ID())
		}
	}
	require.Equal(t, []string{"high", "low"}, order)
}
