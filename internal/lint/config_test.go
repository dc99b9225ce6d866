package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleLintConfig = `
[[rule]]
id = "no-unwrap"
categories = ["error_handling"]
patterns = ["**/*.go"]
kind = "regex-forbid"
pattern = "\\.unwrap\\(\\)"
message = "avoid unwrap"
severity = "error"

[[rule]]
id = "eslint"
categories = ["code_quality"]
patterns = ["**/*.js"]
exec = "eslint --format json {file}"
output_mode = "json"
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lint.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleLintConfig), 0o644))

	registry, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, registry.Linters(), 2)
}

func TestLoadConfig_BadPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lint.toml")
	content := "[[rule]]\nid = \"bad\"\nkind = \"regex-forbid\"\npattern = \"(unclosed\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
