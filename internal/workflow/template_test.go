package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_SubstitutesValues(t *testing.T) {
	out, err := render("hello {{.name}}", map[string]string{"name": "world"})
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestRender_Filters(t *testing.T) {
	out, err := render(`{{if starts_with .branch "release/"}}release{{else}}dev{{end}}`, map[string]string{"branch": "release/1.0"})
	require.NoError(t, err)
	require.Equal(t, "release", out)

	out, err = render(`{{if contains .branch "hotfix"}}yes{{else}}no{{end}}`, map[string]string{"branch": "hotfix-123"})
	require.NoError(t, err)
	require.Equal(t, "yes", out)
}

func TestIsFalsy(t *testing.T) {
	for _, s := range []string{"", "false", "FALSE", "0", "none", "  none  "} {
		require.True(t, isFalsy(s), s)
	}
	for _, s := range []string{"true", "1", "yes", "anything"} {
		require.False(t, isFalsy(s), s)
	}
}

func TestEvaluateCondition(t *testing.T) {
	ok, err := evaluateCondition("", nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = evaluateCondition("{{.flag}}", map[string]string{"flag": "false"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = evaluateCondition("{{.flag}}", map[string]string{"flag": "yes"})
	require.NoError(t, err)
	require.True(t, ok)
}
