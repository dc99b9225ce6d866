package workflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildSchema_NeverResolvesDynamicOptions(t *testing.T) {
	f := &File{
		Workflow: workflowMeta{Name: "deploy", Description: "deploy a service"},
		Inputs: []Input{
			{Name: "service", Type: InputSelect, OptionsSource: &OptionsSource{Kind: SourceGitBranches}},
			{Name: "tag", Type: InputText, OptionsCmd: "git tag"},
			{Name: "region", Type: InputText, Options: []string{"us", "eu"}},
		},
	}
	schema := BuildSchema(f)
	require.Equal(t, "deploy", schema.Workflow)
	require.Len(t, schema.Inputs, 3)
	require.Equal(t, "source: git-branches", schema.Inputs[0].OptionsDynamic)
	require.Equal(t, "cmd: git tag", schema.Inputs[1].OptionsDynamic)
	require.Equal(t, []string{"us", "eu"}, schema.Inputs[2].Options)
	require.Contains(t, schema.Usage, "-i service=<value>")
}

func TestRun_MintsDistinctRunIDs(t *testing.T) {
	f := &File{
		Workflow: workflowMeta{Name: "greet"},
		Inputs:   []Input{{Name: "name", Type: InputText}},
		Steps:    []Step{{Name: "greet", Run: "echo hello {{.name}}"}},
	}
	prefilled := map[string]string{"name": "world"}

	var stdout, stderr bytes.Buffer
	first, err := Run(context.Background(), t.TempDir(), f, prefilled, false, &stdout, &stderr, zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, first.RunID)
	require.Len(t, first.Steps, 1)

	second, err := Run(context.Background(), t.TempDir(), f, prefilled, false, &stdout, &stderr, zap.NewNop())
	require.NoError(t, err)
	require.NotEqual(t, first.RunID, second.RunID)
}
