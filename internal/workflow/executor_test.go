package workflow

import (
	"bytes"
	"context"
	"testing"

	"adi/internal/errs"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecuteSteps_Success(t *testing.T) {
	f := &File{Steps: []Step{
		{Name: "greet", Run: "echo hello {{.name}}"},
	}}
	var stdout, stderr bytes.Buffer
	results, err := ExecuteSteps(context.Background(), f, "test-run", map[string]string{"name": "world"}, &stdout, &stderr, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, stdout.String(), "hello world")
}

func TestExecuteSteps_ConditionSkips(t *testing.T) {
	f := &File{Steps: []Step{
		{Name: "skip-me", Condition: "{{.run_it}}", Run: "echo should-not-run"},
	}}
	var stdout, stderr bytes.Buffer
	results, err := ExecuteSteps(context.Background(), f, "test-run", map[string]string{"run_it": "false"}, &stdout, &stderr, zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, stdout.String())
}

func TestExecuteSteps_FailureAbortsRemaining(t *testing.T) {
	f := &File{Steps: []Step{
		{Name: "fails", Run: "exit 7"},
		{Name: "never-runs", Run: "echo nope"},
	}}
	var stdout, stderr bytes.Buffer
	results, err := ExecuteSteps(context.Background(), f, "test-run", nil, &stdout, &stderr, zap.NewNop())
	require.Error(t, err)
	require.Empty(t, results)

	var stepFailed *errs.StepFailed
	require.ErrorAs(t, err, &stepFailed)
	require.Equal(t, "fails", stepFailed.Name)
	require.Equal(t, 7, stepFailed.ExitCode)
	require.NotContains(t, stdout.String(), "nope")
}
