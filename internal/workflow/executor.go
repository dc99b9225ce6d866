package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"adi/internal/errs"
	"go.uber.org/zap"
)

// StepResult captures one executed step's outcome for callers that want to
// report progress (e.g. the CLI).
type StepResult struct {
	Name   string
	Output string
}

// ExecuteSteps runs every step of f in order against the resolved values,
// rendering each step's condition and run body first. Step output is
// streamed to stdout/stderr. Any step failure aborts the remaining steps.
// runID tags every log line so concurrent or repeated invocations of the
// same workflow can be told apart in shared log output.
func ExecuteSteps(ctx context.Context, f *File, runID string, values map[string]string, stdout, stderr io.Writer, log *zap.Logger) ([]StepResult, error) {
	log = log.With(zap.String("run_id", runID), zap.String("workflow", f.Name()))
	results := make([]StepResult, 0, len(f.Steps))

	for _, step := range f.Steps {
		ok, err := evaluateCondition(step.Condition, values)
		if err != nil {
			return results, fmt.Errorf("step %q condition: %w", step.Name, err)
		}
		if !ok {
			log.Debug("step skipped", zap.String("step", step.Name))
			continue
		}

		body, err := render(step.Run, values)
		if err != nil {
			return results, fmt.Errorf("step %q: render run body: %w", step.Name, err)
		}

		log.Info("step starting", zap.String("step", step.Name))

		var captured bytes.Buffer
		cmd := exec.CommandContext(ctx, "sh", "-c", body)
		cmd.Stdout = io.MultiWriter(stdout, &captured)
		cmd.Stderr = io.MultiWriter(stderr, &captured)

		if err := cmd.Run(); err != nil {
			exitCode := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			}
			return results, &errs.StepFailed{Name: step.Name, ExitCode: exitCode, Stderr: captured.String()}
		}

		results = append(results, StepResult{Name: step.Name, Output: captured.String()})
		log.Info("step finished", zap.String("step", step.Name))
	}

	return results, nil
}
