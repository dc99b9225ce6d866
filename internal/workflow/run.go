package workflow

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Schema is the JSON shape emitted by `workflow <name> --schema`.
type Schema struct {
	Workflow    string        `json:"workflow"`
	Description string        `json:"description"`
	Inputs      []SchemaInput `json:"inputs"`
	Usage       string        `json:"usage"`
}

// SchemaInput describes one input's shape without resolving any dynamic
// option source, keeping --schema free of side effects.
type SchemaInput struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options,omitempty"`
	OptionsDynamic string   `json:"options_dynamic,omitempty"`
	Default        string   `json:"default,omitempty"`
	Env            string   `json:"env,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Validation     string   `json:"validation,omitempty"`
}

// BuildSchema describes a workflow's inputs without executing options_cmd
// or resolving an options_source, so emitting the schema never touches the
// filesystem beyond the workflow file itself.
func BuildSchema(f *File) Schema {
	inputs := make([]SchemaInput, 0, len(f.Inputs))
	names := make([]string, 0, len(f.Inputs))
	for _, in := range f.Inputs {
		names = append(names, in.Name)
		si := SchemaInput{
			Name:       in.Name,
			Type:       string(in.Type),
			Prompt:     in.Prompt,
			Options:    in.Options,
			Default:    in.Default,
			Env:        in.Env,
			Condition:  in.Condition,
			Validation: in.Validation,
		}
		if in.OptionsCmd != "" {
			si.OptionsDynamic = fmt.Sprintf("cmd: %s", in.OptionsCmd)
		} else if in.OptionsSource != nil {
			si.OptionsDynamic = fmt.Sprintf("source: %s", in.OptionsSource.Kind)
		}
		inputs = append(inputs, si)
	}
	return Schema{
		Workflow:    f.Name(),
		Description: f.Description(),
		Inputs:      inputs,
		Usage:       SuggestInvocation(names),
	}
}

// RunResult is the outcome of one Run invocation: the opaque id minted for
// it, and each executed step's result.
type RunResult struct {
	RunID string
	Steps []StepResult
}

// Run resolves a workflow's inputs and executes its steps in order. It
// combines CollectInputs and ExecuteSteps, the two halves a CLI driving a
// `workflow <name>` invocation needs. Each call mints its own run id so
// repeated or concurrent runs of the same workflow are distinguishable in
// logs and in whatever a caller reports back to the user.
func Run(ctx context.Context, cwd string, f *File, prefilled map[string]string, interactive bool, stdout, stderr io.Writer, log *zap.Logger) (RunResult, error) {
	runID := uuid.NewString()

	values, err := CollectInputs(f, cwd, prefilled, interactive)
	if err != nil {
		return RunResult{RunID: runID}, err
	}
	steps, err := ExecuteSteps(ctx, f, runID, values, stdout, stderr, log)
	return RunResult{RunID: runID, Steps: steps}, err
}
