package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"adi/internal/errs"
	"adi/internal/workflow"
)

var (
	workflowInputs []string
	workflowSchema bool
)

var workflowCmd = &cobra.Command{
	Use:   "workflow <name> [--input k=v]...",
	Short: "Run a TOML-defined workflow from ./.adi/workflows or ~/.adi/workflows",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		f, err := workflow.Find(root, args[0])
		if err != nil {
			return err
		}

		if workflowSchema {
			return json.NewEncoder(os.Stdout).Encode(workflow.BuildSchema(f))
		}

		prefilled, err := parseWorkflowInputs(workflowInputs)
		if err != nil {
			return err
		}

		ctx, cancel := contextWithTimeout(cmd)
		defer cancel()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		result, err := workflow.Run(ctx, root, f, prefilled, interactive, os.Stdout, os.Stderr, logger)
		if err != nil {
			var missing *errs.MissingInputs
			if errors.As(err, &missing) {
				fmt.Fprintln(os.Stderr, "missing inputs, supply them with:", workflow.SuggestInvocation(missing.Names))
			}
			return err
		}
		fmt.Fprintln(os.Stderr, "run:", result.RunID)
		return nil
	},
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every visible workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		files, err := workflow.Discover(root)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%s\t%s\n", f.Name(), f.Description())
		}
		return nil
	},
}

var workflowShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a workflow's inputs and steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		f, err := workflow.Find(root, args[0])
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(f)
	},
}

func parseWorkflowInputs(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		idx := strings.Index(kv, "=")
		if idx < 0 {
			return nil, fmt.Errorf("invalid --input %q, expected name=value", kv)
		}
		out[kv[:idx]] = kv[idx+1:]
	}
	return out, nil
}

func init() {
	workflowCmd.Flags().StringArrayVarP(&workflowInputs, "input", "i", nil, "Prefilled input as name=value")
	workflowCmd.Flags().BoolVar(&workflowSchema, "schema", false, "Emit the workflow's input schema as JSON and exit")
	workflowCmd.AddCommand(workflowListCmd, workflowShowCmd)
}
