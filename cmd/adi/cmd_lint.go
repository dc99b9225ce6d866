package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"adi/internal/lint"
)

var lintFailFast bool

var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Run the configured lint rules (.adi/lint.toml) over the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		configPath := filepath.Join(root, ".adi", "lint.toml")
		registry, err := lint.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("no usable lint config at %s: %w", configPath, err)
		}

		cfg := lint.DefaultRunnerConfig(root)
		cfg.FailFast = lintFailFast
		runner := lint.NewRunner(registry, cfg)

		ctx, cancel := contextWithTimeout(cmd)
		defer cancel()

		var files []string
		if len(args) > 0 {
			files = args
		}

		result, err := runner.Run(ctx, files)
		if err != nil {
			return err
		}

		if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
			return err
		}
		if result.HasErrors() {
			return fmt.Errorf("lint found %d error-severity diagnostics", len(result.FilterSeverity(lint.SeverityError)))
		}
		return nil
	},
}

func init() {
	lintCmd.Flags().BoolVar(&lintFailFast, "fail-fast", false, "Stop after the first priority group with an error diagnostic")
}
