// Package main implements the adi CLI: a polyglot source-code
// intelligence platform combining code graph indexing, a task engine, a
// lint runner, an agent loop, and a workflow executor behind one binary.
//
// Entry point and root command live here; subcommands are split across
// cmd_*.go files by subsystem, mirroring the teacher's cmd/nerd layout.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"adi/internal/logging"
)

var (
	verbose   bool
	workspace string
	timeout   time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "adi",
	Short: "adi - polyglot source-code intelligence",
	Long: `adi indexes a codebase into a queryable symbol graph, tracks work
as a dependency-aware task DAG, runs composable lint rules, drives an
agent loop over both, and automates multi-step operations via TOML
workflows.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		if workspace != "" {
			abs, err := filepath.Abs(workspace)
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}
			if err := os.Chdir(abs); err != nil {
				return fmt.Errorf("chdir workspace: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(indexCmd, searchCmd, symbolsCmd, statusCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(workflowCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
