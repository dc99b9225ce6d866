package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adi/internal/agent"
	"adi/internal/llmproviders"
)

var (
	agentModel        string
	agentMaxIterations int
)

var agentCmd = &cobra.Command{
	Use:   "agent <prompt>",
	Short: "Run one agent-loop turn against the project, with symbol search as a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := os.Getenv("ADI_GENAI_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("ADI_GENAI_API_KEY is required to run the agent")
		}

		ctx, cancel := contextWithTimeout(cmd)
		defer cancel()

		llm, err := llmproviders.NewGenAIProvider(ctx, apiKey, agentModel, logger)
		if err != nil {
			return fmt.Errorf("build LLM provider: %w", err)
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}
		ix, cleanup, err := openIndexer(root)
		if err != nil {
			return err
		}
		defer cleanup()

		loopCfg := agent.DefaultLoopConfig()
		loopCfg.MaxIterations = agentMaxIterations

		loop := agent.NewAgentLoop(llm, logger).
			WithTool(&searchSymbolsTool{ix: ix}).
			WithPermissions(agent.WithDefaults()).
			WithLoopConfig(loopCfg)

		reply, err := loop.Run(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	},
}

func init() {
	agentCmd.Flags().StringVar(&agentModel, "model", "", "Model name (defaults to the provider's default)")
	agentCmd.Flags().IntVar(&agentMaxIterations, "max-iterations", agent.DefaultLoopConfig().MaxIterations, "Maximum tool-call iterations")
}
