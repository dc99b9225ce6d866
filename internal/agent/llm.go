package agent

import "context"

// LlmConfig carries provider-level generation parameters the loop passes
// through unexamined.
type LlmConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultLlmConfig mirrors the original's LlmConfig::default().
func DefaultLlmConfig() LlmConfig {
	return LlmConfig{Temperature: 0.7, MaxTokens: 4096}
}

// Usage reports token accounting for one completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is one LlmProvider.Complete result.
type CompletionResponse struct {
	Message Message
	Usage   Usage
}

// LlmProvider is the loop's sole dependency on an actual model backend.
// internal/llmproviders supplies the production google.golang.org/genai
// adapter; tests use mockLlmProvider.
type LlmProvider interface {
	Complete(ctx context.Context, messages []Message, schemas []ToolSchema, cfg LlmConfig) (CompletionResponse, error)
}
