// Package embedproviders turns symbol text into fixed-dimension vectors for
// internal/vectorindex, adapted from the teacher's internal/embedding
// package onto internal/indexer.Embedder's batch-only shape
// (Embed(ctx, texts) ([][]float32, error), Dimensions, ModelName).
package embedproviders

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Provider generates vector embeddings for text, matching
// internal/indexer.Embedder.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// Config selects and configures a provider.
type Config struct {
	// Backend is "ollama" or "genai".
	Backend string

	OllamaEndpoint string
	OllamaModel    string

	GenAIAPIKey string
	GenAIModel  string
	TaskType    string
}

// DefaultConfig mirrors the teacher's default: local Ollama first, no
// outbound API key required to get started.
func DefaultConfig() Config {
	return Config{
		Backend:        "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
		TaskType:       "SEMANTIC_SIMILARITY",
	}
}

// New builds the configured provider.
func New(cfg Config, log *zap.Logger) (Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "embedproviders"), zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaEndpoint, cfg.OllamaModel, log)
	case "genai":
		return NewGenAIProvider(cfg.GenAIAPIKey, cfg.GenAIModel, cfg.TaskType, log)
	default:
		return nil, fmt.Errorf("embedproviders: unsupported backend %q (use \"ollama\" or \"genai\")", cfg.Backend)
	}
}
