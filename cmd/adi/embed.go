package main

import (
	"os"

	"adi/internal/embedproviders"
)

// embedderConfig builds an embedproviders.Config from environment
// variables, following the teacher's convention of env-first configuration
// for backends that need credentials (ADI_GENAI_API_KEY mirrors the
// teacher's ZAI_API_KEY pattern).
func embedderConfig() embedproviders.Config {
	cfg := embedproviders.DefaultConfig()
	if v := os.Getenv("ADI_EMBED_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("ADI_OLLAMA_ENDPOINT"); v != "" {
		cfg.OllamaEndpoint = v
	}
	if v := os.Getenv("ADI_OLLAMA_MODEL"); v != "" {
		cfg.OllamaModel = v
	}
	if v := os.Getenv("ADI_GENAI_API_KEY"); v != "" {
		cfg.GenAIAPIKey = v
	}
	if v := os.Getenv("ADI_GENAI_MODEL"); v != "" {
		cfg.GenAIModel = v
	}
	return cfg
}
