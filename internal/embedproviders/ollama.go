package embedproviders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"adi/internal/errs"

	"go.uber.org/zap"
)

// OllamaProvider generates embeddings via a local Ollama server. Grounded
// directly in the teacher's internal/embedding/ollama.go OllamaEngine.
type OllamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
	log      *zap.Logger
}

// NewOllamaProvider builds an Ollama-backed embedding provider.
func NewOllamaProvider(endpoint, model string, log *zap.Logger) (*OllamaProvider, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "embeddinggemma"
	}
	log.Debug("ollama provider ready", zap.String("endpoint", endpoint), zap.String("model", model))
	return &OllamaProvider{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}, nil
}

// Embed generates embeddings sequentially: Ollama's /api/embeddings has no
// native batch endpoint.
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		embedding, err := p.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

func (p *OllamaProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, &errs.EmbeddingError{Detail: "marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &errs.EmbeddingError{Detail: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &errs.EmbeddingError{Detail: "ollama request", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &errs.EmbeddingError{Detail: fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, string(b))}
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &errs.EmbeddingError{Detail: "decode response", Cause: err}
	}
	return result.Embedding, nil
}

// EmbedQuery embeds a single search query. Ollama has no task-type
// concept, so this is identical to embedding a document.
func (p *OllamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return p.embedOne(ctx, text)
}

// Dimensions returns 768, embeddinggemma's output size.
func (p *OllamaProvider) Dimensions() int { return 768 }

// ModelName identifies the provider for logging and index metadata.
func (p *OllamaProvider) ModelName() string { return fmt.Sprintf("ollama:%s", p.model) }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}
