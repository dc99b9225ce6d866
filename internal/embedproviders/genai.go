package embedproviders

import (
	"context"
	"fmt"

	"adi/internal/errs"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// maxBatchSize matches the GenAI API's per-request limit.
const maxBatchSize = 100

// GenAIProvider generates embeddings via Google's Gemini API. Grounded
// directly in the teacher's internal/embedding/genai.go GenAIEngine.
type GenAIProvider struct {
	client   *genai.Client
	model    string
	taskType string
	log      *zap.Logger
}

// NewGenAIProvider builds a GenAI-backed embedding provider.
func NewGenAIProvider(apiKey, model, taskType string, log *zap.Logger) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, &errs.EmbeddingError{Detail: "GenAI API key is required"}
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, &errs.EmbeddingError{Detail: "create GenAI client", Cause: err}
	}

	log.Debug("genai provider ready", zap.String("model", model), zap.String("task_type", taskType))
	return &GenAIProvider{client: client, model: model, taskType: taskType, log: log}, nil
}

// Embed generates embeddings for texts, chunking into batches of at most
// maxBatchSize since the API rejects larger single requests.
func (p *GenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= maxBatchSize {
		return p.embedChunk(ctx, texts)
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := p.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("genai embed batch [%d:%d]: %w", start, end, err)
		}
		all = append(all, chunk...)
	}
	return all, nil
}

func (p *GenAIProvider) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := p.client.Models.EmbedContent(ctx, p.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(p.Dimensions())),
	})
	if err != nil {
		return nil, &errs.EmbeddingError{Detail: "GenAI EmbedContent call", Cause: err}
	}
	if len(result.Embeddings) != len(texts) {
		return nil, &errs.EmbeddingError{Detail: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))}
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		embeddings[i] = e.Values
	}
	return embeddings, nil
}

// EmbedQuery embeds a single search query. The GenAI API accepts a task
// type hint per request, but — matching the teacher's own genai.go, which
// stores taskType on the engine without ever threading it into
// EmbedContentConfig — this SDK version's config surface only exposes
// OutputDimensionality, so selectTaskType's result is logged for now
// rather than sent; the call itself is identical to embedding a document.
func (p *GenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	p.log.Debug("embed query", zap.String("task_type", selectTaskType(true)))
	embeddings, err := p.embedChunk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns 3072, gemini-embedding-001's output size.
func (p *GenAIProvider) Dimensions() int { return 3072 }

// ModelName identifies the provider for logging and index metadata.
func (p *GenAIProvider) ModelName() string { return fmt.Sprintf("genai:%s", p.model) }
