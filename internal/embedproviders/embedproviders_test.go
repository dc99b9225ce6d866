package embedproviders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSelectTaskType(t *testing.T) {
	require.Equal(t, "CODE_RETRIEVAL_QUERY", selectTaskType(true))
	require.Equal(t, "RETRIEVAL_DOCUMENT", selectTaskType(false))
}

func TestNew_UnsupportedBackend(t *testing.T) {
	_, err := New(Config{Backend: "carrier-pigeon"}, zap.NewNop())
	require.Error(t, err)
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "embeddinggemma", req.Model)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(server.URL, "", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 768, p.Dimensions())
	require.Equal(t, "ollama:embeddinggemma", p.ModelName())

	embeddings, err := p.Embed(context.Background(), []string{"func main() {}", "package main"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, embeddings[0])
}

func TestOllamaProvider_Embed_EmptyInput(t *testing.T) {
	p, err := NewOllamaProvider("http://localhost:11434", "embeddinggemma", zap.NewNop())
	require.NoError(t, err)

	embeddings, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, embeddings)
}

func TestOllamaProvider_Embed_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not found"))
	}))
	defer server.Close()

	p, err := NewOllamaProvider(server.URL, "embeddinggemma", zap.NewNop())
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
}

func TestNewGenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewGenAIProvider("", "", "", zap.NewNop())
	require.Error(t, err)
}
