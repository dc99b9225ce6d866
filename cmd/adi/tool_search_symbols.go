package main

import (
	"context"
	"encoding/json"
	"fmt"

	"adi/internal/agent"
	"adi/internal/indexer"
)

// searchSymbolsTool gives the agent loop read-only access to the indexed
// symbol graph's full-text search, grounding the agent against the
// project it's running in instead of operating blind.
type searchSymbolsTool struct {
	ix *indexer.Indexer
}

func (t *searchSymbolsTool) Schema() agent.ToolSchema {
	return agent.ToolSchema{
		Name:        "search_symbols",
		Description: "Search the indexed codebase for symbols (functions, types, etc.) by name or text fragment.",
		Category:    agent.CategoryReadOnly,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "search text"},
				"limit": map[string]any{"type": "integer", "description": "max results"},
			},
			"required": []string{"query"},
		},
	}
}

func (t *searchSymbolsTool) Execute(ctx context.Context, arguments map[string]any) (string, error) {
	query, _ := arguments["query"].(string)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	limit := 10
	if v, ok := arguments["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	matches, err := t.ix.FTSSearchSymbols(query, limit)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(matches)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
