package embedproviders

import "context"

// selectTaskType picks the GenAI task type for the content being embedded.
// adi only ever embeds two kinds of text — indexed symbol bodies and search
// queries — so this is a direct trim of the teacher's ContentType-keyed
// SelectTaskType down to the one distinction that matters here.
func selectTaskType(isQuery bool) string {
	if isQuery {
		return "CODE_RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

// QueryEmbedder is implemented by providers that can embed a search query
// with a task type distinct from document indexing. Nothing in the tree
// type-asserts for it (cmd/adi's search command runs a full-text symbol
// search); Ollama has no task-type concept, so it satisfies the interface
// with an embedding identical to the document case.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
