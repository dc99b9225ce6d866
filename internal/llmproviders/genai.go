// Package llmproviders adapts real model backends to the agent package's
// LlmProvider interface (spec §4.G). Per spec.md §1 the implementation of
// LLM providers is out of core scope — this package is deliberately thin,
// containing only request/response marshaling, no loop logic.
package llmproviders

import (
	"context"
	"encoding/json"
	"fmt"

	"adi/internal/agent"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIProvider adapts Google's Gemini API (via google.golang.org/genai,
// the teacher's own dependency — see internal/embedproviders/genai.go for the
// client-construction style this follows) to agent.LlmProvider.
type GenAIProvider struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGenAIProvider builds a provider for the given model (e.g.
// "gemini-2.0-flash").
func NewGenAIProvider(ctx context.Context, apiKey, model string, log *zap.Logger) (*GenAIProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("genai: API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}

	return &GenAIProvider{client: client, model: model, log: log.With(zap.String("component", "llmproviders.genai"))}, nil
}

// Complete implements agent.LlmProvider.
func (p *GenAIProvider) Complete(ctx context.Context, messages []agent.Message, schemas []agent.ToolSchema, cfg agent.LlmConfig) (agent.CompletionResponse, error) {
	model := p.model
	if cfg.Model != "" {
		model = cfg.Model
	}

	systemInstruction, contents := toGenAIContents(messages)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxTokens > 0 {
		config.MaxOutputTokens = int32(cfg.MaxTokens)
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	if decls := toFunctionDeclarations(schemas); len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return agent.CompletionResponse{}, fmt.Errorf("genai: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return agent.CompletionResponse{}, fmt.Errorf("genai: no candidates returned")
	}

	message, err := fromGenAICandidate(resp.Candidates[0])
	if err != nil {
		return agent.CompletionResponse{}, err
	}

	usage := agent.Usage{}
	if resp.UsageMetadata != nil {
		usage = agent.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return agent.CompletionResponse{Message: message, Usage: usage}, nil
}

func toGenAIContents(messages []agent.Message) (systemInstruction string, contents []*genai.Content) {
	for _, m := range messages {
		switch m.Role {
		case agent.RoleSystem:
			if systemInstruction == "" {
				systemInstruction = m.Text
			} else {
				systemInstruction += "\n" + m.Text
			}
		case agent.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
		case agent.RoleAssistant:
			contents = append(contents, assistantToGenAIContent(m))
		case agent.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "function",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     m.ToolCallID,
						Response: map[string]any{"content": m.Text},
					},
				}},
			})
		}
	}
	return systemInstruction, contents
}

func assistantToGenAIContent(m agent.Message) *genai.Content {
	var parts []*genai.Part
	if m.Text != "" {
		parts = append(parts, &genai.Part{Text: m.Text})
	}
	for _, tc := range m.ToolCalls {
		parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: tc.Arguments}})
	}
	return &genai.Content{Role: genai.RoleModel, Parts: parts}
}

func toFunctionDeclarations(schemas []agent.ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		paramsJSON, err := json.Marshal(s.Parameters)
		if err != nil {
			continue
		}
		var schema genai.Schema
		if err := json.Unmarshal(paramsJSON, &schema); err != nil {
			continue
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  &schema,
		})
	}
	return decls
}

func fromGenAICandidate(candidate *genai.Candidate) (agent.Message, error) {
	var text string
	var toolCalls []agent.ToolCall

	for i, part := range candidate.Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, agent.ToolCall{
				ID:        fmt.Sprintf("call_%d", i),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}

	if len(toolCalls) > 0 {
		msg := agent.AssistantToolCallMessage(toolCalls)
		msg.Text = text
		return msg, nil
	}
	return agent.AssistantMessage(text), nil
}
