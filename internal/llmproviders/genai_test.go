package llmproviders

import (
	"testing"

	"adi/internal/agent"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGenAIContents_SplitsSystemFromTurns(t *testing.T) {
	messages := []agent.Message{
		agent.SystemMessage("be helpful"),
		agent.UserMessage("hello"),
		agent.AssistantMessage("hi there"),
	}

	system, contents := toGenAIContents(messages)
	require.Equal(t, "be helpful", system)
	require.Len(t, contents, 2)
	require.Equal(t, genai.RoleUser, contents[0].Role)
}

func TestToGenAIContents_ToolResultBecomesFunctionResponse(t *testing.T) {
	messages := []agent.Message{
		{Role: agent.RoleTool, ToolCallID: "call1", Text: "42"},
	}

	_, contents := toGenAIContents(messages)
	require.Len(t, contents, 1)
	require.Equal(t, "function", contents[0].Role)
	require.NotNil(t, contents[0].Parts[0].FunctionResponse)
	require.Equal(t, "call1", contents[0].Parts[0].FunctionResponse.Name)
}

func TestToFunctionDeclarations_SkipsUnparsableSchema(t *testing.T) {
	schemas := []agent.ToolSchema{
		{Name: "good", Description: "fine", Parameters: map[string]any{"type": "object"}},
		{Name: "bad", Description: "nope", Parameters: map[string]any{"type": make(chan int)}},
	}

	decls := toFunctionDeclarations(schemas)
	require.Len(t, decls, 1)
	require.Equal(t, "good", decls[0].Name)
}

func TestFromGenAICandidate_TextOnly(t *testing.T) {
	candidate := &genai.Candidate{
		Content: &genai.Content{Parts: []*genai.Part{{Text: "hello there"}}},
	}

	msg, err := fromGenAICandidate(candidate)
	require.NoError(t, err)
	require.Equal(t, agent.RoleAssistant, msg.Role)
	require.Equal(t, "hello there", msg.Text)
	require.Empty(t, msg.ToolCalls)
}

func TestFromGenAICandidate_FunctionCall(t *testing.T) {
	candidate := &genai.Candidate{
		Content: &genai.Content{Parts: []*genai.Part{
			{FunctionCall: &genai.FunctionCall{Name: "search", Args: map[string]any{"q": "foo"}}},
		}},
	}

	msg, err := fromGenAICandidate(candidate)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	require.Equal(t, "search", msg.ToolCalls[0].Name)
	require.Equal(t, "foo", msg.ToolCalls[0].Arguments["q"])
}
