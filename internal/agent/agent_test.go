package agent

import (
	"context"
	"sync"
	"testing"

	"adi/internal/errs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// mockLlmProvider returns the configured responses in order, one per
// Complete call, mirroring the original's MockLlmProvider.
type mockLlmProvider struct {
	mu        sync.Mutex
	responses []Message
	calls     int
}

func newMockLlmProvider(responses ...Message) *mockLlmProvider {
	return &mockLlmProvider{responses: responses}
}

func (m *mockLlmProvider) Complete(_ context.Context, _ []Message, _ []ToolSchema, _ LlmConfig) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.responses) {
		return CompletionResponse{}, &errs.Internal{Msg: "mock provider exhausted"}
	}
	msg := m.responses[m.calls]
	m.calls++
	return CompletionResponse{Message: msg, Usage: Usage{TotalTokens: 10}}, nil
}

// echoTool echoes its "message" argument, mirroring the original test's
// EchoTool.
type echoTool struct{}

func (echoTool) Schema() ToolSchema {
	return ToolSchema{
		Name:        "echo",
		Description: "Echoes input",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"message": map[string]any{"type": "string"}},
			"required":   []string{"message"},
		},
		Category: CategoryReadOnly,
	}
}

func (echoTool) Execute(_ context.Context, args map[string]any) (string, error) {
	if msg, ok := args["message"].(string); ok {
		return msg, nil
	}
	return "no message", nil
}

func TestAgentLoop_SimpleResponse(t *testing.T) {
	provider := newMockLlmProvider(AssistantMessage("Hello, how can I help you?"))
	loop := NewAgentLoop(provider, nil)

	response, err := loop.Run(context.Background(), "Hi there!")
	require.NoError(t, err)
	require.Equal(t, "Hello, how can I help you?", response)
}

func TestAgentLoop_WithToolCall(t *testing.T) {
	toolCall := ToolCall{ID: "call1", Name: "echo", Arguments: map[string]any{"message": "test"}}
	provider := newMockLlmProvider(
		AssistantToolCallMessage([]ToolCall{toolCall}),
		AssistantMessage("The echo returned: test"),
	)

	loop := NewAgentLoop(provider, nil).WithTool(echoTool{})

	response, err := loop.Run(context.Background(), "Echo test please")
	require.NoError(t, err)
	require.Equal(t, "The echo returned: test", response)
}

func TestAgentLoop_MaxIterations(t *testing.T) {
	responses := make([]Message, 0, 100)
	for i := 0; i < 100; i++ {
		responses = append(responses, AssistantToolCallMessage([]ToolCall{
			{ID: "call", Name: "echo", Arguments: map[string]any{"message": "loop"}},
		}))
	}
	provider := newMockLlmProvider(responses...)

	loop := NewAgentLoop(provider, nil).
		WithTool(echoTool{}).
		WithLoopConfig(LoopConfig{MaxIterations: 3, MaxTokens: 150_000, TimeoutMs: 5_000, MaxParallelTools: 4})

	_, err := loop.Run(context.Background(), "Loop forever")
	require.Error(t, err)
	var maxIter *errs.MaxIterationsReached
	require.ErrorAs(t, err, &maxIter)
	require.Equal(t, 3, maxIter.N)
}

func TestAgentLoop_PermissionDenyAborts(t *testing.T) {
	toolCall := ToolCall{ID: "call1", Name: "danger", Arguments: map[string]any{}}
	provider := newMockLlmProvider(AssistantToolCallMessage([]ToolCall{toolCall}))

	dangerTool := fakeTool{name: "danger", category: CategoryMutating}
	perms := NewPermissionManager([]PermissionRule{{Pattern: "tool:danger:*", Level: LevelDeny}})

	loop := NewAgentLoop(provider, nil).WithTool(dangerTool).WithPermissions(perms)

	_, err := loop.Run(context.Background(), "do something dangerous")
	require.Error(t, err)
	var denied *errs.PermissionDenied
	require.ErrorAs(t, err, &denied)
	require.Equal(t, "danger", denied.Tool)
}

func TestAgentLoop_AskDenyYieldsToolResultNotAbort(t *testing.T) {
	toolCall := ToolCall{ID: "call1", Name: "risky", Arguments: map[string]any{}}
	provider := newMockLlmProvider(
		AssistantToolCallMessage([]ToolCall{toolCall}),
		AssistantMessage("done"),
	)

	riskyTool := fakeTool{name: "risky", category: CategoryMutating}
	perms := NewPermissionManager([]PermissionRule{{Pattern: "tool:risky:*", Level: LevelAsk}})

	loop := NewAgentLoop(provider, nil).WithTool(riskyTool).WithPermissions(perms)

	response, err := loop.RunWithApproval(context.Background(), denyApprover{}, "try it")
	require.NoError(t, err)
	require.Equal(t, "done", response)
}

type fakeTool struct {
	name     string
	category ToolCategory
}

func (f fakeTool) Schema() ToolSchema {
	return ToolSchema{Name: f.name, Description: "test tool", Category: f.category}
}

func (f fakeTool) Execute(context.Context, map[string]any) (string, error) { return "ok", nil }

type denyApprover struct{}

func (denyApprover) RequestApproval(context.Context, ToolCall, *PermissionRule) (ApprovalDecision, error) {
	return DecisionDeny, nil
}

func TestToolRegistry_ExecuteParallel(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewToolRegistry()
	reg.Register(echoTool{})

	calls := []ToolCall{
		{ID: "a", Name: "echo", Arguments: map[string]any{"message": "one"}},
		{ID: "b", Name: "echo", Arguments: map[string]any{"message": "two"}},
	}
	results := reg.ExecuteParallel(context.Background(), calls)
	require.Len(t, results, 2)
	require.Equal(t, "one", results[0].Content)
	require.Equal(t, "two", results[1].Content)
}

func TestContextManager_CompactIfNeeded(t *testing.T) {
	cfg := LoopConfig{MaxTokens: 100, CompactionThreshold: 0.5, CompactionKeepRecent: 2}
	cm := NewContextManager(cfg)
	cm.AddMessage(SystemMessage("system"))
	for i := 0; i < 20; i++ {
		cm.AddMessage(UserMessage("this is a reasonably long message to push token usage upward"))
	}
	before := len(cm.Messages())
	cm.CompactIfNeeded()
	require.Less(t, len(cm.Messages()), before)
	require.Equal(t, RoleSystem, cm.Messages()[0].Role)
}
