package agent

import (
	"context"
	"fmt"
	"time"

	"adi/internal/errs"
	"go.uber.org/zap"
)

// AgentLoop drives an LlmProvider through tool calls to a final text
// response, bounded by iteration count, token budget, and a per-call
// timeout, with permission checks and hook fan-out at every stage.
//
// Grounded in original_source's crates/adi-agent-loop/core/src/agent.rs
// AgentLoop, in the teacher's internal/session/executor.go Executor loop
// shape (iteration counter, mutex-free per-run state, structured
// logging), and (for parallel dispatch) golang.org/x/sync/errgroup in
// place of tokio::spawn fan-out.
type AgentLoop struct {
	llm          LlmProvider
	tools        *ToolRegistry
	permissions  *PermissionManager
	hooks        *HookManager
	context      *ContextManager
	loopConfig   LoopConfig
	llmConfig    LlmConfig
	systemPrompt string
	interrupt    <-chan struct{}
	log          *zap.Logger
}

// NewAgentLoop builds a loop with sensible defaults: an empty tool
// registry, WithDefaults permissions, no hooks, and DefaultLoopConfig.
func NewAgentLoop(llm LlmProvider, log *zap.Logger) *AgentLoop {
	if log == nil {
		log = zap.NewNop()
	}
	loopConfig := DefaultLoopConfig()
	return &AgentLoop{
		llm:         llm,
		tools:       NewToolRegistry(),
		permissions: WithDefaults(),
		hooks:       NewHookManager(),
		context:     NewContextManager(loopConfig),
		loopConfig:  loopConfig,
		llmConfig:   DefaultLlmConfig(),
		log:         log.With(zap.String("component", "agent")),
	}
}

func (a *AgentLoop) WithTool(tool ToolExecutor) *AgentLoop {
	a.tools.Register(tool)
	return a
}

func (a *AgentLoop) WithTools(tools []ToolExecutor) *AgentLoop {
	for _, t := range tools {
		a.tools.Register(t)
	}
	return a
}

func (a *AgentLoop) WithPermissions(p *PermissionManager) *AgentLoop {
	a.permissions = p
	return a
}

func (a *AgentLoop) WithHooks(h *HookManager) *AgentLoop {
	a.hooks = h
	return a
}

func (a *AgentLoop) WithLoopConfig(cfg LoopConfig) *AgentLoop {
	a.context = NewContextManager(cfg)
	a.loopConfig = cfg
	return a
}

func (a *AgentLoop) WithLlmConfig(cfg LlmConfig) *AgentLoop {
	a.llmConfig = cfg
	return a
}

func (a *AgentLoop) WithSystemPrompt(prompt string) *AgentLoop {
	a.systemPrompt = prompt
	return a
}

func (a *AgentLoop) WithInterruptChannel(ch <-chan struct{}) *AgentLoop {
	a.interrupt = ch
	return a
}

func (a *AgentLoop) Context() *ContextManager        { return a.context }
func (a *AgentLoop) Tools() *ToolRegistry            { return a.tools }
func (a *AgentLoop) Permissions() *PermissionManager { return a.permissions }

// Run executes the loop with an AutoApprover, approving every Ask-level
// call automatically.
func (a *AgentLoop) Run(ctx context.Context, userInput string) (string, error) {
	return a.RunWithApproval(ctx, AutoApprover{}, userInput)
}

// RunWithApproval executes the loop, routing Ask-level tool calls through
// approver.
func (a *AgentLoop) RunWithApproval(ctx context.Context, approver ApprovalHandler, userInput string) (string, error) {
	state := LoopState{}

	if a.systemPrompt != "" {
		a.context.AddMessage(SystemMessage(a.systemPrompt))
	}
	a.context.AddMessage(UserMessage(userInput))

	for {
		if state.Iteration >= a.loopConfig.MaxIterations {
			return "", &errs.MaxIterationsReached{N: state.Iteration}
		}
		if a.context.TotalTokens() > a.loopConfig.MaxTokens {
			return "", &errs.TokenLimitExceeded{Used: a.context.TotalTokens(), Limit: a.loopConfig.MaxTokens}
		}
		if interrupted(a.interrupt) {
			return "", &errs.UserAborted{}
		}

		if err := a.hooks.FireIteration(ctx, state.Iteration); err != nil {
			return "", err
		}
		state.Iteration++
		state.LastActivity = time.Now()

		a.context.CompactIfNeeded()

		response, err := a.completeWithTimeout(ctx)
		if err != nil {
			return "", err
		}
		state.TotalTokens += response.Usage.TotalTokens

		a.context.AddMessage(response.Message)
		if err := a.hooks.FireMessage(ctx, response.Message); err != nil {
			return "", err
		}

		switch {
		case response.Message.Role == RoleAssistant && len(response.Message.ToolCalls) == 0:
			if err := a.hooks.FireComplete(ctx, a.context.Messages()); err != nil {
				return "", err
			}
			return response.Message.Text, nil

		case response.Message.Role == RoleAssistant && len(response.Message.ToolCalls) > 0:
			results, err := a.executeToolCalls(ctx, response.Message.ToolCalls, approver, &state)
			if err != nil {
				return "", err
			}
			for _, result := range results {
				msg := result.ToMessage()
				a.context.AddMessage(msg)
				if err := a.hooks.FireMessage(ctx, msg); err != nil {
					return "", err
				}
			}

		default:
			return "", &errs.Internal{Msg: "unexpected message type from LLM"}
		}
	}
}

func interrupted(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (a *AgentLoop) completeWithTimeout(ctx context.Context) (CompletionResponse, error) {
	timeout := time.Duration(a.loopConfig.TimeoutMs) * time.Millisecond
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		resp CompletionResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := a.llm.Complete(callCtx, a.context.Messages(), a.tools.Schemas(), a.llmConfig)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return CompletionResponse{}, r.err
		}
		return r.resp, nil
	case <-callCtx.Done():
		return CompletionResponse{}, &errs.Timeout{Ms: int(a.loopConfig.TimeoutMs)}
	}
}

func (a *AgentLoop) executeToolCalls(ctx context.Context, calls []ToolCall, approver ApprovalHandler, state *LoopState) ([]ToolResult, error) {
	var results []ToolResult

	if a.canParallelize(calls) {
		var approved []ToolCall
		for _, call := range calls {
			resolved, err := a.checkAndApprove(ctx, call, approver)
			if err != nil {
				return nil, err
			}
			if resolved == nil {
				results = append(results, ErrorResult(call.ID, "Permission denied", "PERMISSION_DENIED", 0))
				continue
			}
			approved = append(approved, *resolved)
		}

		maxParallel := a.loopConfig.MaxParallelTools
		if maxParallel <= 0 || maxParallel > len(approved) {
			maxParallel = len(approved)
		}
		for start := 0; start < len(approved); start += maxParallel {
			end := start + maxParallel
			if end > len(approved) {
				end = len(approved)
			}
			chunkResults := a.tools.ExecuteParallel(ctx, approved[start:end])
			for _, r := range chunkResults {
				state.ToolCallsDone++
				if !r.Success {
					state.ErrorsCount++
				}
				results = append(results, r)
			}
		}
		return results, nil
	}

	for _, call := range calls {
		resolved, err := a.checkAndApprove(ctx, call, approver)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			results = append(results, ErrorResult(call.ID, "Permission denied", "PERMISSION_DENIED", 0))
			continue
		}

		if _, err := a.hooks.FirePreToolCall(ctx, *resolved); err != nil {
			return nil, err
		}

		result := a.tools.Execute(ctx, *resolved)

		if err := a.hooks.FirePostToolCall(ctx, *resolved, result); err != nil {
			return nil, err
		}

		state.ToolCallsDone++
		if !result.Success {
			state.ErrorsCount++
			if err := a.hooks.FireError(ctx, result.Content, resolved); err != nil {
				return nil, err
			}
		}

		results = append(results, result)
	}
	return results, nil
}

// checkAndApprove resolves one call's permission level, firing the
// pre_tool_call hook on Auto and routing through approver on Ask. Returns
// nil (no error) when the call was denied and should be skipped with a
// PERMISSION_DENIED result; returns an error only for a hard Deny or an
// Abort decision.
func (a *AgentLoop) checkAndApprove(ctx context.Context, call ToolCall, approver ApprovalHandler) (*ToolCall, error) {
	tool := a.tools.Get(call.Name)
	category := CategoryMutating
	if tool != nil {
		category = tool.Schema().Category
	}

	level, rule := a.permissions.Check(call.Name, category)

	switch level {
	case LevelAuto:
		modified, err := a.hooks.FirePreToolCall(ctx, call)
		if err != nil {
			return nil, err
		}
		if modified != nil {
			return modified, nil
		}
		return &call, nil

	case LevelAsk:
		decision, err := approver.RequestApproval(ctx, call, rule)
		if err != nil {
			return nil, err
		}
		switch decision {
		case DecisionAllow:
			return &call, nil
		case DecisionAllowAll:
			pattern := fmt.Sprintf("tool:%s:*", call.Name)
			a.permissions.SetSessionOverride(pattern, LevelAuto)
			return &call, nil
		case DecisionDeny:
			return nil, nil
		case DecisionAbort:
			return nil, &errs.UserAborted{}
		default:
			return nil, &errs.Internal{Msg: "unknown approval decision"}
		}

	default: // LevelDeny
		pattern := ""
		if rule != nil {
			pattern = rule.Pattern
		}
		return nil, &errs.PermissionDenied{Tool: call.Name, Pattern: pattern}
	}
}

// canParallelize reports whether every call targets a registered
// ReadOnly tool; a single call is never parallelized.
func (a *AgentLoop) canParallelize(calls []ToolCall) bool {
	if len(calls) <= 1 {
		return false
	}
	for _, call := range calls {
		tool := a.tools.Get(call.Name)
		if tool == nil || tool.Schema().Category != CategoryReadOnly {
			return false
		}
	}
	return true
}
