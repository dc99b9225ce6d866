package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ToolCategory gates whether a tool call may be batched into the loop's
// parallel dispatch path.
type ToolCategory int

const (
	// CategoryReadOnly tools never mutate state; a batch of calls where
	// every tool is ReadOnly may run concurrently.
	CategoryReadOnly ToolCategory = iota
	CategoryMutating
	CategoryExternal
)

// ToolSchema describes one tool for both the LLM (its JSON schema) and the
// loop (its category).
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
	Category    ToolCategory
}

// ToolExecutor is one registrable tool.
type ToolExecutor interface {
	Schema() ToolSchema
	Execute(ctx context.Context, arguments map[string]any) (string, error)
}

// ToolRegistry holds every tool the loop may dispatch to.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]ToolExecutor
}

// NewToolRegistry builds an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]ToolExecutor)}
}

// Register adds a tool, keyed by its schema name.
func (r *ToolRegistry) Register(tool ToolExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Schema().Name] = tool
}

// Get returns the tool registered under name, or nil.
func (r *ToolRegistry) Get(name string) ToolExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Schemas returns every registered tool's schema, for CompleteWithTools-style
// LLM calls.
func (r *ToolRegistry) Schemas() []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Schema())
	}
	return out
}

// Execute runs one tool call to completion, converting a missing tool or
// executor error into a failed ToolResult rather than a Go error — the
// loop always gets a result to append to context.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) ToolResult {
	start := time.Now()
	tool := r.Get(call.Name)
	if tool == nil {
		return ErrorResult(call.ID, fmt.Sprintf("unknown tool %q", call.Name), "UNKNOWN_TOOL", time.Since(start).Milliseconds())
	}

	content, err := tool.Execute(ctx, call.Arguments)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return ErrorResult(call.ID, err.Error(), "EXECUTION_FAILED", elapsed)
	}
	return ToolResult{ToolCallID: call.ID, Success: true, Content: content, ElapsedMs: elapsed}
}

// ExecuteParallel runs every call concurrently, bounded by len(calls) goroutines
// (the loop itself chunks to MaxParallelTools before calling this), and
// preserves input order in the returned slice.
//
// golang.org/x/sync/errgroup stands in for the original's
// futures::future::join_all over tokio::spawn — every call always
// produces a result (Execute never returns a Go error), so the group
// itself never fails; it is only used for goroutine fan-out/join.
func (r *ToolRegistry) ExecuteParallel(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = r.Execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
