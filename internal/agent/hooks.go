package agent

import "context"

// Hook receives fan-out notifications from the loop. Every method may
// return an error to abort the run; PreToolCall may additionally return a
// non-nil ToolCall to substitute for the one about to execute.
type Hook interface {
	OnIteration(ctx context.Context, iteration int) error
	OnMessage(ctx context.Context, m Message) error
	OnPreToolCall(ctx context.Context, call ToolCall) (*ToolCall, error)
	OnPostToolCall(ctx context.Context, call ToolCall, result ToolResult) error
	OnError(ctx context.Context, content string, call *ToolCall) error
	OnComplete(ctx context.Context, messages []Message) error
}

// NopHook implements Hook as a no-op, letting callers embed it and
// override only the events they care about.
type NopHook struct{}

func (NopHook) OnIteration(context.Context, int) error { return nil }
func (NopHook) OnMessage(context.Context, Message) error { return nil }
func (NopHook) OnPreToolCall(context.Context, ToolCall) (*ToolCall, error) { return nil, nil }
func (NopHook) OnPostToolCall(context.Context, ToolCall, ToolResult) error { return nil }
func (NopHook) OnError(context.Context, string, *ToolCall) error { return nil }
func (NopHook) OnComplete(context.Context, []Message) error { return nil }

// HookManager fans a single event out to every registered Hook, in
// registration order, stopping at the first error.
type HookManager struct {
	hooks []Hook
}

// NewHookManager builds an empty manager.
func NewHookManager() *HookManager { return &HookManager{} }

// Register adds a hook.
func (h *HookManager) Register(hook Hook) { h.hooks = append(h.hooks, hook) }

func (h *HookManager) FireIteration(ctx context.Context, iteration int) error {
	for _, hook := range h.hooks {
		if err := hook.OnIteration(ctx, iteration); err != nil {
			return err
		}
	}
	return nil
}

func (h *HookManager) FireMessage(ctx context.Context, m Message) error {
	for _, hook := range h.hooks {
		if err := hook.OnMessage(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// FirePreToolCall returns the last non-nil substitution offered by a
// hook, or nil if none substituted.
func (h *HookManager) FirePreToolCall(ctx context.Context, call ToolCall) (*ToolCall, error) {
	var modified *ToolCall
	for _, hook := range h.hooks {
		m, err := hook.OnPreToolCall(ctx, call)
		if err != nil {
			return nil, err
		}
		if m != nil {
			modified = m
			call = *m
		}
	}
	return modified, nil
}

func (h *HookManager) FirePostToolCall(ctx context.Context, call ToolCall, result ToolResult) error {
	for _, hook := range h.hooks {
		if err := hook.OnPostToolCall(ctx, call, result); err != nil {
			return err
		}
	}
	return nil
}

func (h *HookManager) FireError(ctx context.Context, content string, call *ToolCall) error {
	for _, hook := range h.hooks {
		if err := hook.OnError(ctx, content, call); err != nil {
			return err
		}
	}
	return nil
}

func (h *HookManager) FireComplete(ctx context.Context, messages []Message) error {
	for _, hook := range h.hooks {
		if err := hook.OnComplete(ctx, messages); err != nil {
			return err
		}
	}
	return nil
}
