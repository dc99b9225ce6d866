// Package agent implements the LLM-driving loop (spec §4.G): an
// LlmProvider is called with the running message context and tool
// schemas, tool calls are approved and dispatched (in parallel when every
// call targets a read-only tool), and hooks fan out at each stage.
//
// Grounded in the teacher's internal/session/executor.go loop shape
// (iteration bound, hook-style fan-out, tool dispatch, context/compaction)
// generalized from codeNERD's JIT-prompt-specific flow to the abstract
// collaborator interfaces named below, and in
// original_source's crates/adi-agent-loop/core/src/agent.rs, which this
// package follows closely enough that its own test module translates
// directly (see agent_test.go).
package agent

import (
	"time"
	"unicode/utf8"
)

// Role distinguishes the four message kinds the loop ever appends to its
// context.
type Role int

const (
	RoleSystem Role = iota
	RoleUser
	RoleAssistant
	RoleTool
)

// Message is one entry in the conversation the LlmProvider sees. Only the
// fields relevant to Role are populated:
//   - System, User: Text.
//   - Assistant: Text and/or ToolCalls (at least one must be set).
//   - Tool: ToolCallID and Text (the tool's result content).
type Message struct {
	Role       Role
	Text       string
	ToolCalls  []ToolCall
	ToolCallID string
}

// SystemMessage builds a system-role message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// UserMessage builds a user-role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// AssistantMessage builds a text-only assistant message (no tool calls).
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// AssistantToolCallMessage builds an assistant message carrying tool calls.
func AssistantToolCallMessage(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolMessage converts a ToolResult into the Tool-role message appended to
// context after execution.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Text: content}
}

// ToolCall is one invocation requested by the LLM.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult is the outcome of executing one ToolCall.
type ToolResult struct {
	ToolCallID string
	Success    bool
	Content    string
	ErrorCode  string
	ElapsedMs  int64
}

// ErrorResult builds a failed ToolResult, used both for denied calls and
// for executor failures.
func ErrorResult(callID, content, code string, elapsedMs int64) ToolResult {
	return ToolResult{ToolCallID: callID, Success: false, Content: content, ErrorCode: code, ElapsedMs: elapsedMs}
}

// ToMessage converts a ToolResult to the Tool message appended to context.
func (r ToolResult) ToMessage() Message { return ToolMessage(r.ToolCallID, r.Content) }

// LoopState tracks one run's progress; reset at the start of every Run.
type LoopState struct {
	Iteration     int
	TotalTokens   int
	ToolCallsDone int
	ErrorsCount   int
	LastActivity  time.Time
}

// LoopConfig bounds one run.
type LoopConfig struct {
	MaxIterations        int
	MaxTokens            int
	TimeoutMs            int64
	MaxParallelTools     int
	CompactionThreshold  float64 // fraction of MaxTokens that triggers compaction
	CompactionKeepRecent int     // number of most-recent messages compaction never touches
}

// DefaultLoopConfig mirrors the original's LoopConfig::default().
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations:        50,
		MaxTokens:             150_000,
		TimeoutMs:             120_000,
		MaxParallelTools:      4,
		CompactionThreshold:   0.8,
		CompactionKeepRecent:  10,
	}
}

// TokenEstimator estimates a message's token cost. The default
// implementation follows the teacher's internal/context/tokens.go
// TokenCounter: ~4 characters (runes) per token, calibrated for Claude's
// tokenizer.
type TokenEstimator interface {
	Estimate(m Message) int
}

// CharsPerTokenEstimator is the default TokenEstimator.
type CharsPerTokenEstimator struct {
	CharsPerToken float64
}

// NewCharsPerTokenEstimator builds the default estimator (4 chars/token).
func NewCharsPerTokenEstimator() CharsPerTokenEstimator {
	return CharsPerTokenEstimator{CharsPerToken: 4.0}
}

func (e CharsPerTokenEstimator) Estimate(m Message) int {
	tokens := e.countString(m.Text)
	for _, tc := range m.ToolCalls {
		tokens += 4 + e.countString(tc.Name)
		for k, v := range tc.Arguments {
			tokens += 2 + e.countString(k) + e.countValue(v)
		}
	}
	return tokens
}

func (e CharsPerTokenEstimator) countString(s string) int {
	if s == "" {
		return 0
	}
	return int(float64(utf8.RuneCountInString(s)) / e.CharsPerToken)
}

func (e CharsPerTokenEstimator) countValue(v any) int {
	switch t := v.(type) {
	case string:
		return e.countString(t) + 2
	case int, int64, float64, bool:
		return 2
	default:
		return 3
	}
}
