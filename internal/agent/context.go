package agent

import "fmt"

// ContextManager owns the ordered message list the loop feeds to the
// LlmProvider, and keeps it under the configured token budget.
//
// Grounded in the original's ContextManager (constructed once per loop
// from a LoopConfig) and, for the compaction shape itself, in the
// teacher's internal/context/compressor.go budget-driven trigger:
// compaction is a pure token-threshold decision, never time- or
// turn-count-driven.
type ContextManager struct {
	messages  []Message
	estimator TokenEstimator
	config    LoopConfig
}

// NewContextManager builds a manager for one loop run.
func NewContextManager(config LoopConfig) *ContextManager {
	return &ContextManager{estimator: NewCharsPerTokenEstimator(), config: config}
}

// WithTokenEstimator overrides the default chars-per-token estimator.
func (c *ContextManager) WithTokenEstimator(e TokenEstimator) *ContextManager {
	c.estimator = e
	return c
}

// AddMessage appends a message to the context.
func (c *ContextManager) AddMessage(m Message) { c.messages = append(c.messages, m) }

// Messages returns the current context, in order.
func (c *ContextManager) Messages() []Message { return c.messages }

// TotalTokens sums the estimator's per-message estimate.
func (c *ContextManager) TotalTokens() int {
	total := 0
	for _, m := range c.messages {
		total += c.estimator.Estimate(m)
	}
	return total
}

// CompactIfNeeded collapses older messages into a single summary message
// once TotalTokens crosses CompactionThreshold * MaxTokens, preserving any
// leading System messages and the most recent CompactionKeepRecent
// messages untouched. No-op below the threshold, or when there is nothing
// in the middle to collapse.
func (c *ContextManager) CompactIfNeeded() {
	if c.config.MaxTokens <= 0 || c.config.CompactionThreshold <= 0 {
		return
	}
	threshold := int(float64(c.config.MaxTokens) * c.config.CompactionThreshold)
	if c.TotalTokens() <= threshold {
		return
	}

	leadingSystem := 0
	for leadingSystem < len(c.messages) && c.messages[leadingSystem].Role == RoleSystem {
		leadingSystem++
	}

	keepRecent := c.config.CompactionKeepRecent
	if keepRecent < 0 {
		keepRecent = 0
	}
	recentStart := len(c.messages) - keepRecent
	if recentStart <= leadingSystem {
		return
	}

	dropped := recentStart - leadingSystem
	summary := SystemMessage(fmt.Sprintf("[%d earlier messages summarized to stay within the token budget]", dropped))

	compacted := make([]Message, 0, leadingSystem+1+keepRecent)
	compacted = append(compacted, c.messages[:leadingSystem]...)
	compacted = append(compacted, summary)
	compacted = append(compacted, c.messages[recentStart:]...)
	c.messages = compacted
}
