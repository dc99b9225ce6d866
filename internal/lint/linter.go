package lint

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
)

// Context is the input to a single Linter.Lint call. Line and LineContent
// are populated only when scope is ScopeLine.
type Context struct {
	File        string
	Content     string
	Line        int
	LineContent string
}

// FileContext builds a whole-file lint context.
func FileContext(file, content string) *Context {
	return &Context{File: file, Content: content}
}

// LineContext builds a single-line lint context; line is 1-based.
func LineContext(file, content string, line int, lineContent string) *Context {
	return &Context{File: file, Content: content, Line: line, LineContent: lineContent}
}

// Linter is one lint unit: command (inline) or external (subprocess).
type Linter interface {
	ID() string
	Categories() []Category
	Priority() uint32
	Patterns() []string
	Matches(path string) bool
	Scope() Scope
	Lint(ctx context.Context, lc *Context) ([]Diagnostic, error)
}

// baseConfig is the shared identity/matching logic embedded by both
// CommandLinter and ExternalLinter, mirroring the original's LinterConfig.
type baseConfig struct {
	id               string
	categories       []Category
	patterns         []string
	priorityOverride *uint32
}

func newBaseConfig(id string, categories []Category, patterns []string) baseConfig {
	return baseConfig{id: id, categories: categories, patterns: patterns}
}

func (c baseConfig) effectivePriority() uint32 {
	if c.priorityOverride != nil {
		return *c.priorityOverride
	}
	best := uint32(0)
	for _, cat := range c.categories {
		if p := defaultPriority(cat); p > best {
			best = p
		}
	}
	return best
}

func (c *baseConfig) withPriority(p uint32) { c.priorityOverride = &p }

// matches reports whether path matches any of this linter's glob
// patterns.
func (c baseConfig) matches(path string) bool {
	for _, p := range c.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
