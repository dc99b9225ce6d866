package lint

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// CommandKind selects one of the inline, subprocess-free checks (spec
// §4.F "Command linter").
type CommandKind int

const (
	RegexForbid CommandKind = iota
	RegexRequire
	MaxLineLength
	MaxFileSize
	Contains
	NotContains
)

// RegexFix describes a regex-based autofix: occurrences of Pattern within
// the matched region are replaced with Replacement (supports $1-style
// capture group references, per regexp.Regexp.ReplaceAll semantics).
type RegexFix struct {
	Pattern     string
	Replacement string
}

// CommandSpec configures one CommandKind check. Only the fields relevant
// to the selected Kind are read.
type CommandSpec struct {
	Kind    CommandKind
	Pattern string    // RegexForbid, RegexRequire
	Message string     // RegexForbid, RegexRequire, Contains, NotContains
	Fix     *RegexFix  // RegexForbid only
	Max     int        // MaxLineLength, MaxFileSize
	Text    string     // Contains, NotContains
}

// CommandLinter runs one inline check against a file's buffer, no
// subprocess spawning.
type CommandLinter struct {
	base        baseConfig
	scope       Scope
	severity    Severity
	spec        CommandSpec
	mainRegex   *regexp.Regexp
	fixRegex    *regexp.Regexp
}

// NewCommandLinter builds a CommandLinter. Patterns with RegexForbid/
// RegexRequire kinds are compiled eagerly so a bad pattern fails at
// construction, not at first lint.
func NewCommandLinter(id string, categories []Category, patterns []string, scope Scope, severity Severity, spec CommandSpec) (*CommandLinter, error) {
	cl := &CommandLinter{
		base:     newBaseConfig(id, categories, patterns),
		scope:    scope,
		severity: severity,
		spec:     spec,
	}

	switch spec.Kind {
	case RegexForbid:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("lint %q: compile pattern: %w", id, err)
		}
		cl.mainRegex = re
		if spec.Fix != nil {
			fre, err := regexp.Compile(spec.Fix.Pattern)
			if err != nil {
				return nil, fmt.Errorf("lint %q: compile fix pattern: %w", id, err)
			}
			cl.fixRegex = fre
		}
	case RegexRequire:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("lint %q: compile pattern: %w", id, err)
		}
		cl.mainRegex = re
	}
	return cl, nil
}

// WithPriority overrides the category-derived default priority.
func (c *CommandLinter) WithPriority(p uint32) *CommandLinter {
	c.base.withPriority(p)
	return c
}

func (c *CommandLinter) ID() string             { return c.base.id }
func (c *CommandLinter) Categories() []Category { return c.base.categories }
func (c *CommandLinter) Priority() uint32       { return c.base.effectivePriority() }
func (c *CommandLinter) Patterns() []string     { return c.base.patterns }
func (c *CommandLinter) Matches(path string) bool { return c.base.matches(path) }
func (c *CommandLinter) Scope() Scope            { return c.scope }

func (c *CommandLinter) Lint(_ context.Context, lc *Context) ([]Diagnostic, error) {
	switch c.scope {
	case ScopeLine:
		return c.lintLine(lc), nil
	default:
		return c.lintFile(lc), nil
	}
}

func (c *CommandLinter) diag(message string, loc Location) Diagnostic {
	return Diagnostic{RuleID: c.base.id, LinterID: c.base.id, Categories: c.base.categories, Severity: c.severity, Message: message, Location: loc}
}

func (c *CommandLinter) lintFile(lc *Context) []Diagnostic {
	switch c.spec.Kind {
	case RegexForbid:
		return c.checkRegexForbid(lc.File, lc.Content, 0)
	case RegexRequire:
		if c.mainRegex.MatchString(lc.Content) {
			return nil
		}
		return []Diagnostic{c.diag(c.spec.Message, FileLocation(lc.File))}
	case MaxLineLength:
		return c.checkMaxLineLength(lc.File, lc.Content)
	case MaxFileSize:
		if len(lc.Content) > c.spec.Max {
			return []Diagnostic{c.diag(fmt.Sprintf("File exceeds %d bytes (%d bytes)", c.spec.Max, len(lc.Content)), FileLocation(lc.File))}
		}
		return nil
	case Contains:
		return c.checkContains(lc.File, lc.Content)
	case NotContains:
		if strings.Contains(lc.Content, c.spec.Text) {
			return nil
		}
		return []Diagnostic{c.diag(c.spec.Message, FileLocation(lc.File))}
	}
	return nil
}

func (c *CommandLinter) lintLine(lc *Context) []Diagnostic {
	switch c.spec.Kind {
	case RegexForbid:
		return c.checkRegexForbidLine(lc.File, lc.Line, lc.LineContent)
	case RegexRequire:
		if c.mainRegex.MatchString(lc.LineContent) {
			return nil
		}
		return []Diagnostic{c.diag(c.spec.Message, LineLocation(lc.File, lc.Line))}
	case MaxLineLength:
		if len(lc.LineContent) > c.spec.Max {
			return []Diagnostic{c.diag(
				fmt.Sprintf("Line exceeds %d characters (%d chars)", c.spec.Max, len(lc.LineContent)),
				Location{File: lc.File, StartLine: lc.Line, StartCol: c.spec.Max + 1, EndLine: lc.Line, EndCol: len(lc.LineContent) + 1},
			)}
		}
		return nil
	case Contains:
		if col := strings.Index(lc.LineContent, c.spec.Text); col >= 0 {
			return []Diagnostic{c.diag(c.spec.Message, Location{
				File: lc.File, StartLine: lc.Line, StartCol: col + 1, EndLine: lc.Line, EndCol: col + len(c.spec.Text) + 1,
			})}
		}
		return nil
	}
	return nil
}

func (c *CommandLinter) checkRegexForbid(file, content string, _ int) []Diagnostic {
	var out []Diagnostic
	for lineIdx, line := range strings.Split(content, "\n") {
		lineNum := lineIdx + 1
		for _, loc := range c.mainRegex.FindAllStringIndex(line, -1) {
			d := c.diag(c.spec.Message, Location{File: file, StartLine: lineNum, StartCol: loc[0] + 1, EndLine: lineNum, EndCol: loc[1] + 1})
			if fix := c.buildFix(file, line); fix != nil {
				d.Fix = fix
			}
			out = append(out, d)
		}
	}
	return out
}

func (c *CommandLinter) checkRegexForbidLine(file string, lineNum int, lineContent string) []Diagnostic {
	var out []Diagnostic
	for _, loc := range c.mainRegex.FindAllStringIndex(lineContent, -1) {
		d := c.diag(c.spec.Message, Location{File: file, StartLine: lineNum, StartCol: loc[0] + 1, EndLine: lineNum, EndCol: loc[1] + 1})
		if fix := c.buildFix(file, lineContent); fix != nil {
			d.Fix = fix
		}
		out = append(out, d)
	}
	return out
}

func (c *CommandLinter) buildFix(file, line string) *Fix {
	if c.spec.Fix == nil || c.fixRegex == nil {
		return nil
	}
	loc := c.fixRegex.FindStringIndex(line)
	if loc == nil {
		return nil
	}
	newText := c.fixRegex.ReplaceAllString(line[loc[0]:loc[1]], c.spec.Fix.Replacement)
	return &Fix{
		Description: fmt.Sprintf("Replace with %q", newText),
		File:        file,
		Start:       loc[0],
		End:         loc[1],
		Replacement: newText,
	}
}

func (c *CommandLinter) checkMaxLineLength(file, content string) []Diagnostic {
	var out []Diagnostic
	for lineIdx, line := range strings.Split(content, "\n") {
		if len(line) > c.spec.Max {
			lineNum := lineIdx + 1
			out = append(out, c.diag(
				fmt.Sprintf("Line exceeds %d characters (%d chars)", c.spec.Max, len(line)),
				Location{File: file, StartLine: lineNum, StartCol: c.spec.Max + 1, EndLine: lineNum, EndCol: len(line) + 1},
			))
		}
	}
	return out
}

func (c *CommandLinter) checkContains(file, content string) []Diagnostic {
	var out []Diagnostic
	for lineIdx, line := range strings.Split(content, "\n") {
		if col := strings.Index(line, c.spec.Text); col >= 0 {
			lineNum := lineIdx + 1
			out = append(out, c.diag(c.spec.Message, Location{
				File: file, StartLine: lineNum, StartCol: col + 1, EndLine: lineNum, EndCol: col + len(c.spec.Text) + 1,
			}))
		}
	}
	return out
}
