package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// InputMode controls how file content reaches an external linter process.
type InputMode int

const (
	InputFilePath InputMode = iota
	InputStdin
	InputBoth
)

// OutputMode controls how an external linter process's output is parsed
// into diagnostics.
type OutputMode int

const (
	OutputJSON OutputMode = iota
	OutputExitCode
	OutputLines
)

// ExternalConfig configures one subprocess-backed linter.
type ExternalConfig struct {
	Exec       string // command template, e.g. "eslint {file}"
	InputMode  InputMode
	OutputMode OutputMode
	Timeout    time.Duration
	Severity   Severity
	Message    string // fallback message for OutputExitCode
}

// ExternalLinter runs an arbitrary executable per file and parses its
// output as diagnostics.
//
// Grounded in original_source's
// crates/linter/core/src/linter/external.rs; template expansion, the
// line:col:message / line:message / bare-message fallback chain, and the
// JSON single/array/wrapper-object parsing tolerance are all ported
// directly from ExternalLinter::expand_template/parse_line_format/
// parse_json_output.
type ExternalLinter struct {
	base     baseConfig
	external ExternalConfig
}

// NewExternalLinter builds an ExternalLinter.
func NewExternalLinter(id string, categories []Category, patterns []string, external ExternalConfig) *ExternalLinter {
	return &ExternalLinter{base: newBaseConfig(id, categories, patterns), external: external}
}

// WithPriority overrides the category-derived default priority.
func (e *ExternalLinter) WithPriority(p uint32) *ExternalLinter {
	e.base.withPriority(p)
	return e
}

func (e *ExternalLinter) ID() string               { return e.base.id }
func (e *ExternalLinter) Categories() []Category   { return e.base.categories }
func (e *ExternalLinter) Priority() uint32         { return e.base.effectivePriority() }
func (e *ExternalLinter) Patterns() []string       { return e.base.patterns }
func (e *ExternalLinter) Matches(path string) bool { return e.base.matches(path) }
func (e *ExternalLinter) Scope() Scope             { return ScopeFile }

func (e *ExternalLinter) expandTemplate(template string, lc *Context) string {
	dir, basename, ext := splitPath(lc.File)
	line := "0"
	if lc.Line > 0 {
		line = strconv.Itoa(lc.Line)
	}
	r := strings.NewReplacer(
		"{file}", lc.File,
		"{dir}", dir,
		"{basename}", basename,
		"{ext}", ext,
		"{line}", line,
	)
	return r.Replace(template)
}

func splitPath(path string) (dir, basename, ext string) {
	slash := strings.LastIndexByte(path, '/')
	if slash >= 0 {
		dir, basename = path[:slash], path[slash+1:]
	} else {
		basename = path
	}
	if dot := strings.LastIndexByte(basename, '.'); dot > 0 {
		ext = basename[dot+1:]
	}
	return dir, basename, ext
}

func (e *ExternalLinter) Lint(ctx context.Context, lc *Context) ([]Diagnostic, error) {
	timeout := e.external.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	expanded := e.expandTemplate(e.external.Exec, lc)
	fields := strings.Fields(expanded)
	if len(fields) == 0 {
		return nil, fmt.Errorf("lint %q: empty command", e.base.id)
	}

	cmd := exec.CommandContext(runCtx, fields[0], fields[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if e.external.InputMode == InputStdin || e.external.InputMode == InputBoth {
		cmd.Stdin = strings.NewReader(lc.Content)
	}

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("lint %q: run %q: %w", e.base.id, fields[0], runErr)
		}
	}

	switch e.external.OutputMode {
	case OutputJSON:
		return e.parseJSON(lc, stdout.String()), nil
	case OutputExitCode:
		return e.parseExitCode(lc, exitCode), nil
	default:
		return e.parseLines(lc, stdout.String()), nil
	}
}

// externalDiagnostic is the JSON shape an external linter may emit, one
// field optional at a time so partial output still parses.
type externalDiagnostic struct {
	RuleID    string `json:"rule_id"`
	Message   string `json:"message"`
	Severity  *int   `json:"severity"`
	File      string `json:"file"`
	Line      *int   `json:"line"`
	Column    *int   `json:"column"`
	EndLine   *int   `json:"end_line"`
	EndColumn *int   `json:"end_column"`
}

type diagnosticsWrapper struct {
	Diagnostics []externalDiagnostic `json:"diagnostics"`
}

func (e *ExternalLinter) parseJSON(lc *Context, stdout string) []Diagnostic {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return nil
	}

	var arr []externalDiagnostic
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		out := make([]Diagnostic, len(arr))
		for i, d := range arr {
			out[i] = e.convert(lc, d)
		}
		return out
	}

	var single externalDiagnostic
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil && single.Message != "" {
		return []Diagnostic{e.convert(lc, single)}
	}

	var wrapper diagnosticsWrapper
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err == nil {
		out := make([]Diagnostic, len(wrapper.Diagnostics))
		for i, d := range wrapper.Diagnostics {
			out[i] = e.convert(lc, d)
		}
		return out
	}

	return nil
}

func (e *ExternalLinter) convert(lc *Context, d externalDiagnostic) Diagnostic {
	ruleID := d.RuleID
	if ruleID == "" {
		ruleID = e.base.id
	}
	severity := e.external.Severity
	if d.Severity != nil {
		severity = Severity(*d.Severity)
	}
	file := d.File
	if file == "" {
		file = lc.File
	}
	line := 1
	if d.Line != nil {
		line = *d.Line
	}
	col := 1
	if d.Column != nil {
		col = *d.Column
	}
	endLine := line
	if d.EndLine != nil {
		endLine = *d.EndLine
	}
	endCol := col
	if d.EndColumn != nil {
		endCol = *d.EndColumn
	}
	return Diagnostic{
		RuleID: ruleID, LinterID: e.base.id, Categories: e.base.categories, Severity: severity, Message: d.Message,
		Location: Location{File: file, StartLine: line, StartCol: col, EndLine: endLine, EndCol: endCol},
	}
}

func (e *ExternalLinter) parseExitCode(lc *Context, code int) []Diagnostic {
	if code == 0 {
		return nil
	}
	message := e.external.Message
	if message == "" {
		message = fmt.Sprintf("Check failed (exit code %d)", code)
	}
	return []Diagnostic{{
		RuleID: e.base.id, LinterID: e.base.id, Categories: e.base.categories, Severity: e.external.Severity,
		Message: message, Location: FileLocation(lc.File),
	}}
}

func (e *ExternalLinter) parseLines(lc *Context, stdout string) []Diagnostic {
	var out []Diagnostic
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if d := e.parseLineFormat(lc, line); d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// parseLineFormat parses "line:col:message", "line:message", or a bare
// message, in that priority order.
func (e *ExternalLinter) parseLineFormat(lc *Context, line string) *Diagnostic {
	parts := strings.SplitN(line, ":", 3)
	switch len(parts) {
	case 3:
		lineNum, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		col, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil {
			d := Diagnostic{
				RuleID: e.base.id, LinterID: e.base.id, Categories: e.base.categories, Severity: e.external.Severity,
				Message: strings.TrimSpace(parts[2]),
				Location: Location{File: lc.File, StartLine: lineNum, StartCol: col, EndLine: lineNum, EndCol: col},
			}
			return &d
		}
		parts = []string{parts[0], parts[1] + ":" + parts[2]}
		fallthrough
	case 2:
		lineNum, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err == nil {
			d := Diagnostic{
				RuleID: e.base.id, LinterID: e.base.id, Categories: e.base.categories, Severity: e.external.Severity,
				Message: strings.TrimSpace(parts[1]), Location: LineLocation(lc.File, lineNum),
			}
			return &d
		}
		fallthrough
	default:
		d := Diagnostic{
			RuleID: e.base.id, LinterID: e.base.id, Categories: e.base.categories, Severity: e.external.Severity,
			Message: strings.TrimSpace(line), Location: FileLocation(lc.File),
		}
		return &d
	}
}
