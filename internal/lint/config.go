package lint

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ruleConfig is the on-disk shape of one [[rule]] entry in a project's
// .adi/lint.toml, covering both command and external linters behind a
// single declarative table.
type ruleConfig struct {
	ID         string   `toml:"id"`
	Categories []string `toml:"categories"`
	Patterns   []string `toml:"patterns"`
	Scope      string   `toml:"scope"`
	Severity   string   `toml:"severity"`

	// Command linter fields.
	Kind        string `toml:"kind"`
	Pattern     string `toml:"pattern"`
	Message     string `toml:"message"`
	FixPattern  string `toml:"fix_pattern"`
	FixReplace  string `toml:"fix_replace"`
	Max         int    `toml:"max"`
	Text        string `toml:"text"`

	// External linter fields.
	Exec       string `toml:"exec"`
	InputMode  string `toml:"input_mode"`
	OutputMode string `toml:"output_mode"`
	TimeoutMs  int64  `toml:"timeout_ms"`
}

type fileConfig struct {
	Rule []ruleConfig `toml:"rule"`
}

// LoadConfig reads a lint rule set from a TOML file and builds a populated
// Registry. A rule with a non-empty Exec is treated as external; otherwise
// it's a command linter keyed by Kind.
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lint config %s: %w", path, err)
	}

	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return nil, fmt.Errorf("parse lint config %s: %w", path, err)
	}

	registry := NewRegistry()
	for _, rc := range fc.Rule {
		categories := make([]Category, len(rc.Categories))
		for i, c := range rc.Categories {
			categories[i] = Category(c)
		}
		scope := parseScope(rc.Scope)
		severity := parseSeverity(rc.Severity)

		if rc.Exec != "" {
			timeout := 30 * time.Second
			if rc.TimeoutMs > 0 {
				timeout = time.Duration(rc.TimeoutMs) * time.Millisecond
			}
			ec := ExternalConfig{
				Exec:       rc.Exec,
				InputMode:  parseInputMode(rc.InputMode),
				OutputMode: parseOutputMode(rc.OutputMode),
				Timeout:    timeout,
				Severity:   severity,
				Message:    rc.Message,
			}
			registry.Register(NewExternalLinter(rc.ID, categories, rc.Patterns, ec))
			continue
		}

		spec := CommandSpec{
			Kind:    parseCommandKind(rc.Kind),
			Pattern: rc.Pattern,
			Message: rc.Message,
			Max:     rc.Max,
			Text:    rc.Text,
		}
		if rc.FixPattern != "" {
			spec.Fix = &RegexFix{Pattern: rc.FixPattern, Replacement: rc.FixReplace}
		}
		linter, err := NewCommandLinter(rc.ID, categories, rc.Patterns, scope, severity, spec)
		if err != nil {
			return nil, err
		}
		registry.Register(linter)
	}

	return registry, nil
}

func parseScope(s string) Scope {
	switch s {
	case "line":
		return ScopeLine
	case "symbol":
		return ScopeSymbol
	default:
		return ScopeFile
	}
}

func parseSeverity(s string) Severity {
	switch s {
	case "warning":
		return SeverityWarning
	case "error":
		return SeverityError
	default:
		return SeverityInfo
	}
}

func parseCommandKind(s string) CommandKind {
	switch s {
	case "regex-require":
		return RegexRequire
	case "max-line-length":
		return MaxLineLength
	case "max-file-size":
		return MaxFileSize
	case "contains":
		return Contains
	case "not-contains":
		return NotContains
	default:
		return RegexForbid
	}
}

func parseInputMode(s string) InputMode {
	switch s {
	case "stdin":
		return InputStdin
	case "both":
		return InputBoth
	default:
		return InputFilePath
	}
}

func parseOutputMode(s string) OutputMode {
	switch s {
	case "exit-code":
		return OutputExitCode
	case "lines":
		return OutputLines
	default:
		return OutputJSON
	}
}
