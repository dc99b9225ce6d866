// Package lint implements the linter orchestrator (spec §4.F): a registry
// of priority-grouped Linter units, command (inline, no subprocess) and
// external (subprocess) linter variants, and a bounded-concurrency runner
// that deduplicates diagnostics and builds per-category/per-severity
// summaries.
//
// Grounded in original_source's crates/linter/core/src/linter/command.rs,
// crates/linter/core/src/linter/external.rs, and crates/linter/core/src/
// runner.rs, translated from async-trait/tokio to Go interfaces and
// goroutines, with bounded concurrency via golang.org/x/sync/semaphore in
// place of tokio::sync::Semaphore.
package lint

import "sort"

// Category is a lint finding's subject area; Diagnostic.Categories may
// name more than one.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryCorrectness   Category = "correctness"
	CategoryErrorHandling Category = "error_handling"
	CategoryArchitecture  Category = "architecture"
	CategoryPerformance   Category = "performance"
	CategoryCodeQuality   Category = "code_quality"
	CategoryBestPractices Category = "best_practices"
	CategoryTesting       Category = "testing"
	CategoryDocumentation Category = "documentation"
	CategoryNaming        Category = "naming"
	CategoryStyle         Category = "style"
)

// defaultPriority returns a category's default linter priority, highest
// run first.
func defaultPriority(c Category) uint32 {
	switch c {
	case CategorySecurity:
		return 1000
	case CategoryCorrectness, CategoryErrorHandling, CategoryArchitecture:
		return 750
	case CategoryPerformance, CategoryCodeQuality, CategoryBestPractices, CategoryTesting:
		return 500
	case CategoryDocumentation, CategoryNaming:
		return 250
	default: // CategoryStyle and anything unrecognized
		return 100
	}
}

// Severity orders diagnostics; HasWarnings treats Warning and Error as
// "at least a warning" via >=.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Scope controls how a Linter is invoked against a file.
type Scope int

const (
	ScopeFile Scope = iota
	ScopeLine
	// ScopeSymbol is reserved for indexer-integrated linters; the runner
	// does not dispatch calls for it (spec §4.F: "reserved; not executed
	// in core").
	ScopeSymbol
)

// Location pinpoints a diagnostic in a file; EndLine/EndCol may equal
// Start* for point diagnostics.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// FileLocation is a whole-file diagnostic (no specific line/col).
func FileLocation(file string) Location { return Location{File: file, StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1} }

// LineLocation is a whole-line diagnostic.
func LineLocation(file string, line int) Location {
	return Location{File: file, StartLine: line, StartCol: 1, EndLine: line, EndCol: 1}
}

// Fix is a proposed textual replacement, expressed as a byte range within
// the file's content.
type Fix struct {
	Description string
	File        string
	Start       int
	End         int
	Replacement string
}

// Diagnostic is one lint finding.
type Diagnostic struct {
	RuleID     string
	LinterID   string
	Categories []Category
	Severity   Severity
	Message    string
	Location   Location
	Fix        *Fix
}

// IsFixable reports whether this diagnostic carries a proposed Fix.
func (d Diagnostic) IsFixable() bool { return d.Fix != nil }

// dedupeDiagnostics sorts by (file, start_line, start_col, rule_id) and
// removes exact duplicates on that key, matching the original's
// deduplicate_diagnostics.
func dedupeDiagnostics(diags []Diagnostic) []Diagnostic {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.StartLine != b.Location.StartLine {
			return a.Location.StartLine < b.Location.StartLine
		}
		if a.Location.StartCol != b.Location.StartCol {
			return a.Location.StartCol < b.Location.StartCol
		}
		return a.RuleID < b.RuleID
	})

	out := diags[:0]
	var prev *Diagnostic
	for i := range diags {
		d := diags[i]
		if prev != nil &&
			prev.Location.File == d.Location.File &&
			prev.Location.StartLine == d.Location.StartLine &&
			prev.Location.StartCol == d.Location.StartCol &&
			prev.RuleID == d.RuleID {
			continue
		}
		out = append(out, d)
		prev = &out[len(out)-1]
	}
	return out
}
