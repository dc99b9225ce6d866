package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// RunnerConfig controls one lint run (spec §4.F "Execution").
type RunnerConfig struct {
	Root       string
	Parallel   bool
	MaxWorkers int64
	FailFast   bool
	Timeout    time.Duration
}

// DefaultRunnerConfig returns a parallel run with 4 workers, no
// fail-fast, and a 30s per-linter-call timeout.
func DefaultRunnerConfig(root string) RunnerConfig {
	return RunnerConfig{Root: root, Parallel: true, MaxWorkers: 4, FailFast: false, Timeout: 30 * time.Second}
}

// LintError is a failure to run a linter (timeout, read error, linter
// bug) — distinct from a Diagnostic, which is a lint finding.
type LintError struct {
	LinterID string
	File     string
	Message  string
}

// CategorySummary aggregates diagnostics for one category.
type CategorySummary struct {
	Total      int
	BySeverity map[Severity]int
	Fixable    int
}

// Result is the outcome of a lint run.
type Result struct {
	Diagnostics []Diagnostic
	FilesChecked int
	Duration    time.Duration
	Errors      []LintError
	ByCategory  map[string]CategorySummary
	BySeverity  map[Severity]int
}

// HasErrors reports whether any diagnostic is Error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is Warning severity or
// worse.
func (r *Result) HasWarnings() bool {
	for _, d := range r.Diagnostics {
		if d.Severity >= SeverityWarning {
			return true
		}
	}
	return false
}

// FixableCount returns how many diagnostics carry a Fix.
func (r *Result) FixableCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.IsFixable() {
			n++
		}
	}
	return n
}

// FilterSeverity returns diagnostics at exactly the given severity.
func (r *Result) FilterSeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// ForFile returns diagnostics located in the given file.
func (r *Result) ForFile(path string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Location.File == path {
			out = append(out, d)
		}
	}
	return out
}

// Runner executes a Registry's linters against a set of files.
//
// Grounded in original_source's crates/linter/core/src/runner.rs: priority
// groups run sequentially, highest first; linters within a group run
// concurrently bounded by MaxWorkers (golang.org/x/sync/semaphore in place
// of tokio::sync::Semaphore); a per-call timeout converts a stuck linter
// into a LintError rather than hanging the run.
type Runner struct {
	registry *Registry
	config   RunnerConfig
}

// NewRunner builds a Runner.
func NewRunner(registry *Registry, config RunnerConfig) *Runner {
	return &Runner{registry: registry, config: config}
}

// Run lints the given files, or every file discovered under config.Root
// when files is nil.
func (r *Runner) Run(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()

	if files == nil {
		discovered, err := collectFiles(r.config.Root)
		if err != nil {
			return nil, fmt.Errorf("collect files: %w", err)
		}
		files = discovered
	}

	var allDiags []Diagnostic
	var allErrors []LintError

	for _, group := range r.registry.byPriorityGroupsDescending() {
		diags, errs := r.runGroup(ctx, group.linters, files)
		allDiags = append(allDiags, diags...)
		allErrors = append(allErrors, errs...)

		if r.config.FailFast && hasErrorSeverity(allDiags) {
			break
		}
	}

	allDiags = dedupeDiagnostics(allDiags)

	return &Result{
		Diagnostics:  allDiags,
		FilesChecked: len(files),
		Duration:     time.Since(start),
		Errors:       allErrors,
		ByCategory:   buildCategorySummary(allDiags),
		BySeverity:   buildSeveritySummary(allDiags),
	}, nil
}

func (r *Runner) runGroup(ctx context.Context, linters []Linter, files []string) ([]Diagnostic, []LintError) {
	if !r.config.Parallel {
		var diags []Diagnostic
		var errs []LintError
		for _, l := range linters {
			d, e := r.runLinterOnFiles(ctx, l, files)
			diags = append(diags, d...)
			errs = append(errs, e...)
		}
		return diags, errs
	}

	workers := r.config.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var diags []Diagnostic
	var errs []LintError

	for _, l := range linters {
		l := l
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			d, e := r.runLinterOnFiles(ctx, l, files)
			mu.Lock()
			diags = append(diags, d...)
			errs = append(errs, e...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return diags, errs
}

func (r *Runner) runLinterOnFiles(ctx context.Context, l Linter, files []string) ([]Diagnostic, []LintError) {
	var diags []Diagnostic
	var errs []LintError

	for _, file := range files {
		if !l.Matches(file) {
			continue
		}
		fullPath := file
		if r.config.Root != "" && !filepath.IsAbs(file) {
			fullPath = filepath.Join(r.config.Root, file)
		}
		content, err := os.ReadFile(fullPath)
		if err != nil {
			errs = append(errs, LintError{LinterID: l.ID(), File: file, Message: fmt.Sprintf("failed to read file: %v", err)})
			continue
		}

		switch l.Scope() {
		case ScopeFile:
			lc := FileContext(file, string(content))
			d, e := r.callWithTimeout(ctx, l, lc)
			if e != "" {
				errs = append(errs, LintError{LinterID: l.ID(), File: file, Message: e})
			} else {
				diags = append(diags, d...)
			}
		case ScopeLine:
			lines := strings.Split(string(content), "\n")
			for i, line := range lines {
				lineNum := i + 1
				lc := LineContext(file, string(content), lineNum, line)
				d, e := r.callWithTimeout(ctx, l, lc)
				if e != "" {
					errs = append(errs, LintError{LinterID: l.ID(), File: file, Message: fmt.Sprintf("%s at line %d", e, lineNum)})
				} else {
					diags = append(diags, d...)
				}
			}
		case ScopeSymbol:
			// reserved; not executed in core (spec §4.F).
		}
	}
	return diags, errs
}

func (r *Runner) callWithTimeout(ctx context.Context, l Linter, lc *Context) ([]Diagnostic, string) {
	timeout := r.config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		diags []Diagnostic
		err   error
	}
	done := make(chan result, 1)
	go func() {
		d, err := l.Lint(callCtx, lc)
		done <- result{d, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Sprintf("linter error: %v", res.err)
		}
		return res.diags, ""
	case <-callCtx.Done():
		return nil, "linter timed out"
	}
}

func hasErrorSeverity(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func buildCategorySummary(diags []Diagnostic) map[string]CategorySummary {
	out := map[string]CategorySummary{}
	for _, d := range diags {
		for _, cat := range d.Categories {
			name := string(cat)
			entry := out[name]
			if entry.BySeverity == nil {
				entry.BySeverity = map[Severity]int{}
			}
			entry.Total++
			entry.BySeverity[d.Severity]++
			if d.IsFixable() {
				entry.Fixable++
			}
			out[name] = entry
		}
	}
	return out
}

func buildSeveritySummary(diags []Diagnostic) map[Severity]int {
	out := map[Severity]int{}
	for _, d := range diags {
		out[d.Severity]++
	}
	return out
}
