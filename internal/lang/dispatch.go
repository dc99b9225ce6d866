// Package lang implements the parser dispatch (spec §4.A): a registry of
// per-language analyzers keyed by codegraph.Language, and a Parse entry
// point that returns an empty ParsedFile for unregistered languages rather
// than an error.
package lang

import (
	"fmt"

	"adi/internal/codegraph"

	"go.uber.org/zap"
)

// Analyzer is the pluggable LanguageAnalyzer interface (spec §6): a
// polymorphic capability set keyed by language tag.
type Analyzer interface {
	ExtractSymbols(source []byte) ([]codegraph.ParsedSymbol, error)
	ExtractReferences(source []byte) ([]codegraph.ParsedReference, error)
}

// Dispatcher holds the language -> analyzer registration table.
type Dispatcher struct {
	log       *zap.Logger
	analyzers map[codegraph.Language]Analyzer
}

// NewDispatcher builds a dispatcher with the default analyzer set wired:
// Go via go/ast, and tree-sitter-backed analyzers for the remaining
// grammars the teacher already depends on.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{log: log, analyzers: make(map[codegraph.Language]Analyzer)}
	d.Register(codegraph.LangGo, NewGoAnalyzer())
	for lang, ts := range newTreeSitterAnalyzers() {
		d.Register(lang, ts)
	}
	return d
}

// Register installs (or replaces) the analyzer for a language tag.
func (d *Dispatcher) Register(language codegraph.Language, a Analyzer) {
	d.analyzers[language] = a
}

// Parse dispatches to the registered analyzer for language. An
// unregistered language (including LangUnknown) yields an empty
// ParsedFile — the file is skipped, not errored.
func (d *Dispatcher) Parse(source []byte, language codegraph.Language) (codegraph.ParsedFile, *codegraph.ParsedFile, error) {
	analyzer, ok := d.analyzers[language]
	if !ok {
		return codegraph.ParsedFile{}, nil, nil
	}

	symbols, err := safeExtract(func() ([]codegraph.ParsedSymbol, error) {
		return analyzer.ExtractSymbols(source)
	})
	if err != nil {
		// Best-effort partial result: a grammar error still yields whatever
		// symbols parsed successfully, per spec §4.A failure semantics.
		d.log.Warn("partial parse", zap.String("language", string(language)), zap.Error(err))
	}

	refs, refErr := safeExtractRefs(func() ([]codegraph.ParsedReference, error) {
		return analyzer.ExtractReferences(source)
	})
	if refErr != nil {
		d.log.Warn("reference extraction failed", zap.String("language", string(language)), zap.Error(refErr))
	}

	pf := codegraph.ParsedFile{Symbols: symbols, References: refs}
	return pf, &pf, nil
}

// safeExtract isolates panics from an analyzer as an error, so a single
// misbehaving grammar can't bring down the pipeline (spec §4.A).
func safeExtract(fn func() ([]codegraph.ParsedSymbol, error)) (syms []codegraph.ParsedSymbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return fn()
}

func safeExtractRefs(fn func() ([]codegraph.ParsedReference, error)) (refs []codegraph.ParsedReference, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return fn()
}

// DenyList filters trivially built-in call targets out of extracted
// references, per language (spec §4.A "filter out primitives... by a
// per-language deny list").
var DenyList = map[codegraph.Language]map[string]bool{
	codegraph.LangGo:         {"println": true, "print": true, "len": true, "cap": true, "make": true, "new": true, "panic": true, "recover": true, "append": true},
	codegraph.LangPython:     {"print": true, "len": true, "range": true, "str": true, "int": true, "isinstance": true},
	codegraph.LangJavaScript: {"console.log": true, "console.error": true, "console.warn": true},
	codegraph.LangTypeScript: {"console.log": true, "console.error": true, "console.warn": true},
	codegraph.LangRust:       {"println!": true, "print!": true, "vec!": true, "format!": true},
	codegraph.LangJava:       {"System.out.println": true},
	codegraph.LangCSharp:     {"Console.WriteLine": true},
}

// Denied reports whether name is a trivial built-in for language and
// should be filtered from reference extraction.
func Denied(language codegraph.Language, name string) bool {
	deny, ok := DenyList[language]
	if !ok {
		return false
	}
	return deny[name]
}
