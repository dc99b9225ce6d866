// Package indexer implements the indexing pipeline (spec §4.D): file
// discovery, language-dispatched parsing, two-phase symbol + reference
// resolution, content hashing for incremental re-indexing, and
// vector-index maintenance. Grounded line-for-line in
// original_source/crates/adi-indexer/core/src/indexer/mod.rs
// (index_project/resolve_references/find_target_symbol) and
// crates/adi-indexer/core/src/analyzer/filters.rs (ignore policy), with
// file discovery adapted from the pack's standardbeagle-lci
// internal/indexing/pipeline_scanner.go (os.ReadDir walk + gitignore
// filter) using github.com/bmatcuk/doublestar/v4 for glob matching
// instead of its hand-rolled regex compiler.
package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"adi/internal/codegraph"
)

// DiscoveryConfig controls file discovery (spec §4.D inputs).
type DiscoveryConfig struct {
	UseGitignore     bool
	UseIgnoreFile    bool // .adiignore
	MaxFileSizeBytes int64
	IgnorePatterns   []string // substrings or trailing-* prefixes, matched against the project-relative path
}

// DefaultDiscoveryConfig matches the original implementation's defaults:
// gitignore and .adiignore honored, files over 1MiB skipped.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		UseGitignore:     true,
		UseIgnoreFile:    true,
		MaxFileSizeBytes: 1 << 20,
	}
}

// discoveredFile is one file found under the project root with its
// detected language.
type discoveredFile struct {
	absPath string
	relPath string
	lang    codegraph.Language
}

// discoverFiles walks projectRoot, applying hidden-directory skipping,
// gitignore/.adiignore patterns, a size cap, and a language allow-list
// (files whose extension maps to codegraph.LangUnknown are skipped,
// matching the original's `if lang != Language::Unknown`).
func discoverFiles(projectRoot string, cfg DiscoveryConfig) ([]discoveredFile, error) {
	var patterns []string
	if cfg.UseGitignore {
		patterns = append(patterns, readPatternFile(filepath.Join(projectRoot, ".gitignore"))...)
	}
	if cfg.UseIgnoreFile {
		patterns = append(patterns, readPatternFile(filepath.Join(projectRoot, ".adiignore"))...)
	}
	patterns = append(patterns, cfg.IgnorePatterns...)

	var out []discoveredFile
	err := filepath.Walk(projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // matches the original's warn-and-continue on walk errors
		}
		base := info.Name()
		if info.IsDir() {
			if base != "." && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}

		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if shouldIgnore(rel, patterns) {
			return nil
		}
		if cfg.MaxFileSizeBytes > 0 && info.Size() > cfg.MaxFileSizeBytes {
			return nil
		}

		lang := languageFromExtension(filepath.Ext(path))
		if lang == codegraph.LangUnknown {
			return nil
		}

		out = append(out, discoveredFile{absPath: path, relPath: rel, lang: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// shouldIgnore mirrors the original's should_ignore: a pattern matches if
// it appears as a substring of the relative path, or as a doublestar glob
// match against the whole relative path (tried for every pattern; '*'
// stops at '/', while '**' spans directories).
func shouldIgnore(relPath string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(relPath, p) {
			return true
		}
		if matched, _ := doublestar.Match(p, relPath); matched {
			return true
		}
	}
	return false
}

func readPatternFile(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func languageFromExtension(ext string) codegraph.Language {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "go":
		return codegraph.LangGo
	case "py":
		return codegraph.LangPython
	case "js", "jsx", "mjs", "cjs":
		return codegraph.LangJavaScript
	case "ts", "tsx":
		return codegraph.LangTypeScript
	case "rs":
		return codegraph.LangRust
	case "java":
		return codegraph.LangJava
	case "cs":
		return codegraph.LangCSharp
	default:
		return codegraph.LangUnknown
	}
}
