package lint

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// collectFiles walks root, applying hidden-directory skipping plus
// .gitignore/.adiignore patterns, matching spec §4.F step 1. Unlike
// internal/indexer's discoverFiles this applies no language allow-list —
// linters match files by their own glob patterns, so any file type is a
// candidate.
func collectFiles(root string) ([]string, error) {
	var patterns []string
	patterns = append(patterns, readIgnoreFile(filepath.Join(root, ".gitignore"))...)
	patterns = append(patterns, readIgnoreFile(filepath.Join(root, ".adiignore"))...)

	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
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

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if ignored(rel, patterns) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ignored(relPath string, patterns []string) bool {
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

func readIgnoreFile(path string) []string {
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
