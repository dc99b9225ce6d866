package workflow

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"adi/internal/errs"
)

// localDir returns the project-local workflow directory rooted at cwd.
func localDir(cwd string) string {
	return filepath.Join(cwd, ".adi", "workflows")
}

// globalDir returns the user's global workflow directory.
func globalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".adi", "workflows")
}

// searchDirs returns the directories searched for workflow files, in
// precedence order: project-local before global.
func searchDirs(cwd string) []string {
	dirs := []string{localDir(cwd)}
	if g := globalDir(); g != "" {
		dirs = append(dirs, g)
	}
	return dirs
}

// Find locates a workflow by name, searching ./.adi/workflows then
// ~/.adi/workflows. The first match wins.
func Find(cwd, name string) (*File, error) {
	for _, dir := range searchDirs(cwd) {
		path := filepath.Join(dir, name+".toml")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	return nil, &errs.WorkflowNotFound{Name: name}
}

// Discover lists every workflow visible from cwd, deduplicated by name with
// project-local definitions shadowing global ones of the same name, sorted
// by name.
func Discover(cwd string) ([]*File, error) {
	seen := map[string]*File{}
	order := []string{}

	for _, dir := range searchDirs(cwd) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".toml")
			if _, ok := seen[name]; ok {
				continue
			}
			f, err := Load(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			seen[name] = f
			order = append(order, name)
		}
	}

	sort.Strings(order)
	files := make([]*File, 0, len(order))
	for _, name := range order {
		files = append(files, seen[name])
	}
	return files, nil
}
