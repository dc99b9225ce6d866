package workflow

import (
	"bufio"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// resolveOptions determines the candidate list for a select/multi_select
// input, honoring the priority options_cmd > options_source > options.
func resolveOptions(in Input, cwd string) ([]string, error) {
	if in.OptionsCmd != "" {
		return resolveFromCommand(in.OptionsCmd, cwd)
	}
	if in.OptionsSource != nil {
		return resolveFromSource(*in.OptionsSource, cwd)
	}
	return in.Options, nil
}

// resolveFromCommand runs cmd through the shell and returns its non-empty,
// trimmed stdout lines.
func resolveFromCommand(cmd, cwd string) ([]string, error) {
	c := exec.Command("sh", "-c", cmd)
	c.Dir = cwd
	out, err := c.Output()
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(string(out)), nil
}

func resolveFromSource(src OptionsSource, cwd string) ([]string, error) {
	switch src.Kind {
	case SourceGitBranches:
		return gitLines(cwd, "branch", "--format=%(refname:short)")
	case SourceGitTags:
		return gitLines(cwd, "tag")
	case SourceGitRemotes:
		return gitLines(cwd, "remote")
	case SourcePlugins:
		return pluginDirectories(cwd)
	case SourceDockerComposeServices:
		return dockerComposeServices(cwd, src.File)
	case SourceDirectories:
		return globEntries(cwd, src.Path, src.Pattern, true)
	case SourceFiles:
		return globEntries(cwd, src.Path, src.Pattern, false)
	case SourceLinesFromFile:
		return linesFromFile(filepath.Join(cwd, src.LinesFile))
	case SourceCargoWorkspaceMembers:
		return cargoWorkspaceMembers(cwd)
	case SourceReleaseServices:
		return releaseServices(cwd)
	default:
		return nil, nil
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func gitLines(cwd string, args ...string) ([]string, error) {
	c := exec.Command("git", args...)
	c.Dir = cwd
	out, err := c.Output()
	if err != nil {
		return nil, nil
	}
	return nonEmptyLines(string(out)), nil
}

// pluginDirectories scans crates/*/plugin.toml and crates/*/plugin/plugin.toml.
func pluginDirectories(cwd string) ([]string, error) {
	var names []string
	patterns := []string{
		filepath.Join(cwd, "crates", "*", "plugin.toml"),
		filepath.Join(cwd, "crates", "*", "plugin", "plugin.toml"),
	}
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, m := range matches {
			rel, _ := filepath.Rel(filepath.Join(cwd, "crates"), filepath.Dir(m))
			name := strings.Split(filepath.ToSlash(rel), "/")[0]
			if name != "" && name != "plugin" {
				names = append(names, name)
			}
		}
	}
	return dedupeSorted(names), nil
}

// dockerComposeServices shells out to `docker compose config --services`,
// falling back to parsing the compose file with yaml.v3 and listing the
// keys of its `services:` map if the docker CLI is unavailable.
func dockerComposeServices(cwd, file string) ([]string, error) {
	if file == "" {
		file = "docker-compose.yml"
	}
	c := exec.Command("docker", "compose", "-f", file, "config", "--services")
	c.Dir = cwd
	if out, err := c.Output(); err == nil {
		return nonEmptyLines(string(out)), nil
	}

	data, err := os.ReadFile(filepath.Join(cwd, file))
	if err != nil {
		return nil, err
	}
	return scanComposeServices(data)
}

func scanComposeServices(data []byte) ([]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	services, ok := doc["services"].(map[string]any)
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// globEntries lists directory or file basenames under path, optionally
// filtered by a glob pattern.
func globEntries(cwd, path, pattern string, dirsOnly bool) ([]string, error) {
	root := filepath.Join(cwd, path)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() != dirsOnly {
			continue
		}
		if pattern != "" {
			ok, err := filepath.Match(pattern, e.Name())
			if err != nil || !ok {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// linesFromFile returns every non-blank, non-comment line of path.
func linesFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

type cargoMetadata struct {
	Packages []struct {
		Name       string `json:"name"`
		ManifestPath string `json:"manifest_path"`
	} `json:"packages"`
	WorkspaceMembers []string `json:"workspace_members"`
}

// cargoWorkspaceMembers shells out to `cargo metadata`, falling back to
// decoding the root Cargo.toml's [workspace] members with BurntSushi/toml
// and globbing them on failure.
func cargoWorkspaceMembers(cwd string) ([]string, error) {
	c := exec.Command("cargo", "metadata", "--no-deps", "--format-version=1")
	c.Dir = cwd
	if out, err := c.Output(); err == nil {
		var meta cargoMetadata
		if err := json.Unmarshal(out, &meta); err == nil {
			names := make([]string, 0, len(meta.Packages))
			for _, p := range meta.Packages {
				names = append(names, p.Name)
			}
			sort.Strings(names)
			return names, nil
		}
	}
	return cargoWorkspaceMembersFromToml(cwd)
}

func cargoWorkspaceMembersFromToml(cwd string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(cwd, "Cargo.toml"))
	if err != nil {
		return nil, err
	}
	var doc struct {
		Workspace struct {
			Members []string `toml:"members"`
		} `toml:"workspace"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}

	var names []string
	for _, pattern := range doc.Workspace.Members {
		matches, _ := filepath.Glob(filepath.Join(cwd, pattern))
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				names = append(names, filepath.Base(m))
			}
		}
	}
	return dedupeSorted(names), nil
}

// releaseServices scans release/ (and one level of subdirectories) for
// directories containing a Dockerfile.
func releaseServices(cwd string) ([]string, error) {
	root := filepath.Join(cwd, "release")
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if fileExists(filepath.Join(dir, "Dockerfile")) {
			names = append(names, e.Name())
			continue
		}
		nested, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, n := range nested {
			if n.IsDir() && fileExists(filepath.Join(dir, n.Name(), "Dockerfile")) {
				names = append(names, n.Name())
			}
		}
	}
	return dedupeSorted(names), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dedupeSorted(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
