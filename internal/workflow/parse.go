package workflow

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Parse decodes workflow TOML content.
func Parse(path string, data []byte) (*File, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	f.Path = path
	if f.Workflow.Name == "" {
		return nil, fmt.Errorf("parse workflow %s: missing [workflow] name", path)
	}
	for i := range f.Inputs {
		if f.Inputs[i].Type == "" {
			f.Inputs[i].Type = InputText
		}
	}
	return &f, nil
}

// Load reads and parses a workflow file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow %s: %w", path, err)
	}
	return Parse(path, data)
}
