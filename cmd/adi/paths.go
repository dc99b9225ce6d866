package main

import (
	"os"
	"path/filepath"
)

func projectRoot() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

func graphDBPath(root string) string {
	return filepath.Join(root, ".adi", "tree", "index.sqlite")
}

func vectorDBPath(root string) string {
	return filepath.Join(root, ".adi", "tree", "vectors.sqlite")
}

func tasksDBPath(root string) string {
	return filepath.Join(root, ".adi", "tasks", "tasks.sqlite")
}

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
