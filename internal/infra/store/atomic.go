// Package store implements the Task Store: one project per directory,
// atomic JSON persistence, and a per-project advisory lock.
package store

import (
	"os"
	"path/filepath"

	jsonx "taskctl/internal/shared/json"
)

// ensureDir creates dir and all parents if they don't already exist.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWrite writes data to path via a temp file + rename, so a reader
// never observes a torn file.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// readFileOrEmpty reads path, returning (nil, nil) if it doesn't exist.
func readFileOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// marshalIndent renders v as 2-space-indented JSON with a trailing
// newline, the canonical on-disk format.
func marshalIndent(v any) ([]byte, error) {
	data, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
