package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps the whole store in a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for the JSON file at path. The file and
// its directory are created on the first Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the location of the state file.
func (fb *FileBackend) Path() string {
	return fb.path
}

// Load reads the state file. A missing file yields ErrNoState.
func (fb *FileBackend) Load(_ context.Context) ([]Item, error) {
	data, err := os.ReadFile(fb.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state file %s: %w", fb.path, err)
	}

	return items, nil
}

// Save overwrites the state file. The data goes to a temporary file in the
// same directory which is then renamed over the old one, so readers see
// either the previous or the new contents.
func (fb *FileBackend) Save(_ context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	dir := filepath.Dir(fb.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fb.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpName, fb.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
