package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists settings as a flat JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "settings.json"
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads settings from disk. A missing file is not an error: the
// defaults are returned so first launch works without any setup.
func (s *FileStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("failed to read settings file: %w", err)
	}

	// Unknown fields are tolerated, absent fields keep their defaults
	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return Defaults(), err
	}
	return loaded, nil
}

// Save writes settings to disk, creating the parent directory if needed.
func (s *FileStore) Save(settings Settings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
