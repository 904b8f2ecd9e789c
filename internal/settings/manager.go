package settings

import (
	"log/slog"
	"sync"
)

// Manager guards the live settings. Readers take cheap snapshots; updates
// validate, persist, and swap the whole value so a recording session never
// observes a half-applied change.
type Manager struct {
	mu      sync.RWMutex
	current Settings
	store   *FileStore
	logger  *slog.Logger
}

// NewManager loads persisted settings (or defaults) and returns a manager.
// A nil store keeps settings in memory only.
func NewManager(store *FileStore, logger *slog.Logger) *Manager {
	current := Defaults()
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			logger.Warn("Failed to load settings, using defaults", "error", err)
		} else {
			current = loaded
		}
	}

	return &Manager{
		current: current,
		store:   store,
		logger:  logger,
	}
}

// Snapshot returns a consistent copy of the current settings.
func (m *Manager) Snapshot() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Apply merges a patch, validates the result, persists it, and returns the
// new settings. The current settings are untouched on any failure.
func (m *Manager) Apply(patch Patch) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := patch.apply(m.current)
	if err := updated.Validate(); err != nil {
		return m.current, err
	}

	if m.store != nil {
		if err := m.store.Save(updated); err != nil {
			return m.current, err
		}
	}

	m.current = updated
	m.logger.Info("Settings updated",
		"fps", updated.Fps,
		"width", updated.Width,
		"height", updated.Height,
		"convert", updated.ConvertToOneMinute,
		"output_dir", updated.OutputDirectory)
	return updated, nil
}

// Replace swaps in settings loaded from an external source (the file
// watcher). It validates but does not write back to disk.
func (m *Manager) Replace(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Info("Settings reloaded from file",
		"fps", s.Fps,
		"width", s.Width,
		"height", s.Height,
		"convert", s.ConvertToOneMinute,
		"output_dir", s.OutputDirectory)
	return nil
}
