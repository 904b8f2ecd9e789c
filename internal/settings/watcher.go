package settings

import (
	"context"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the settings file and notifies handlers when it changes
// on disk. The file is re-read fresh on each change so handlers never see
// stale data. Editors that replace the file (write to temp, rename) emit
// Create events, which are treated the same as writes.
type Watcher struct {
	store    *FileStore
	debounce time.Duration
	skip     func() bool
	current  func() Settings
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[int]func(Settings)
	nextID   int

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce duration for file changes.
// Default is 1500ms.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithSkip registers a predicate consulted before each reload. When it
// returns true the change is ignored; used to hold reloads off while a
// recording session is active.
func WithSkip(skip func() bool) WatcherOption {
	return func(w *Watcher) {
		w.skip = skip
	}
}

// WithCurrent supplies the live settings snapshot. File contents that
// match it are not reloaded, so the manager's own saves do not come back
// around as external edits.
func WithCurrent(current func() Settings) WatcherOption {
	return func(w *Watcher) {
		w.current = current
	}
}

// NewWatcher creates a settings file watcher over the given store.
func NewWatcher(store *FileStore, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		store:    store,
		debounce: 1500 * time.Millisecond,
		handlers: make(map[int]func(Settings)),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers a handler called with freshly loaded settings.
// Returns an unsubscribe function.
func (w *Watcher) OnReload(handler func(Settings)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.handlers, id)
	}
}

// Start begins watching the settings file for changes.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	// Watch the parent directory rather than the file itself so editors
	// that replace the file do not silently detach the watch.
	if addErr := watcher.Add(filepath.Dir(w.store.Path())); addErr != nil {
		watcher.Close()
		return addErr
	}

	w.logger.Info("Settings watcher started", "path", w.store.Path(), "debounce", w.debounce)
	go w.watch()
	return nil
}

// Stop stops watching and cleans up resources.
func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// isSettingsChange reports whether ev is a write or replace of the
// settings file itself rather than a sibling in the same directory.
func (w *Watcher) isSettingsChange(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(w.store.Path()) {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create)
}

func (w *Watcher) watch() {
	var (
		timer *time.Timer
		fireC <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case <-w.ctx.Done():
			stopTimer()
			w.logger.Debug("Settings watcher stopped")
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isSettingsChange(ev) {
				continue
			}
			w.logger.Debug("Settings file change detected", "op", ev.Op.String())

			// Restart the quiet period on every burst of writes
			stopTimer()
			timer = time.NewTimer(w.debounce)
			fireC = timer.C

		case <-fireC:
			fireC = nil
			w.loadAndNotify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Settings watcher error", "error", err)
		}
	}
}

func (w *Watcher) loadAndNotify() {
	if w.skip != nil && w.skip() {
		w.logger.Info("Settings file changed but reload is deferred")
		return
	}

	loaded, err := w.store.Load()
	if err != nil {
		w.logger.Warn("Failed to reload settings", "error", err)
		return
	}

	if w.current != nil && loaded == w.current() {
		w.logger.Debug("Settings file matches current state, skipping reload")
		return
	}

	w.mu.RLock()
	handlers := slices.Collect(maps.Values(w.handlers))
	w.mu.RUnlock()

	w.logger.Info("Settings file changed, notifying handlers", "handlers", len(handlers))
	for _, handler := range handlers {
		handler(loaded)
	}
}
