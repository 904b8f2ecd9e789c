package settings

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeSettingsFile(t *testing.T, path string, s Settings) {
	t.Helper()
	store := NewFileStore(path)
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_BasicReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettingsFile(t, path, Defaults())

	store := NewFileStore(path)
	received := make(chan Settings, 1)

	watcher := NewWatcher(store, testLogger(), WithDebounce(50*time.Millisecond))
	watcher.OnReload(func(s Settings) {
		received <- s
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	}()

	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)

	updated := Defaults()
	updated.Fps = 7
	writeSettingsFile(t, path, updated)

	select {
	case got := <-received:
		if got.Fps != 7 {
			t.Errorf("Fps = %v, want 7", got.Fps)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for settings reload")
	}
}

func TestWatcher_SkipPredicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettingsFile(t, path, Defaults())

	store := NewFileStore(path)
	var reloads atomic.Int32
	var skipping atomic.Bool
	skipping.Store(true)

	watcher := NewWatcher(store, testLogger(),
		WithDebounce(30*time.Millisecond),
		WithSkip(func() bool { return skipping.Load() }),
	)
	watcher.OnReload(func(Settings) {
		reloads.Add(1)
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	updated := Defaults()
	updated.Fps = 9
	writeSettingsFile(t, path, updated)

	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("expected no reloads while skipping, got %d", n)
	}

	// Once the guard lifts, the next change reloads normally
	skipping.Store(false)
	updated.Fps = 11
	writeSettingsFile(t, path, updated)

	deadline := time.After(2 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for reload after guard lifted")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcher_SkipsOwnSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettingsFile(t, path, Defaults())

	store := NewFileStore(path)
	mgr := NewManager(store, testLogger())
	var reloads atomic.Int32

	watcher := NewWatcher(store, testLogger(),
		WithDebounce(30*time.Millisecond),
		WithCurrent(mgr.Snapshot),
	)
	watcher.OnReload(func(Settings) {
		reloads.Add(1)
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	// An Apply writes the file, but the contents match the snapshot and
	// must not echo back as a reload
	fps := 6.0
	if _, err := mgr.Apply(Patch{Fps: &fps}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("expected no reloads for the manager's own save, got %d", n)
	}

	// A genuinely different file still reloads
	external := Defaults()
	external.Fps = 12
	writeSettingsFile(t, path, external)

	deadline := time.After(2 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for reload of an external edit")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	writeSettingsFile(t, path, Defaults())

	store := NewFileStore(path)
	var reloads atomic.Int32

	watcher := NewWatcher(store, testLogger(), WithDebounce(30*time.Millisecond))
	watcher.OnReload(func(Settings) {
		reloads.Add(1)
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	// A sibling file changing must not trigger a reload
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("expected no reloads for sibling file, got %d", n)
	}
}

func TestWatcher_UnsubscribeHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettingsFile(t, path, Defaults())

	store := NewFileStore(path)
	var reloads atomic.Int32

	watcher := NewWatcher(store, testLogger(), WithDebounce(30*time.Millisecond))
	unsub := watcher.OnReload(func(Settings) {
		reloads.Add(1)
	})
	unsub()

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	updated := Defaults()
	updated.Fps = 3
	writeSettingsFile(t, path, updated)

	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Fatalf("expected no reloads after unsubscribe, got %d", n)
	}
}
