package recordings

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLibrary(func() string { return dir }, logger), dir
}

func writeFile(t *testing.T, dir, name string, size int, modified time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	if err := os.Chtimes(path, modified, modified); err != nil {
		t.Fatalf("Chtimes(%s): %v", name, err)
	}
}

func TestListMissingDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := NewLibrary(func() string { return filepath.Join(t.TempDir(), "never-created") }, logger)

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty library, got %d entries", len(entries))
	}
}

func TestListFiltersAndSortsNewestFirst(t *testing.T) {
	lib, dir := testLibrary(t)

	base := time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC)
	writeFile(t, dir, "lockin-20250127-103000.avi", 100, base)
	writeFile(t, dir, "lockin-20250127-103000_1min.mp4", 50, base.Add(2*time.Minute))
	writeFile(t, dir, "notes.txt", 10, base.Add(time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "nested.avi"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Filename != "lockin-20250127-103000_1min.mp4" {
		t.Errorf("Expected converted file first, got %q", entries[0].Filename)
	}
	if entries[0].SizeBytes != 50 {
		t.Errorf("Expected size 50, got %d", entries[0].SizeBytes)
	}
	if entries[1].Filename != "lockin-20250127-103000.avi" {
		t.Errorf("Expected raw capture second, got %q", entries[1].Filename)
	}
	if entries[1].SizeBytes != 100 {
		t.Errorf("Expected size 100, got %d", entries[1].SizeBytes)
	}
}

func TestResolve(t *testing.T) {
	lib, dir := testLibrary(t)

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"plain capture name", "lockin-20250127-103000.avi", false},
		{"converted name", "lockin-20250127-103000_1min.mp4", false},
		{"dotted but safe", "lockin..avi", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dot dot", "..", true},
		{"parent escape", "../etc/passwd", true},
		{"nested escape", "a/../../etc/passwd", true},
		{"subdirectory", "sub/file.avi", true},
		{"absolute path", "/etc/passwd", true},
		{"backslash", `..\..\secret.avi`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := lib.Resolve(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilename) {
					t.Errorf("Resolve(%q) = %v, want ErrInvalidFilename", tt.filename, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.filename, err)
			}
			if want := filepath.Join(dir, tt.filename); path != want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.filename, path, want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	lib, dir := testLibrary(t)
	writeFile(t, dir, "lockin-20250127-103000.avi", 100, time.Now())

	if err := lib.Delete("lockin-20250127-103000.avi"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "lockin-20250127-103000.avi")); !os.IsNotExist(err) {
		t.Errorf("File still exists after Delete, stat err: %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	lib, _ := testLibrary(t)

	if err := lib.Delete("lockin-20250101-000000.avi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteRejectsTraversal(t *testing.T) {
	lib, dir := testLibrary(t)

	// A file one level above the library must be unreachable
	outside := filepath.Join(dir, "..", "outside.avi")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := lib.Delete("../outside.avi"); !errors.Is(err, ErrInvalidFilename) {
		t.Errorf("Delete(../outside.avi) = %v, want ErrInvalidFilename", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("Outside file was touched: %v", err)
	}
}

func TestDeleteDirectory(t *testing.T) {
	lib, dir := testLibrary(t)
	if err := os.Mkdir(filepath.Join(dir, "fake.avi"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	if err := lib.Delete("fake.avi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(directory) = %v, want ErrNotFound", err)
	}
}
