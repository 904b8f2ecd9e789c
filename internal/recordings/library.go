// Package recordings manages the on-disk library of finished capture files:
// listing, deleting, and resolving filenames for download. The library never
// creates files itself, recording sessions do that.
package recordings

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Errors returned by library operations.
var (
	ErrInvalidFilename = errors.New("invalid recording filename")
	ErrNotFound        = errors.New("recording not found")
)

// videoExtensions are the file types sessions and conversions produce.
var videoExtensions = map[string]bool{
	".avi": true,
	".mp4": true,
}

// Entry describes one recording file.
type Entry struct {
	Filename  string    `json:"filename" example:"lockin-20250127-103000.avi" doc:"File name within the output directory"`
	SizeBytes int64     `json:"size_bytes" example:"1048576" doc:"File size in bytes"`
	Modified  time.Time `json:"modified" example:"2025-01-27T10:31:00Z" doc:"Last modification time"`
}

// Library lists and deletes recording files under the current output
// directory. The directory is resolved per call because settings can move it
// between recordings.
type Library struct {
	dir    func() string
	logger *slog.Logger
}

// NewLibrary creates a library over the directory returned by dir.
func NewLibrary(dir func() string, logger *slog.Logger) *Library {
	return &Library{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the current output directory.
func (l *Library) Dir() string {
	return l.dir()
}

// List returns all recording files, newest first. A missing output directory
// is treated as an empty library since it is created lazily on first record.
func (l *Library) List() ([]Entry, error) {
	dir := l.dir()
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, e := range dirents {
		if !e.Type().IsRegular() || !videoExtensions[filepath.Ext(e.Name())] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			l.logger.Warn("Skipping unreadable recording", "filename", e.Name(), "error", err)
			continue
		}
		entries = append(entries, Entry{
			Filename:  e.Name(),
			SizeBytes: info.Size(),
			Modified:  info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Modified.Equal(entries[j].Modified) {
			return entries[i].Modified.After(entries[j].Modified)
		}
		return entries[i].Filename < entries[j].Filename
	})
	return entries, nil
}

// Resolve validates a client-supplied filename and returns the absolute path
// inside the output directory. Names carrying path separators or dot-dot
// segments are rejected so requests can never escape the directory.
func (l *Library) Resolve(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." {
		return "", ErrInvalidFilename
	}
	if strings.ContainsAny(filename, `/\`) || filename != filepath.Base(filename) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(l.dir(), filename), nil
}

// Delete removes a recording file by name.
func (l *Library) Delete(filename string) error {
	path, err := l.Resolve(filename)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	l.logger.Info("Deleted recording", "filename", filename, "size_bytes", info.Size())
	return nil
}
