// Package display mirrors captured frames to a local preview window.
// Headless hosts get a no-op sink, so callers never need to care whether
// a graphical session exists.
package display

import (
	"log/slog"
	"os"
	"runtime"

	"gocv.io/x/gocv"
)

// Sink receives display frames from the capture loop.
type Sink interface {
	// Show presents the frame. Implementations must tolerate being
	// called at capture rate.
	Show(frame gocv.Mat)

	// Close tears the sink down. Safe to call multiple times.
	Close() error
}

// New creates the preview sink based on environment detection.
// Falls back to the no-op sink when preview is disabled or no graphical
// session is available.
func New(enabled bool, logger *slog.Logger) Sink {
	if !enabled {
		return newNoop()
	}

	if !graphicalSession() {
		logger.Info("No graphical session detected, preview window disabled")
		return newNoop()
	}

	logger.Info("Opening preview window")
	return newWindow(logger)
}

// graphicalSession reports whether a preview window can be opened. On
// Linux that means an X11 or Wayland session; elsewhere the window
// system is always present.
func graphicalSession() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// noop implements Sink for headless hosts.
type noop struct{}

func newNoop() noop { return noop{} }

func (noop) Show(gocv.Mat) {}

func (noop) Close() error { return nil }
