package display

import (
	"io"
	"log/slog"
	"runtime"
	"testing"

	"gocv.io/x/gocv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDisabledReturnsNoop(t *testing.T) {
	sink := New(false, testLogger())
	if _, ok := sink.(noop); !ok {
		t.Errorf("New(false) = %T, want noop", sink)
	}
}

func TestNewHeadlessReturnsNoop(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("headless detection is env-based only on linux")
	}
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	sink := New(true, testLogger())
	if _, ok := sink.(noop); !ok {
		t.Errorf("New(true) without a graphical session = %T, want noop", sink)
	}
}

func TestGraphicalSessionDetection(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("headless detection is env-based only on linux")
	}
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	if graphicalSession() {
		t.Error("graphicalSession() = true with no session variables")
	}

	t.Setenv("DISPLAY", ":0")
	if !graphicalSession() {
		t.Error("graphicalSession() = false with DISPLAY set")
	}

	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	if !graphicalSession() {
		t.Error("graphicalSession() = false with WAYLAND_DISPLAY set")
	}
}

func TestNoopIsSafe(t *testing.T) {
	sink := newNoop()
	sink.Show(gocv.Mat{})
	if err := sink.Close(); err != nil {
		t.Errorf("noop Close returned %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second noop Close returned %v", err)
	}
}
