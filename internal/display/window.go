package display

import (
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

const windowTitle = "Lock In Recorder"

// window shows frames in a highgui window. WaitKey pumps the GUI event
// queue; without it the window never repaints.
type window struct {
	mu     sync.Mutex
	win    *gocv.Window
	logger *slog.Logger
	closed bool
}

func newWindow(logger *slog.Logger) *window {
	return &window{
		win:    gocv.NewWindow(windowTitle),
		logger: logger,
	}
}

func (w *window) Show(frame gocv.Mat) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || frame.Empty() {
		return
	}
	w.win.IMShow(frame)
	w.win.WaitKey(1)
}

func (w *window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.win.Close(); err != nil {
		w.logger.Warn("Failed to close preview window", "error", err)
		return err
	}
	return nil
}
