package streaming

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// partBoundary separates frames in the multipart stream. Browsers replace
// the rendered image on each part, which is what makes the feed "live".
const partBoundary = "frame"

// keepaliveInterval bounds how long the handler waits for a fresh frame
// before re-sending the current one. Re-sending gives dead connections a
// write to fail on, so abandoned viewers are reaped even when the camera
// is stalled.
const keepaliveInterval = 5 * time.Second

// ViewerHook is notified when a feed viewer connects (true) or disconnects
// (false). Used to keep the viewer gauge current.
type ViewerHook func(connected bool)

// NewMJPEGHandler returns the HTTP handler for the live camera feed. It
// writes a multipart/x-mixed-replace stream, one JPEG per part, and runs
// until the client goes away.
func NewMJPEGHandler(feed *Feed, logger *slog.Logger, hook ViewerHook) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+partBoundary)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		feed.AddViewer()
		if hook != nil {
			hook(true)
		}
		logger.Info("Feed viewer connected", "remote", r.RemoteAddr, "viewers", feed.Viewers())
		defer func() {
			feed.RemoveViewer()
			if hook != nil {
				hook(false)
			}
			logger.Info("Feed viewer disconnected", "remote", r.RemoteAddr, "viewers", feed.Viewers())
		}()

		ctx := r.Context()
		var lastSeq uint64

		for {
			frame, seq, fresh := feed.WaitNext(ctx, lastSeq, keepaliveInterval)
			if !fresh {
				if ctx.Err() != nil {
					return
				}
				// Timed out: resend the newest frame as a keepalive
				frame, seq = feed.Latest()
				if frame == nil {
					continue
				}
			}
			lastSeq = seq

			if err := writePart(w, frame); err != nil {
				return
			}
			flusher.Flush()
		}
	})
}

// writePart writes a single multipart frame section.
func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", partBoundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
