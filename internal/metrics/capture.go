// Package metrics provides Prometheus metrics for the capture loop,
// recording sessions, and the live feed.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	captureFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lockinrecorder",
		Subsystem: "capture",
		Name:      "frames_total",
		Help:      "Frames read from the camera",
	})

	captureReadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lockinrecorder",
		Subsystem: "capture",
		Name:      "read_errors_total",
		Help:      "Failed camera reads",
	})

	captureDeviceReinits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lockinrecorder",
		Subsystem: "capture",
		Name:      "device_reinits_total",
		Help:      "Camera reinitialization attempts after read failures",
	})

	recordingFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lockinrecorder",
		Subsystem: "recording",
		Name:      "frames_total",
		Help:      "Frames written to recording files",
	})

	recordingSessions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lockinrecorder",
		Subsystem: "recording",
		Name:      "sessions_total",
		Help:      "Recording sessions started",
	})

	recordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lockinrecorder",
		Subsystem: "recording",
		Name:      "active",
		Help:      "1 while a recording session is active, 0 otherwise",
	})

	conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lockinrecorder",
		Subsystem: "recording",
		Name:      "conversions_total",
		Help:      "One-minute conversion outcomes by method",
	}, []string{"method", "result"})

	feedViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lockinrecorder",
		Subsystem: "feed",
		Name:      "viewers",
		Help:      "Currently connected MJPEG feed viewers",
	})
)

// IncCaptureFrames counts one frame read from the camera.
func IncCaptureFrames() {
	captureFrames.Inc()
}

// IncReadErrors counts one failed camera read.
func IncReadErrors() {
	captureReadErrors.Inc()
}

// IncDeviceReinits counts one camera reinitialization attempt.
func IncDeviceReinits() {
	captureDeviceReinits.Inc()
}

// IncRecordedFrames counts one frame written to the active recording.
func IncRecordedFrames() {
	recordingFrames.Inc()
}

// IncSessionsStarted counts one recording session start.
func IncSessionsStarted() {
	recordingSessions.Inc()
}

// SetRecordingActive flips the recording_active gauge.
func SetRecordingActive(active bool) {
	if active {
		recordingActive.Set(1)
	} else {
		recordingActive.Set(0)
	}
}

// IncConversion counts one conversion outcome.
// method is "ffmpeg", "reencode", or "none"; result is "success" or "failure".
func IncConversion(method, result string) {
	conversions.WithLabelValues(method, result).Inc()
}

// IncFeedViewers counts a newly connected feed viewer.
func IncFeedViewers() {
	feedViewers.Inc()
}

// DecFeedViewers counts a disconnected feed viewer.
func DecFeedViewers() {
	feedViewers.Dec()
}

// Handler serves the registered metrics in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
