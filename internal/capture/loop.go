// Package capture runs the frame source loop: it pulls frames from the
// camera at the hardware rate, hands them to the recording service, and
// fans an annotated JPEG copy out to the live feed and the preview sink.
package capture

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/KaiStephens/lockInRecorder/internal/camera"
	"github.com/KaiStephens/lockInRecorder/internal/display"
	"github.com/KaiStephens/lockInRecorder/internal/events"
	"github.com/KaiStephens/lockInRecorder/internal/metrics"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
	"github.com/KaiStephens/lockInRecorder/internal/retry"
	"github.com/KaiStephens/lockInRecorder/internal/settings"
	"github.com/KaiStephens/lockInRecorder/internal/streaming"
)

// Recorder consumes captured frames. Implemented by recording.Service.
type Recorder interface {
	Submit(frame gocv.Mat, ts time.Time) bool
	Status() recording.Status
}

// Config tunes the capture loop.
type Config struct {
	// DeviceIndex is the preferred camera index; probing falls back to
	// the remaining indices when it fails.
	DeviceIndex int
	// Interval paces the loop. The stream rate is independent of the
	// recording rate, which is enforced by decimation in the service.
	Interval time.Duration
	// FailureThreshold is how many consecutive failed reads trigger a
	// device reinitialization.
	FailureThreshold int
	// Reinit bounds the reinitialization backoff.
	Reinit retry.Policy
	// RecheckInterval is the slow probe cadence after Reinit is
	// exhausted. The camera coming back is always recoverable.
	RecheckInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Millisecond
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Reinit.MaxAttempts <= 0 {
		c.Reinit = retry.DefaultPolicy()
	}
	if c.RecheckInterval <= 0 {
		c.RecheckInterval = 10 * time.Second
	}
	return c
}

// CameraInfo describes the device the loop currently holds.
type CameraInfo struct {
	Connected bool `json:"connected" doc:"Whether a camera is currently delivering frames"`
	Index     int  `json:"index" doc:"Device index of the open camera"`
	Width     int  `json:"width" doc:"Negotiated frame width"`
	Height    int  `json:"height" doc:"Negotiated frame height"`
}

// Loop owns the camera handle and drives capture until its context is
// cancelled. The handle is released exactly once: either when Run
// returns or through an explicit ReleaseCamera from the shutdown path.
type Loop struct {
	cfg      Config
	settings *settings.Manager
	recorder Recorder
	feed     *streaming.Feed
	sink     display.Sink
	bus      *events.Bus
	logger   *slog.Logger

	mu  sync.Mutex
	dev *camera.Device
}

// NewLoop wires the capture loop. sink may be the no-op sink; bus may
// be nil in tests.
func NewLoop(cfg Config, st *settings.Manager, rec Recorder, feed *streaming.Feed, sink display.Sink, bus *events.Bus, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		cfg:      cfg.withDefaults(),
		settings: st,
		recorder: rec,
		feed:     feed,
		sink:     sink,
		bus:      bus,
		logger:   logger,
	}
}

// Run captures frames until ctx is cancelled. It opens the camera
// itself and keeps serving placeholder frames while no device is
// available, so a missing camera at startup is not fatal.
func (l *Loop) Run(ctx context.Context) error {
	defer l.ReleaseCamera()

	if l.device() == nil {
		if err := l.acquire(ctx); err != nil {
			return err
		}
	}

	frame := gocv.NewMat()
	defer frame.Close()
	view := gocv.NewMat()
	defer view.Close()

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		dev := l.device()
		if dev == nil {
			if err := l.acquire(ctx); err != nil {
				return err
			}
			continue
		}

		if err := dev.Read(&frame); err != nil {
			metrics.IncReadErrors()
			failures++
			l.logger.Warn("Camera read failed",
				"index", dev.Index(),
				"consecutive", failures,
				"error", err)
			l.publishPlaceholder("NO SIGNAL", "Reinitializing camera")
			if failures >= l.cfg.FailureThreshold {
				failures = 0
				l.dropDevice(dev, err)
				if err := l.acquire(ctx); err != nil {
					return err
				}
			}
			continue
		}
		failures = 0
		metrics.IncCaptureFrames()
		now := time.Now()

		l.recorder.Submit(frame, now)
		l.distribute(frame, &view, now)
	}
}

// distribute builds the annotated display copy and fans it out to the
// feed and the preview sink.
func (l *Loop) distribute(frame gocv.Mat, view *gocv.Mat, now time.Time) {
	cfg := l.settings.Snapshot()
	gocv.Resize(frame, view, image.Pt(cfg.Width, cfg.Height), 0, 0, gocv.InterpolationLinear)

	st := l.recorder.Status()
	annotate(view, now, st.State == recording.StateActive, now.Sub(st.StartedAt))

	jpeg, err := encodeJPEG(*view)
	if err != nil {
		l.logger.Warn("JPEG encode failed", "error", err)
	} else {
		l.feed.Publish(jpeg)
	}
	l.sink.Show(*view)
}

// acquire opens the camera under the bounded backoff policy, then keeps
// probing at the slow cadence until a device appears or ctx is done.
func (l *Loop) acquire(ctx context.Context) error {
	err := retry.Do(ctx, l.cfg.Reinit, l.logger, "open camera", func() error {
		metrics.IncDeviceReinits()
		return l.open()
	})
	if err == nil {
		l.announceRecovered()
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	l.logger.Error("Camera unavailable, probing in background",
		"recheck_interval", l.cfg.RecheckInterval,
		"error", err)
	l.publishPlaceholder("NO CAMERA", "Waiting for device")

	ticker := time.NewTicker(l.cfg.RecheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		metrics.IncDeviceReinits()
		if err := l.open(); err == nil {
			l.announceRecovered()
			return nil
		}
		l.publishPlaceholder("NO CAMERA", "Waiting for device")
	}
}

// open probes for a device at the configured geometry and installs it.
func (l *Loop) open() error {
	cfg := l.settings.Snapshot()
	dev, err := camera.Open(camera.Options{
		PreferredIndex: l.cfg.DeviceIndex,
		Width:          cfg.Width,
		Height:         cfg.Height,
	}, l.logger)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.dev = dev
	l.mu.Unlock()
	return nil
}

// dropDevice releases a failed device and reports the outage.
func (l *Loop) dropDevice(dev *camera.Device, cause error) {
	l.mu.Lock()
	if l.dev == dev {
		l.dev = nil
	}
	l.mu.Unlock()

	index := dev.Index()
	if err := dev.Release(); err != nil {
		l.logger.Warn("Failed to release camera", "index", index, "error", err)
	}
	l.logger.Error("Camera lost, reinitializing", "index", index, "error", cause)
	if l.bus != nil {
		l.bus.Publish(events.DeviceLostEvent{
			DeviceIndex: index,
			Error:       cause.Error(),
			Timestamp:   time.Now().Format(time.RFC3339),
		})
	}
}

func (l *Loop) announceRecovered() {
	dev := l.device()
	if dev == nil {
		return
	}
	w, h := dev.Size()
	if l.bus != nil {
		l.bus.Publish(events.DeviceRecoveredEvent{
			DeviceIndex: dev.Index(),
			Width:       w,
			Height:      h,
			Timestamp:   time.Now().Format(time.RFC3339),
		})
	}
}

// publishPlaceholder pushes a diagnostic frame to viewers so the stream
// shows an explicit error state instead of stalling.
func (l *Loop) publishPlaceholder(lines ...string) {
	cfg := l.settings.Snapshot()
	ph := placeholder(cfg.Width, cfg.Height, lines...)
	defer ph.Close()

	jpeg, err := encodeJPEG(ph)
	if err != nil {
		l.logger.Warn("Placeholder encode failed", "error", err)
		return
	}
	l.feed.Publish(jpeg)
	l.sink.Show(ph)
}

func (l *Loop) device() *camera.Device {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev
}

// Info reports the current device for the status endpoint.
func (l *Loop) Info() CameraInfo {
	dev := l.device()
	if dev == nil {
		return CameraInfo{}
	}
	w, h := dev.Size()
	return CameraInfo{Connected: true, Index: dev.Index(), Width: w, Height: h}
}

// ReleaseCamera closes the current device. Device release is
// idempotent, so the shutdown path may call this even while Run is
// still unwinding.
func (l *Loop) ReleaseCamera() {
	l.mu.Lock()
	dev := l.dev
	l.dev = nil
	l.mu.Unlock()

	if dev == nil {
		return
	}
	if err := dev.Release(); err != nil {
		l.logger.Warn("Failed to release camera", "error", err)
	}
}
