// Package camera wraps a gocv video capture device with probing, geometry
// negotiation, and idempotent release. A Device has a single owner: only the
// capture loop calls Read, and Release is safe to call from the shutdown
// path at any time.
package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// maxProbeIndex is the highest device index tried when the preferred one fails.
const maxProbeIndex = 2

var (
	// ErrNoDevice means no camera produced a frame during probing.
	ErrNoDevice = errors.New("no camera device available")
	// ErrReadFailed means the device returned no frame or an empty frame.
	ErrReadFailed = errors.New("camera read failed")
	// ErrReleased means the device has already been released.
	ErrReleased = errors.New("camera already released")
)

// Options configure how a device is opened.
type Options struct {
	// PreferredIndex is tried first; the remaining indices up to maxProbeIndex
	// are probed in order if it fails.
	PreferredIndex int
	// Width and Height are requested from the driver. The driver may
	// negotiate something else; Size reports the actual geometry.
	Width  int
	Height int
}

// Device is an open camera.
type Device struct {
	mu       sync.Mutex
	cap      *gocv.VideoCapture
	index    int
	width    int
	height   int
	released bool
	logger   *slog.Logger
}

// Open probes for a working camera and returns a ready Device. A candidate
// index only counts as working once it has delivered a non-empty warmup
// frame; drivers happily open indices that never produce data.
func Open(opts Options, logger *slog.Logger) (*Device, error) {
	var lastErr error

	for _, idx := range candidateIndices(opts.PreferredIndex) {
		cap, err := gocv.OpenVideoCapture(idx)
		if err != nil {
			logger.Debug("Camera index not openable", "index", idx, "error", err)
			lastErr = err
			continue
		}
		if !cap.IsOpened() {
			cap.Close()
			continue
		}

		if opts.Width > 0 {
			cap.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		}
		if opts.Height > 0 {
			cap.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
		}

		if !warmup(cap) {
			logger.Debug("Camera opened but produced no frame", "index", idx)
			cap.Close()
			continue
		}

		width := int(cap.Get(gocv.VideoCaptureFrameWidth))
		height := int(cap.Get(gocv.VideoCaptureFrameHeight))

		logger.Info("Camera opened",
			"index", idx,
			"width", width,
			"height", height)

		return &Device{
			cap:    cap,
			index:  idx,
			width:  width,
			height: height,
			logger: logger,
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, lastErr)
	}
	return nil, ErrNoDevice
}

// candidateIndices returns the probe order: preferred first, then the rest
// of 0..maxProbeIndex.
func candidateIndices(preferred int) []int {
	indices := []int{preferred}
	for i := 0; i <= maxProbeIndex; i++ {
		if i != preferred {
			indices = append(indices, i)
		}
	}
	return indices
}

// warmup reads one frame to prove the device actually delivers data.
func warmup(cap *gocv.VideoCapture) bool {
	frame := gocv.NewMat()
	defer frame.Close()
	return cap.Read(&frame) && !frame.Empty()
}

// Read fetches the next frame into mat. Returns ErrReadFailed when the
// device produces nothing, ErrReleased after Release.
func (d *Device) Read(mat *gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrReleased
	}
	if !d.cap.Read(mat) || mat.Empty() {
		return ErrReadFailed
	}
	return nil
}

// Index returns the device index that was successfully opened.
func (d *Device) Index() int {
	return d.index
}

// Size returns the negotiated frame geometry.
func (d *Device) Size() (width, height int) {
	return d.width, d.height
}

// Release closes the device. Safe to call multiple times.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil
	}
	d.released = true

	if d.cap == nil {
		return nil
	}
	if err := d.cap.Close(); err != nil {
		return fmt.Errorf("failed to close camera: %w", err)
	}
	d.logger.Info("Camera released", "index", d.index)
	return nil
}
