package recording

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// codecPreference lists the FOURCC codes tried in order when opening the
// capture container. XVID matches the .avi extension; MJPG is present in
// virtually every OpenCV build and serves as the fallback.
var codecPreference = []string{"XVID", "MJPG"}

// FrameWriter appends frames to a recording on disk.
type FrameWriter interface {
	Write(frame gocv.Mat) error
	Close() error
}

// WriterFactory opens a FrameWriter for a new recording file.
type WriterFactory func(path string, fps float64, width, height int) (FrameWriter, error)

// NewVideoWriterFactory returns the gocv-backed factory used outside tests.
func NewVideoWriterFactory(logger *slog.Logger) WriterFactory {
	return func(path string, fps float64, width, height int) (FrameWriter, error) {
		var lastErr error
		for _, codec := range codecPreference {
			vw, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
			if err != nil {
				lastErr = err
				continue
			}
			if !vw.IsOpened() {
				vw.Close()
				continue
			}
			if codec != codecPreference[0] {
				logger.Warn("Preferred codec unavailable, using fallback",
					"codec", codec, "path", path)
			}
			return &videoWriter{w: vw, width: width, height: height}, nil
		}
		if lastErr == nil {
			lastErr = errors.New("no usable codec")
		}
		return nil, fmt.Errorf("failed to open video writer for %s: %w", path, lastErr)
	}
}

// videoWriter wraps gocv.VideoWriter and fixes up frame geometry: the
// container is opened at a fixed size and OpenCV silently drops frames
// that do not match it.
type videoWriter struct {
	w           *gocv.VideoWriter
	width       int
	height      int
	scratch     gocv.Mat
	haveScratch bool
}

func (v *videoWriter) Write(frame gocv.Mat) error {
	if frame.Empty() {
		return errors.New("refusing to write empty frame")
	}

	if frame.Cols() != v.width || frame.Rows() != v.height {
		if !v.haveScratch {
			v.scratch = gocv.NewMat()
			v.haveScratch = true
		}
		gocv.Resize(frame, &v.scratch, image.Pt(v.width, v.height), 0, 0, gocv.InterpolationLinear)
		return v.w.Write(v.scratch)
	}
	return v.w.Write(frame)
}

func (v *videoWriter) Close() error {
	if v.haveScratch {
		v.scratch.Close()
		v.haveScratch = false
	}
	return v.w.Close()
}
