package postprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/KaiStephens/lockInRecorder/internal/ffmpeg"
)

// ReencodeTranscoder retimes in-process with OpenCV: every frame of the
// capture is rewritten into an MP4 container at the computed output
// rate. Writing all frames at outFps lands exactly on the target
// duration, no timestamp filtering needed.
type ReencodeTranscoder struct {
	logger *slog.Logger
}

// NewReencodeTranscoder builds the in-process fallback transcoder.
func NewReencodeTranscoder(logger *slog.Logger) *ReencodeTranscoder {
	return &ReencodeTranscoder{logger: logger}
}

// Name identifies this transcoder in results and logs.
func (t *ReencodeTranscoder) Name() string {
	return "reencode"
}

// Transcode reads the capture file frame by frame and writes an mp4v
// output at params.OutputFps.
func (t *ReencodeTranscoder) Transcode(ctx context.Context, params ffmpeg.RetimeParams) error {
	capFile, err := gocv.VideoCaptureFile(params.InputPath)
	if err != nil {
		return fmt.Errorf("open capture file %s: %w", params.InputPath, err)
	}
	defer capFile.Close()

	width := int(capFile.Get(gocv.VideoCaptureFrameWidth))
	height := int(capFile.Get(gocv.VideoCaptureFrameHeight))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("capture file %s reports no geometry", params.InputPath)
	}

	writer, err := gocv.VideoWriterFile(params.OutputPath, "mp4v", params.OutputFps, width, height, true)
	if err != nil {
		return fmt.Errorf("open output writer %s: %w", params.OutputPath, err)
	}
	defer writer.Close()
	if !writer.IsOpened() {
		return errors.New("mp4v writer failed to open")
	}

	frame := gocv.NewMat()
	defer frame.Close()

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !capFile.Read(&frame) {
			break
		}
		if frame.Empty() {
			continue
		}
		if err := writer.Write(frame); err != nil {
			return fmt.Errorf("write frame %d: %w", frames, err)
		}
		frames++
	}
	if frames == 0 {
		return fmt.Errorf("no frames decoded from %s", params.InputPath)
	}

	t.logger.Info("Re-encoded capture in-process",
		"input", params.InputPath,
		"frames", frames,
		"output_fps", params.OutputFps)
	return nil
}
