// Package postprocess retimes finished captures to a fixed one-minute
// duration. The recorded clip is replayed faster or slower so its
// wall-clock length lands on the target while every captured frame
// survives.
package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/ffmpeg"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
)

// DefaultTargetDuration is the wall-clock length every converted
// recording is retimed to.
const DefaultTargetDuration = 60 * time.Second

// Transcoder executes one retime job. Implementations must leave the
// input file untouched.
type Transcoder interface {
	Name() string
	Transcode(ctx context.Context, params ffmpeg.RetimeParams) error
}

// Pipeline implements recording.Converter. Transcoders are tried in
// order; the first success wins.
type Pipeline struct {
	transcoders []Transcoder
	target      time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTranscoders replaces the default ffmpeg-then-reencode chain.
func WithTranscoders(ts ...Transcoder) Option {
	return func(p *Pipeline) { p.transcoders = ts }
}

// WithTargetDuration overrides the one-minute target.
func WithTargetDuration(d time.Duration) Option {
	return func(p *Pipeline) { p.target = d }
}

// New builds the conversion pipeline. Without options it tries the
// external ffmpeg first and falls back to the in-process re-encode.
func New(logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		target: DefaultTargetDuration,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.transcoders) == 0 {
		p.transcoders = []Transcoder{
			NewFFmpegTranscoder(logger, logger),
			NewReencodeTranscoder(logger),
		}
	}
	return p
}

// OutputPath derives the converted filename from the capture path:
// lockin-20250127-103000.avi becomes lockin-20250127-103000_1min.mp4.
func OutputPath(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + "_1min.mp4"
}

// retimePlan holds the computed job parameters.
type retimePlan struct {
	speed  float64
	outFps float64
}

// planRetime computes the speed multiplier and output rate. With
// actual = frames/fps and speed = actual/target, replaying the same
// frames at fps*speed takes exactly the target duration.
func planRetime(frames int, fps float64, target time.Duration) (retimePlan, error) {
	if frames <= 0 {
		return retimePlan{}, fmt.Errorf("no frames to convert")
	}
	if fps <= 0 {
		return retimePlan{}, fmt.Errorf("invalid capture fps %v", fps)
	}
	actual := float64(frames) / fps
	speed := actual / target.Seconds()
	return retimePlan{speed: speed, outFps: fps * speed}, nil
}

// Convert retimes the capture file. Failure never touches the input:
// a partial output is removed and the caller keeps the raw recording.
func (p *Pipeline) Convert(ctx context.Context, req recording.ConvertRequest) (recording.ConvertResult, error) {
	plan, err := planRetime(req.Frames, req.Fps, p.target)
	if err != nil {
		return recording.ConvertResult{}, recording.NewError(recording.ErrCodeConversionFailed, "cannot plan conversion", err)
	}

	options := ffmpeg.GetDefaultOptions()
	if err := ffmpeg.ValidateOptions(options); err != nil {
		return recording.ConvertResult{}, recording.NewError(recording.ErrCodeConversionFailed, "invalid conversion options", err)
	}

	outputPath := OutputPath(req.InputPath)
	params := ffmpeg.RetimeParams{
		InputPath:       req.InputPath,
		OutputPath:      outputPath,
		SpeedMultiplier: plan.speed,
		OutputFps:       plan.outFps,
		Options:         options,
	}

	p.logger.Info("Converting recording",
		"input", req.InputPath,
		"frames", req.Frames,
		"fps", req.Fps,
		"speed", plan.speed,
		"output_fps", plan.outFps)

	var lastErr error
	for _, t := range p.transcoders {
		if err := ctx.Err(); err != nil {
			return recording.ConvertResult{}, err
		}

		start := time.Now()
		if err := t.Transcode(ctx, params); err != nil {
			lastErr = err
			p.logger.Warn("Transcoder failed",
				"transcoder", t.Name(),
				"input", req.InputPath,
				"error", err)
			removePartialOutput(outputPath, p.logger)
			continue
		}

		p.logger.Info("Conversion finished",
			"transcoder", t.Name(),
			"output", outputPath,
			"took", time.Since(start).Round(time.Millisecond))
		return recording.ConvertResult{OutputPath: outputPath, Method: t.Name()}, nil
	}

	return recording.ConvertResult{}, recording.NewError(recording.ErrCodeConversionFailed,
		fmt.Sprintf("all transcoders failed for %s", req.InputPath), lastErr)
}

// removePartialOutput cleans up a half-written conversion so it never
// shows up in the recordings listing.
func removePartialOutput(path string, logger *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("Failed to remove partial conversion output", "path", path, "error", err)
	}
}
