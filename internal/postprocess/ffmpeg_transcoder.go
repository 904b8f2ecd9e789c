package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/KaiStephens/lockInRecorder/internal/ffmpeg"
	"github.com/KaiStephens/lockInRecorder/internal/process"
)

// FFmpegTranscoder runs the external ffmpeg binary through the one-shot
// process runner. It is the preferred path: hardware-tuned encoders and
// proper MP4 muxing for free.
type FFmpegTranscoder struct {
	logger       *slog.Logger
	ffmpegLogger *slog.Logger
	lookPath     func(file string) (string, error)
}

// NewFFmpegTranscoder builds the subprocess transcoder. ffmpegLogger
// receives the parsed ffmpeg output lines.
func NewFFmpegTranscoder(logger, ffmpegLogger *slog.Logger) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		logger:       logger,
		ffmpegLogger: ffmpegLogger,
		lookPath:     exec.LookPath,
	}
}

// Name identifies this transcoder in results and logs.
func (t *FFmpegTranscoder) Name() string {
	return "ffmpeg"
}

// Transcode builds and runs the retime command. Fails fast when ffmpeg
// is not installed so the fallback gets its turn immediately.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, params ffmpeg.RetimeParams) error {
	if _, err := t.lookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	command := ffmpeg.BuildRetimeCommand(&params)
	runner := process.NewRunner("convert", command, t.logger)
	runner.SetLogParser(t.ffmpegLogger, ffmpeg.ParseLogLevel)

	if code := runner.Run(ctx); code != 0 {
		return fmt.Errorf("ffmpeg exited with code %d", code)
	}
	if _, err := os.Stat(params.OutputPath); err != nil {
		return fmt.Errorf("ffmpeg succeeded but output is missing: %w", err)
	}
	return nil
}
