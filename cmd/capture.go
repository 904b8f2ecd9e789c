package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/capture"
	"github.com/KaiStephens/lockInRecorder/internal/display"
	"github.com/KaiStephens/lockInRecorder/internal/logging"
	"github.com/KaiStephens/lockInRecorder/internal/postprocess"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
	"github.com/KaiStephens/lockInRecorder/internal/settings"
	"github.com/KaiStephens/lockInRecorder/internal/streaming"
	"github.com/spf13/cobra"
)

// cameraWaitTimeout bounds how long the standalone capture waits for a
// device before giving up. Probing time does not count against the
// requested recording duration.
const cameraWaitTimeout = 30 * time.Second

// CreateCaptureCmd creates the capture command.
func CreateCaptureCmd() *cobra.Command {
	var duration time.Duration
	var fps int
	var width int
	var height int
	var output string
	var convert bool
	var preview bool
	var cameraIndex int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record one clip without the HTTP server",
		Long: `Opens the camera, records for the given duration, and writes one recording. ` +
			`Interrupt with Ctrl-C to stop early. With conversion enabled the finished ` +
			`recording is retimed to exactly one minute.`,
		Run: func(_ *cobra.Command, _ []string) {
			// Initialize minimal logging
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("capture")

			if duration <= 0 {
				logger.Error("Duration must be positive", "duration", duration)
				os.Exit(1)
			}

			// One-shot runs keep settings in memory only
			manager := settings.NewManager(nil, logger)
			fpsValue := float64(fps)
			patch := settings.Patch{
				Fps:                &fpsValue,
				Width:              &width,
				Height:             &height,
				ConvertToOneMinute: &convert,
				OutputDirectory:    &output,
			}
			if _, err := manager.Apply(patch); err != nil {
				logger.Error("Invalid capture parameters", "error", err)
				os.Exit(1)
			}

			recorder := recording.NewService(manager, nil, logging.GetLogger("recording"),
				recording.WithConverter(postprocess.New(logging.GetLogger("convert"))))

			feed := streaming.NewFeed()
			sink := display.New(preview, logger)

			loop := capture.NewLoop(capture.Config{
				DeviceIndex: cameraIndex,
			}, manager, recorder, feed, sink, nil, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loopCtx, stopLoop := context.WithCancel(ctx)
			loopDone := make(chan struct{})
			go func() {
				defer close(loopDone)
				_ = loop.Run(loopCtx)
			}()

			teardown := func() {
				stopLoop()
				select {
				case <-loopDone:
				case <-time.After(5 * time.Second):
					logger.Warn("Capture loop did not stop in time")
				}
				loop.ReleaseCamera()
				if closeErr := sink.Close(); closeErr != nil {
					logger.Warn("Error closing preview window", "error", closeErr)
				}
			}

			if !waitForCamera(ctx, loop) {
				logger.Error("No camera available", "waited", cameraWaitTimeout)
				teardown()
				os.Exit(1)
			}

			result, err := recorder.Start(ctx, recording.StartOptions{})
			if err != nil {
				logger.Error("Failed to start recording", "error", err)
				teardown()
				os.Exit(1)
			}
			logger.Info("Recording",
				"path", result.Path,
				"fps", result.Fps,
				"width", result.Width,
				"height", result.Height,
				"duration", duration)

			select {
			case <-ctx.Done():
				logger.Info("Interrupted, stopping early")
			case <-time.After(duration):
			}

			// Conversion still runs after an interrupt, so the signal
			// context must not cover the stop
			stopResult, err := recorder.Stop(context.Background())
			if err != nil {
				logger.Error("Failed to stop recording", "error", err)
				teardown()
				os.Exit(1)
			}

			teardown()

			logger.Info("Capture finished",
				"path", stopResult.Path,
				"frames", stopResult.Frames,
				"duration", stopResult.Duration.Round(time.Millisecond),
				"converted", stopResult.Converted)
			if convert && !stopResult.Converted {
				logger.Warn("Conversion did not run, raw recording kept", "path", stopResult.Path)
			}
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "How long to record")
	cmd.Flags().IntVar(&fps, "fps", 2, "Recording frames per second")
	cmd.Flags().IntVar(&width, "width", 640, "Recording frame width")
	cmd.Flags().IntVar(&height, "height", 480, "Recording frame height")
	cmd.Flags().StringVarP(&output, "output", "o", "recordings", "Directory to write the recording to")
	cmd.Flags().BoolVar(&convert, "convert", true, "Retime the finished recording to one minute")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show a local preview window")
	cmd.Flags().IntVar(&cameraIndex, "camera-index", 0, "Preferred camera device index")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// waitForCamera polls until the loop holds an open device or ctx ends.
func waitForCamera(ctx context.Context, loop *capture.Loop) bool {
	deadline := time.NewTimer(cameraWaitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if loop.Info().Connected {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}
