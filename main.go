package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/KaiStephens/lockInRecorder/cmd"
	"github.com/KaiStephens/lockInRecorder/internal/api"
	"github.com/KaiStephens/lockInRecorder/internal/capture"
	"github.com/KaiStephens/lockInRecorder/internal/config"
	"github.com/KaiStephens/lockInRecorder/internal/display"
	"github.com/KaiStephens/lockInRecorder/internal/events"
	"github.com/KaiStephens/lockInRecorder/internal/led"
	"github.com/KaiStephens/lockInRecorder/internal/logging"
	"github.com/KaiStephens/lockInRecorder/internal/metrics"
	"github.com/KaiStephens/lockInRecorder/internal/postprocess"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
	"github.com/KaiStephens/lockInRecorder/internal/recordings"
	"github.com/KaiStephens/lockInRecorder/internal/settings"
	"github.com/KaiStephens/lockInRecorder/internal/streaming"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/pflag"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Host string `help:"Host interface to bind, empty for all" default:"" toml:"server.host" env:"SERVER_HOST"`
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Camera settings
	CameraIndex      int  `help:"Preferred camera device index" default:"0" toml:"camera.index" env:"CAMERA_INDEX"`
	StreamIntervalMs int  `help:"Live stream frame pacing in milliseconds" default:"30" toml:"camera.stream_interval_ms" env:"CAMERA_STREAM_INTERVAL_MS"`
	Preview          bool `help:"Show a local preview window when a display is available" default:"false" toml:"camera.preview" env:"CAMERA_PREVIEW"`

	// Capture settings applied to the stored settings at startup. Only
	// flags the user actually passed override the settings file.
	Fps       int    `help:"Recording frames per second" default:"2"`
	Width     int    `help:"Recording frame width" default:"640"`
	Height    int    `help:"Recording frame height" default:"480"`
	Convert   bool   `help:"Retime finished recordings to one minute" default:"true"`
	OutputDir string `help:"Directory recordings are written to" default:"recordings"`

	SettingsFile string `help:"Capture settings file" default:"settings.json" toml:"recording.settings_file" env:"RECORDING_SETTINGS_FILE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Enable the LED recording indicator" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCapture   string `help:"Capture loop logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingRecording string `help:"Recording logging level" default:"info" toml:"logging.recording" env:"LOGGING_RECORDING"`
	LoggingConvert   string `help:"Conversion logging level" default:"info" toml:"logging.convert" env:"LOGGING_CONVERT"`
	LoggingSettings  string `help:"Settings logging level" default:"info" toml:"logging.settings" env:"LOGGING_SETTINGS"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func main() {
	// Create Huma CLI
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"capture":   opts.LoggingCapture,
				"recording": opts.LoggingRecording,
				"convert":   opts.LoggingConvert,
				"settings":  opts.LoggingSettings,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Capture settings persist to their own file so the API and the
		// file watcher can change them while the server runs
		store := settings.NewFileStore(opts.SettingsFile)
		settingsManager := settings.NewManager(store, logging.GetLogger("settings"))
		if patch := captureFlagPatch(cli.Root().Flags(), opts); !patch.IsZero() {
			if _, applyErr := settingsManager.Apply(patch); applyErr != nil {
				logger.Error("Invalid capture flags", "error", applyErr)
				os.Exit(1)
			}
		}

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Bridge new log entries onto the bus for the live log stream
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		recorder := recording.NewService(settingsManager, eventBus, logging.GetLogger("recording"),
			recording.WithConverter(postprocess.New(logging.GetLogger("convert"))))

		feed := streaming.NewFeed()
		sink := display.New(opts.Preview, logging.GetLogger("capture"))

		loop := capture.NewLoop(capture.Config{
			DeviceIndex: opts.CameraIndex,
			Interval:    time.Duration(opts.StreamIntervalMs) * time.Millisecond,
		}, settingsManager, recorder, feed, sink, eventBus, logging.GetLogger("capture"))

		// External edits to the settings file apply between sessions;
		// reloads are held off while a recording is active, and the
		// manager's own saves are not treated as edits
		watcher := settings.NewWatcher(store, logging.GetLogger("settings"),
			settings.WithSkip(recorder.Busy),
			settings.WithCurrent(settingsManager.Snapshot))
		watcher.OnReload(func(loaded settings.Settings) {
			if replaceErr := settingsManager.Replace(loaded); replaceErr != nil {
				logger.Warn("Ignoring invalid settings from file", "error", replaceErr)
				return
			}
			eventBus.Publish(events.SettingsUpdatedEvent{
				Fps:                loaded.Fps,
				Width:              loaded.Width,
				Height:             loaded.Height,
				ConvertToOneMinute: loaded.ConvertToOneMinute,
				OutputDirectory:    loaded.OutputDirectory,
				Source:             "file",
				Timestamp:          time.Now().Format(time.RFC3339),
			})
		})

		// Initialize LED control if enabled
		var ledManager *led.Manager
		if opts.FeaturesLEDControl {
			logger.Info("LED control enabled, initializing")
			ledController := led.New(logging.GetLogger("led"))
			ledManager = led.NewManager(ledController, eventBus, logging.GetLogger("led"))
		}

		library := recordings.NewLibrary(func() string {
			return settingsManager.Snapshot().OutputDirectory
		}, logging.GetLogger("api"))

		apiOpts := &api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Recorder:          recorder,
			Settings:          settingsManager,
			Library:           library,
			Camera:            loop,
			Feed:              feed,
			EventBus:          eventBus,
			LEDManager:        ledManager,
			PrometheusHandler: metrics.Handler(),
		}

		server := api.NewServer(apiOpts)

		loopCtx, stopLoop := context.WithCancel(context.Background())
		loopDone := make(chan struct{})

		hooks.OnStart(func() {
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Settings watcher disabled", "error", watchErr)
			}

			if ledManager != nil {
				ledManager.Start()
			}

			go func() {
				defer close(loopDone)
				if runErr := loop.Run(loopCtx); runErr != nil && !errors.Is(runErr, context.Canceled) {
					logger.Error("Capture loop exited", "error", runErr)
				}
			}()

			addr := opts.Host + opts.Port
			logger.Info("Starting HTTP server", "addr", addr)
			if startErr := server.Start(addr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Stop the capture loop before closing the writer so no frame
			// submission races the close
			stopLoop()
			select {
			case <-loopDone:
			case <-time.After(5 * time.Second):
				logger.Warn("Capture loop did not stop in time")
			}

			recorder.Shutdown()
			loop.ReleaseCamera()

			if ledManager != nil {
				ledManager.Stop()
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping settings watcher", "error", stopErr)
			}
			if closeErr := sink.Close(); closeErr != nil {
				logger.Warn("Error closing preview window", "error", closeErr)
			}
		})
	})

	// Add standalone capture command
	cli.Root().AddCommand(cmd.CreateCaptureCmd())

	// Add device probing command
	cli.Root().AddCommand(cmd.CreateDevicesCmd())

	// Run the CLI
	cli.Run()
}

// captureFlagPatch turns explicitly passed capture flags into a settings
// patch. Defaults never override the settings file.
func captureFlagPatch(flags *pflag.FlagSet, opts *Options) settings.Patch {
	var patch settings.Patch
	if flags.Changed("fps") {
		fps := float64(opts.Fps)
		patch.Fps = &fps
	}
	if flags.Changed("width") {
		patch.Width = &opts.Width
	}
	if flags.Changed("height") {
		patch.Height = &opts.Height
	}
	if flags.Changed("convert") {
		patch.ConvertToOneMinute = &opts.Convert
	}
	if flags.Changed("output-dir") {
		patch.OutputDirectory = &opts.OutputDir
	}
	return patch
}
