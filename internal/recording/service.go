package recording

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/KaiStephens/lockInRecorder/internal/events"
	"github.com/KaiStephens/lockInRecorder/internal/metrics"
	"github.com/KaiStephens/lockInRecorder/internal/settings"
)

// Converter turns a finished capture file into its final form. The
// service calls it outside the session mutex so frame submission and
// new start requests are never blocked by post-processing.
type Converter interface {
	Convert(ctx context.Context, req ConvertRequest) (ConvertResult, error)
}

// ConvertRequest describes the capture file handed to the converter.
type ConvertRequest struct {
	InputPath string
	Fps       float64
	Frames    int
}

// ConvertResult reports where the converted file ended up and which
// backend produced it.
type ConvertResult struct {
	OutputPath string
	Method     string
}

// StartOptions override the stored settings for a single session.
// Zero values fall back to the current settings snapshot.
type StartOptions struct {
	Fps             float64
	Width           int
	Height          int
	OutputDirectory string
	Convert         *bool
}

// StartResult describes the session that was created.
type StartResult struct {
	SessionID string
	Path      string
	Fps       float64
	Width     int
	Height    int
	StartedAt time.Time
}

// StopResult describes the finished session. Path points at the
// converted file when Converted is true, otherwise at the raw capture.
type StopResult struct {
	SessionID string
	Path      string
	Frames    int
	Duration  time.Duration
	Converted bool
}

// Status is a point-in-time snapshot of the service for the API.
type Status struct {
	State     State     `json:"state"`
	SessionID string    `json:"session_id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Fps       float64   `json:"fps,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Frames    int       `json:"frames"`
	Elapsed   float64   `json:"elapsed_seconds"`
}

type session struct {
	id        string
	path      string
	fps       float64
	width     int
	height    int
	convert   bool
	startedAt time.Time
	frames    int
	writer    FrameWriter
}

// Service owns the single recording slot. One mutex covers the state
// transitions and frame writes; conversion runs outside it.
type Service struct {
	settings  *settings.Manager
	factory   WriterFactory
	converter Converter
	bus       *events.Bus
	logger    *slog.Logger

	now func() time.Time

	mu    sync.Mutex
	state State
	sess  *session
}

// Option configures a Service.
type Option func(*Service)

// WithWriterFactory replaces the default video writer factory.
func WithWriterFactory(f WriterFactory) Option {
	return func(s *Service) { s.factory = f }
}

// WithConverter sets the post-processing backend. Without one the raw
// capture file is the final artifact.
func WithConverter(c Converter) Option {
	return func(s *Service) { s.converter = c }
}

// WithClock replaces the wall clock used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the recording service around the settings manager.
func NewService(st *settings.Manager, bus *events.Bus, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		settings: st,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = NewVideoWriterFactory(logger)
	}
	return s
}

// Filename returns the capture filename for a session started at t.
func Filename(t time.Time) string {
	return "lockin-" + t.Format("20060102-150405") + ".avi"
}

// Start claims the recording slot and opens the output writer. The
// writer is opened outside the mutex so frame submission and status
// reads stay responsive while the encoder spins up.
func (s *Service) Start(ctx context.Context, opts StartOptions) (StartResult, error) {
	cfg := s.settings.Snapshot()
	fps := cfg.Fps
	if opts.Fps > 0 {
		fps = opts.Fps
	}
	width, height := cfg.Width, cfg.Height
	if opts.Width > 0 {
		width = opts.Width
	}
	if opts.Height > 0 {
		height = opts.Height
	}
	dir := cfg.OutputDirectory
	if opts.OutputDirectory != "" {
		dir = opts.OutputDirectory
	}
	convert := cfg.ConvertToOneMinute
	if opts.Convert != nil {
		convert = *opts.Convert
	}
	if fps <= 0 {
		return StartResult{}, NewError(ErrCodeInvalidParams, fmt.Sprintf("invalid fps %v", fps), nil)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return StartResult{}, NewError(ErrCodeAlreadyRecording, fmt.Sprintf("recording already in progress (state %s)", state), nil)
	}
	s.state = StateStarting
	s.mu.Unlock()

	startedAt := s.now()
	sess := &session{
		id:        uuid.NewString()[:8],
		fps:       fps,
		width:     width,
		height:    height,
		convert:   convert,
		startedAt: startedAt,
	}
	sess.path = filepath.Join(dir, Filename(startedAt))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.failStart(sess, "create output directory", err)
		return StartResult{}, NewError(ErrCodeWriterInit, fmt.Sprintf("create output directory %s", dir), err)
	}
	writer, err := s.factory(sess.path, fps, width, height)
	if err != nil {
		s.failStart(sess, "open video writer", err)
		return StartResult{}, NewError(ErrCodeWriterInit, fmt.Sprintf("open video writer for %s", sess.path), err)
	}
	sess.writer = writer

	s.mu.Lock()
	s.sess = sess
	s.state = StateActive
	s.mu.Unlock()

	metrics.IncSessionsStarted()
	metrics.SetRecordingActive(true)
	s.logger.Info("Recording started",
		"session_id", sess.id,
		"path", sess.path,
		"fps", fps,
		"width", width,
		"height", height,
		"convert", convert)
	if s.bus != nil {
		s.bus.Publish(events.RecordingStartedEvent{
			SessionID: sess.id,
			Filename:  filepath.Base(sess.path),
			Fps:       fps,
			Width:     width,
			Height:    height,
			Timestamp: startedAt.Format(time.RFC3339),
		})
	}

	return StartResult{
		SessionID: sess.id,
		Path:      sess.path,
		Fps:       fps,
		Width:     width,
		Height:    height,
		StartedAt: startedAt,
	}, nil
}

func (s *Service) failStart(sess *session, what string, err error) {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.logger.Error("Recording start failed", "session_id", sess.id, "error", err)
	if s.bus != nil {
		s.bus.Publish(events.RecordingFailedEvent{
			SessionID: sess.id,
			Message:   what,
			Error:     err.Error(),
			Timestamp: s.now().Format(time.RFC3339),
		})
	}
}

// Submit offers a captured frame to the active session. Frames arrive
// at the capture rate; the session keeps only enough to hold the target
// fps against the wall clock: a frame is written when the time covered
// by the frames already written has elapsed. Returns true when the
// frame was written.
func (s *Service) Submit(frame gocv.Mat, ts time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.sess == nil {
		return false
	}
	sess := s.sess
	if sess.frames > 0 {
		covered := time.Duration(float64(sess.frames) / sess.fps * float64(time.Second))
		if ts.Sub(sess.startedAt) < covered {
			return false
		}
	}
	if err := sess.writer.Write(frame); err != nil {
		s.logger.Warn("Frame write failed", "session_id", sess.id, "error", err)
		return false
	}
	sess.frames++
	metrics.IncRecordedFrames()
	return true
}

// Stop closes the active session and post-processes the capture file.
// Conversion failures are not fatal: the raw capture survives and the
// result points at it.
func (s *Service) Stop(ctx context.Context) (StopResult, error) {
	s.mu.Lock()
	if s.state != StateActive || s.sess == nil {
		state := s.state
		s.mu.Unlock()
		return StopResult{}, NewError(ErrCodeNotRecording, fmt.Sprintf("no recording in progress (state %s)", state), nil)
	}
	s.state = StateStopping
	sess := s.sess
	closeErr := sess.writer.Close()
	stoppedAt := s.now()
	s.state = StateFinalizing
	s.mu.Unlock()

	if closeErr != nil {
		s.logger.Warn("Video writer close failed", "session_id", sess.id, "error", closeErr)
	}
	metrics.SetRecordingActive(false)

	duration := stoppedAt.Sub(sess.startedAt)
	result := StopResult{
		SessionID: sess.id,
		Path:      sess.path,
		Frames:    sess.frames,
		Duration:  duration,
	}

	if sess.convert && s.converter != nil && sess.frames > 0 {
		conv, err := s.converter.Convert(ctx, ConvertRequest{
			InputPath: sess.path,
			Fps:       sess.fps,
			Frames:    sess.frames,
		})
		if err != nil {
			s.logger.Warn("Conversion failed, keeping raw capture",
				"session_id", sess.id,
				"path", sess.path,
				"error", err)
			metrics.IncConversion("none", "failure")
		} else {
			result.Path = conv.OutputPath
			result.Converted = true
			metrics.IncConversion(conv.Method, "success")
			if s.bus != nil {
				s.bus.Publish(events.ConversionFinishedEvent{
					SessionID: sess.id,
					Source:    filepath.Base(sess.path),
					Output:    filepath.Base(conv.OutputPath),
					Method:    conv.Method,
					Timestamp: s.now().Format(time.RFC3339),
				})
			}
		}
	}

	s.mu.Lock()
	s.sess = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.logger.Info("Recording stopped",
		"session_id", sess.id,
		"path", result.Path,
		"frames", result.Frames,
		"duration", duration.Round(time.Millisecond),
		"converted", result.Converted)
	if s.bus != nil {
		s.bus.Publish(events.RecordingStoppedEvent{
			SessionID:       sess.id,
			Filename:        filepath.Base(result.Path),
			Frames:          result.Frames,
			DurationSeconds: duration.Seconds(),
			Converted:       result.Converted,
			Timestamp:       stoppedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

// Shutdown closes any active session without post-processing. Used by
// the lifecycle teardown so the capture file is playable after an
// interrupted run. Safe to call repeatedly.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.state != StateActive || s.sess == nil {
		s.mu.Unlock()
		return
	}
	sess := s.sess
	s.sess = nil
	s.state = StateIdle
	s.mu.Unlock()

	if err := sess.writer.Close(); err != nil {
		s.logger.Warn("Video writer close failed", "session_id", sess.id, "error", err)
	}
	metrics.SetRecordingActive(false)
	stoppedAt := s.now()
	s.logger.Info("Recording closed on shutdown",
		"session_id", sess.id,
		"path", sess.path,
		"frames", sess.frames)
	if s.bus != nil {
		s.bus.Publish(events.RecordingStoppedEvent{
			SessionID:       sess.id,
			Filename:        filepath.Base(sess.path),
			Frames:          sess.frames,
			DurationSeconds: stoppedAt.Sub(sess.startedAt).Seconds(),
			Converted:       false,
			Timestamp:       stoppedAt.Format(time.RFC3339),
		})
	}
}

// Busy reports whether a session currently holds the recording slot.
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Busy()
}

// Status returns a snapshot of the current session for the API.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state}
	if s.sess != nil {
		st.SessionID = s.sess.id
		st.Path = s.sess.path
		st.Fps = s.sess.fps
		st.Width = s.sess.width
		st.Height = s.sess.height
		st.StartedAt = s.sess.startedAt
		st.Frames = s.sess.frames
		st.Elapsed = s.now().Sub(s.sess.startedAt).Seconds()
	}
	return st
}
