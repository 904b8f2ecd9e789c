package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/KaiStephens/lockInRecorder/internal/api/models"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
	"github.com/danielgtaylor/huma/v2"
)

// registerRecordingRoutes registers recording control and status endpoints.
// The control paths are top-level, matching the original camera app.
func (s *Server) registerRecordingRoutes() {
	// Start a recording session
	huma.Register(s.api, huma.Operation{
		OperationID: "start-recording",
		Method:      http.MethodPost,
		Path:        "/start_recording",
		Summary:     "Start Recording",
		Description: "Start a new recording session, optionally overriding the stored settings for this session only",
		Tags:        []string{"recording"},
		Errors:      []int{400, 401, 409, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.StartRecordingRequest) (*models.StartRecordingResponse, error) {
		opts := recording.StartOptions{
			OutputDirectory: input.Body.OutputDirectory,
			Convert:         input.Body.ConvertToOneMinute,
		}
		if input.Body.Fps != nil {
			opts.Fps = *input.Body.Fps
		}
		if input.Body.Width != nil {
			opts.Width = *input.Body.Width
		}
		if input.Body.Height != nil {
			opts.Height = *input.Body.Height
		}

		result, err := s.recorder.Start(ctx, opts)
		if err != nil {
			return nil, s.mapRecordingError(err)
		}

		return &models.StartRecordingResponse{
			Body: models.StartRecordingData{
				Status:    "success",
				Message:   "Recording started",
				Filename:  filepath.Base(result.Path),
				SessionID: result.SessionID,
			},
		}, nil
	})

	// Stop the active recording session
	huma.Register(s.api, huma.Operation{
		OperationID: "stop-recording",
		Method:      http.MethodPost,
		Path:        "/stop_recording",
		Summary:     "Stop Recording",
		Description: "Stop the active recording session and run the one-minute conversion when enabled",
		Tags:        []string{"recording"},
		Errors:      []int{401, 409, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.StopRecordingResponse, error) {
		result, err := s.recorder.Stop(ctx)
		if err != nil {
			return nil, s.mapRecordingError(err)
		}

		message := "Recording stopped"
		if result.Converted {
			message = "Recording stopped and converted to one minute"
		}

		return &models.StopRecordingResponse{
			Body: models.StopRecordingData{
				Status:    "success",
				Message:   message,
				Filename:  filepath.Base(result.Path),
				Frames:    result.Frames,
				Duration:  result.Duration.Seconds(),
				Converted: result.Converted,
			},
		}, nil
	})

	// Combined engine status
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Get the recording session state, camera device state, and viewer count",
		Tags:        []string{"recording"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		data := models.StatusData{
			Recording: s.recorder.Status(),
		}
		if s.camera != nil {
			data.Camera = s.camera.Info()
		}
		if s.feed != nil {
			data.Viewers = s.feed.Viewers()
		}
		return &models.StatusResponse{Body: data}, nil
	})
}

// mapRecordingError maps domain errors to HTTP errors
func (s *Server) mapRecordingError(err error) error {
	var recErr *recording.Error
	if errors.As(err, &recErr) {
		switch recErr.Code {
		case recording.ErrCodeAlreadyRecording, recording.ErrCodeNotRecording:
			return huma.Error409Conflict(recErr.Message, err)
		case recording.ErrCodeInvalidParams:
			return huma.Error400BadRequest(recErr.Message, err)
		case recording.ErrCodeNoDevice:
			return huma.Error503ServiceUnavailable(recErr.Message, err)
		case recording.ErrCodeWriterInit, recording.ErrCodeConversionFailed:
			return huma.Error500InternalServerError(recErr.Message, err)
		default:
			return huma.Error500InternalServerError("internal server error", err)
		}
	}
	return huma.Error500InternalServerError("internal server error", err)
}
