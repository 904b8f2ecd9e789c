package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/KaiStephens/lockInRecorder/internal/api/models"
	"github.com/KaiStephens/lockInRecorder/internal/recordings"
	"github.com/danielgtaylor/huma/v2"
)

// registerRecordingsRoutes registers the recordings library endpoints.
func (s *Server) registerRecordingsRoutes() {
	// List recordings
	huma.Register(s.api, huma.Operation{
		OperationID: "get-recordings",
		Method:      http.MethodGet,
		Path:        "/get_recordings",
		Summary:     "List Recordings",
		Description: "List recording files in the output directory, newest first",
		Tags:        []string{"recordings"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.RecordingsListResponse, error) {
		entries, err := s.library.List()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list recordings", err)
		}

		return &models.RecordingsListResponse{
			Body: models.RecordingsListData{
				Recordings: entries,
				Count:      len(entries),
			},
		}, nil
	})

	// Delete a recording
	huma.Register(s.api, huma.Operation{
		OperationID: "delete-recording",
		Method:      http.MethodPost,
		Path:        "/delete_recording",
		Summary:     "Delete Recording",
		Description: "Delete a recording file by name",
		Tags:        []string{"recordings"},
		Errors:      []int{400, 401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.DeleteRecordingRequest) (*models.DeleteRecordingResponse, error) {
		if err := s.library.Delete(input.Body.Filename); err != nil {
			return nil, s.mapLibraryError(err)
		}

		return &models.DeleteRecordingResponse{
			Body: models.DeleteRecordingData{
				Status:   "success",
				Message:  "Recording deleted",
				Filename: input.Body.Filename,
			},
		}, nil
	})
}

// serveRecording streams a recording file to the client. Mounted directly on
// the mux since huma is the wrong tool for large binary downloads.
func (s *Server) serveRecording(w http.ResponseWriter, r *http.Request) {
	path, err := s.library.Resolve(r.PathValue("filename"))
	if err != nil {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, path)
}

// mapLibraryError maps library errors to HTTP errors
func (s *Server) mapLibraryError(err error) error {
	switch {
	case errors.Is(err, recordings.ErrInvalidFilename):
		return huma.Error400BadRequest("Invalid recording filename", err)
	case errors.Is(err, recordings.ErrNotFound):
		return huma.Error404NotFound("Recording not found", err)
	default:
		return huma.Error500InternalServerError("Failed to delete recording", err)
	}
}
