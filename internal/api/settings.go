package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/api/models"
	"github.com/KaiStephens/lockInRecorder/internal/events"
	"github.com/KaiStephens/lockInRecorder/internal/settings"
	"github.com/danielgtaylor/huma/v2"
)

// registerSettingsRoutes registers the capture settings endpoints. Updates
// are refused while a session is active so a recording never observes its
// parameters changing midway.
func (s *Server) registerSettingsRoutes() {
	// Read current settings
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Description: "Get the current capture settings",
		Tags:        []string{"settings"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.SettingsResponse, error) {
		return &models.SettingsResponse{
			Body: settingsToAPI(s.settings.Snapshot()),
		}, nil
	})

	// Update settings
	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPost,
		Path:        "/update_settings",
		Summary:     "Update Settings",
		Description: "Update capture settings. Rejected while a recording session is active.",
		Tags:        []string{"settings"},
		Errors:      []int{400, 401, 409, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
		if s.recorder.Busy() {
			return nil, huma.Error409Conflict("Cannot update settings while recording is active")
		}

		patch := settings.Patch{
			Fps:                input.Body.Fps,
			Width:              input.Body.Width,
			Height:             input.Body.Height,
			ConvertToOneMinute: input.Body.ConvertToOneMinute,
			OutputDirectory:    input.Body.OutputDirectory,
		}

		updated, err := s.settings.Apply(patch)
		if err != nil {
			if errors.Is(err, settings.ErrInvalid) {
				return nil, huma.Error400BadRequest("Invalid settings", err)
			}
			return nil, huma.Error500InternalServerError("Failed to save settings", err)
		}

		if s.eventBus != nil {
			s.eventBus.Publish(events.SettingsUpdatedEvent{
				Fps:                updated.Fps,
				Width:              updated.Width,
				Height:             updated.Height,
				ConvertToOneMinute: updated.ConvertToOneMinute,
				OutputDirectory:    updated.OutputDirectory,
				Source:             "api",
				Timestamp:          time.Now().Format(time.RFC3339),
			})
		}

		return &models.SettingsResponse{
			Body: settingsToAPI(updated),
		}, nil
	})
}

// settingsToAPI converts domain settings to the API shape.
func settingsToAPI(s settings.Settings) models.SettingsData {
	return models.SettingsData{
		Fps:                s.Fps,
		Width:              s.Width,
		Height:             s.Height,
		ConvertToOneMinute: s.ConvertToOneMinute,
		OutputDirectory:    s.OutputDirectory,
	}
}
