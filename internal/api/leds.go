package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// LEDSetRequest asks for one LED to change state.
type LEDSetRequest struct {
	Body struct {
		Type    string  `json:"type" example:"user" doc:"LED name on this board (act, user, system, blue, green)"`
		Enabled bool    `json:"enabled" example:"true" doc:"Turn the LED on or off"`
		Pattern *string `json:"pattern,omitempty" example:"blink" doc:"Pattern to apply while on (solid, blink, heartbeat)"`
	}
}

// LEDCapabilitiesData describes the LEDs of the current board.
type LEDCapabilitiesData struct {
	AvailableTypes    []string `json:"available_types" doc:"LED names this board exposes"`
	AvailablePatterns []string `json:"available_patterns" doc:"Patterns the driver understands"`
	Indicator         string   `json:"indicator,omitempty" example:"act" doc:"LED mirrored to recording state, empty when none"`
}

// LEDCapabilitiesResponse wraps LEDCapabilitiesData for huma.
type LEDCapabilitiesResponse struct {
	Body LEDCapabilitiesData
}

// registerLEDRoutes mounts LED endpoints when the board has LEDs to drive.
func (s *Server) registerLEDRoutes() {
	manager := s.options.LEDManager
	if manager == nil {
		s.logger.Debug("LED manager not available, skipping LED routes")
		return
	}
	controller := manager.GetController()

	huma.Register(s.api, huma.Operation{
		OperationID: "set-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Set LED",
		Description: "Drive one LED by hand. The recording indicator is reclaimed on the next recording state change.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *LEDSetRequest) (*struct{}, error) {
		var pattern string
		if p := input.Body.Pattern; p != nil {
			pattern = *p
		}
		if err := controller.Set(input.Body.Type, input.Body.Enabled, pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "LED Capabilities",
		Description: "List the LED names and patterns this board supports and which LED mirrors recording state",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*LEDCapabilitiesResponse, error) {
		return &LEDCapabilitiesResponse{
			Body: LEDCapabilitiesData{
				AvailableTypes:    controller.Available(),
				AvailablePatterns: controller.Patterns(),
				Indicator:         manager.Indicator(),
			},
		}, nil
	})

	s.logger.Info("LED routes registered")
}
