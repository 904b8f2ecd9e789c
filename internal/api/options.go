package api

import (
	"context"
	"net/http"

	"github.com/KaiStephens/lockInRecorder/internal/api/models"
	"github.com/KaiStephens/lockInRecorder/internal/ffmpeg"
	"github.com/danielgtaylor/huma/v2"
)

// registerOptionsRoutes registers the conversion options catalog route.
func (s *Server) registerOptionsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-conversion-options",
		Method:      http.MethodGet,
		Path:        "/api/options",
		Summary:     "Get Conversion Options",
		Description: "Get the ffmpeg options applied to one-minute conversions, with descriptions, categories, and conflict information",
		Tags:        []string{"configuration"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.OptionsResponse, error) {
		return &models.OptionsResponse{
			Body: models.OptionsData{
				Options: ffmpeg.AllOptions,
			},
		}, nil
	})
}
