package api

import (
	"context"
	"net/http"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/events"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
)

// connectedEvent confirms a fresh SSE connection before any engine events
// arrive.
type connectedEvent struct {
	Message   string `json:"message" example:"SSE connection established" doc:"Connection confirmation"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Server time"`
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for recording sessions, camera state, conversions, and settings changes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"connected":           connectedEvent{},
		"recording-started":   events.RecordingStartedEvent{},
		"recording-stopped":   events.RecordingStoppedEvent{},
		"recording-failed":    events.RecordingFailedEvent{},
		"conversion-finished": events.ConversionFinishedEvent{},
		"device-lost":         events.DeviceLostEvent{},
		"device-recovered":    events.DeviceRecoveredEvent{},
		"settings-updated":    events.SettingsUpdatedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.RecordingStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RecordingStoppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RecordingFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ConversionFinishedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DeviceLostEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DeviceRecoveredEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SettingsUpdatedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Send initial connection confirmation
		if err := send.Data(connectedEvent{
			Message:   "SSE connection established",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
