package led

import (
	"log/slog"
	"sync"

	"github.com/KaiStephens/lockInRecorder/internal/events"
)

// indicatorPreference orders LED types from most to least suitable as a
// recording indicator. The first type the controller exposes wins.
var indicatorPreference = []string{"act", "user", "system", "blue", "green"}

// Manager drives a board LED from recording and camera events: solid while a
// recording is active, blinking while the camera is lost, off otherwise.
type Manager struct {
	controller Controller
	eventBus   *events.Bus
	unsubs     []func()
	logger     *slog.Logger
	led        string

	mu         sync.Mutex
	recording  bool
	deviceLost bool
}

// NewManager creates a new LED manager bound to the given controller and bus
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
		led:        pickIndicator(controller),
	}
}

// pickIndicator selects the LED used as the recording indicator
func pickIndicator(controller Controller) string {
	available := controller.Available()
	for _, want := range indicatorPreference {
		for _, have := range available {
			if have == want {
				return want
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}

// Start begins listening for recording and device events
func (m *Manager) Start() {
	m.unsubs = append(m.unsubs,
		m.eventBus.Subscribe(func(e events.RecordingStartedEvent) {
			m.setRecording(true)
		}),
		m.eventBus.Subscribe(func(e events.RecordingStoppedEvent) {
			m.setRecording(false)
		}),
		m.eventBus.Subscribe(func(e events.RecordingFailedEvent) {
			m.setRecording(false)
		}),
		m.eventBus.Subscribe(func(e events.DeviceLostEvent) {
			m.setDeviceLost(true)
		}),
		m.eventBus.Subscribe(func(e events.DeviceRecoveredEvent) {
			m.setDeviceLost(false)
		}),
	)
	m.logger.Info("LED manager started", "indicator", m.led)
}

// Stop unsubscribes from events and turns the indicator off
func (m *Manager) Stop() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.set(false, "")
	m.logger.Info("LED manager stopped")
}

func (m *Manager) setRecording(active bool) {
	m.mu.Lock()
	m.recording = active
	m.mu.Unlock()
	m.update()
}

func (m *Manager) setDeviceLost(lost bool) {
	m.mu.Lock()
	m.deviceLost = lost
	m.mu.Unlock()
	m.update()
}

// update maps the current state onto an LED pattern. Device loss takes
// precedence over recording so a stalled capture is always visible.
func (m *Manager) update() {
	m.mu.Lock()
	recording := m.recording
	lost := m.deviceLost
	m.mu.Unlock()

	switch {
	case lost:
		m.set(true, "blink")
	case recording:
		m.set(true, "solid")
	default:
		m.set(false, "")
	}
}

func (m *Manager) set(enabled bool, pattern string) {
	if m.led == "" {
		return
	}
	if err := m.controller.Set(m.led, enabled, pattern); err != nil {
		m.logger.Warn("Failed to set indicator LED",
			"led", m.led,
			"enabled", enabled,
			"pattern", pattern,
			"error", err)
	}
}

// GetController returns the underlying LED controller for direct API access
func (m *Manager) GetController() Controller {
	return m.controller
}

// Indicator returns the LED type driven by recording state, empty when the
// board exposes none.
func (m *Manager) Indicator() string {
	return m.led
}
