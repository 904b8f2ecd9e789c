package events

// Event type constants for kelindar/event.
const (
	TypeRecordingStarted uint32 = iota + 1
	TypeRecordingStopped
	TypeRecordingFailed
	TypeConversionFinished
	TypeDeviceLost
	TypeDeviceRecovered
	TypeSettingsUpdated
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RecordingStartedEvent is published when a recording session becomes active.
type RecordingStartedEvent struct {
	SessionID string  `json:"session_id" example:"3f1b9e4c" doc:"Recording session identifier"`
	Filename  string  `json:"filename" example:"lockin-20250127-103000.avi" doc:"Capture file name"`
	Fps       float64 `json:"fps" example:"2" doc:"Target recording frame rate"`
	Width     int     `json:"width" example:"640" doc:"Frame width in pixels"`
	Height    int     `json:"height" example:"480" doc:"Frame height in pixels"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStartedEvent.
func (e RecordingStartedEvent) Type() uint32 { return TypeRecordingStarted }

// RecordingStoppedEvent is published when a recording session has finished,
// after any post-processing completed or was skipped.
type RecordingStoppedEvent struct {
	SessionID       string  `json:"session_id" example:"3f1b9e4c" doc:"Recording session identifier"`
	Filename        string  `json:"filename" example:"lockin-20250127-103000.avi" doc:"Final file name"`
	Frames          int     `json:"frames" example:"120" doc:"Number of frames written"`
	DurationSeconds float64 `json:"duration_seconds" example:"60.5" doc:"Wall-clock session length"`
	Converted       bool    `json:"converted" example:"true" doc:"Whether the one-minute conversion succeeded"`
	Timestamp       string  `json:"timestamp" example:"2025-01-27T10:31:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStoppedEvent.
func (e RecordingStoppedEvent) Type() uint32 { return TypeRecordingStopped }

// RecordingFailedEvent is published when a session cannot start or aborts.
type RecordingFailedEvent struct {
	SessionID string `json:"session_id,omitempty" doc:"Session identifier if one was assigned"`
	Message   string `json:"message" example:"Failed to open video writer" doc:"Failure summary"`
	Error     string `json:"error" example:"no usable codec" doc:"Detailed error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingFailedEvent.
func (e RecordingFailedEvent) Type() uint32 { return TypeRecordingFailed }

// ConversionFinishedEvent reports the outcome of the one-minute conversion.
type ConversionFinishedEvent struct {
	SessionID string `json:"session_id" doc:"Recording session identifier"`
	Source    string `json:"source" example:"lockin-20250127-103000.avi" doc:"Capture file name"`
	Output    string `json:"output,omitempty" example:"lockin-20250127-103000_1min.mp4" doc:"Converted file name, empty on failure"`
	Method    string `json:"method" example:"ffmpeg" doc:"Conversion path taken: ffmpeg, reencode, or none"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:31:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConversionFinishedEvent.
func (e ConversionFinishedEvent) Type() uint32 { return TypeConversionFinished }

// DeviceLostEvent is published when the camera stops delivering frames.
type DeviceLostEvent struct {
	DeviceIndex int    `json:"device_index" example:"0" doc:"Camera index"`
	Error       string `json:"error" example:"read failed" doc:"Last read error"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceLostEvent.
func (e DeviceLostEvent) Type() uint32 { return TypeDeviceLost }

// DeviceRecoveredEvent is published when the camera starts delivering frames
// again after a reinitialization.
type DeviceRecoveredEvent struct {
	DeviceIndex int    `json:"device_index" example:"0" doc:"Camera index"`
	Width       int    `json:"width" example:"640" doc:"Negotiated frame width"`
	Height      int    `json:"height" example:"480" doc:"Negotiated frame height"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:05Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceRecoveredEvent.
func (e DeviceRecoveredEvent) Type() uint32 { return TypeDeviceRecovered }

// SettingsUpdatedEvent is published after the capture settings change,
// whether through the API or an external edit of the settings file.
type SettingsUpdatedEvent struct {
	Fps                float64 `json:"fps" example:"2" doc:"Recording frame rate"`
	Width              int     `json:"width" example:"640" doc:"Frame width in pixels"`
	Height             int     `json:"height" example:"480" doc:"Frame height in pixels"`
	ConvertToOneMinute bool    `json:"convert_to_one_minute" example:"true" doc:"Whether finished recordings are retimed to one minute"`
	OutputDirectory    string  `json:"output_directory" example:"recordings" doc:"Directory recordings are written to"`
	Source             string  `json:"source" example:"api" doc:"What triggered the update: api or file"`
	Timestamp          string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingsUpdatedEvent.
func (e SettingsUpdatedEvent) Type() uint32 { return TypeSettingsUpdated }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
