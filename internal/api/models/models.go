package models

import (
	"github.com/KaiStephens/lockInRecorder/internal/capture"
	"github.com/KaiStephens/lockInRecorder/internal/ffmpeg"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
	"github.com/KaiStephens/lockInRecorder/internal/recordings"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:00:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Status models
type StatusData struct {
	Recording recording.Status   `json:"recording" doc:"Recording session snapshot"`
	Camera    capture.CameraInfo `json:"camera" doc:"Camera device state"`
	Viewers   int64              `json:"viewers" example:"1" doc:"Connected live feed viewers"`
}

type StatusResponse struct {
	Body StatusData
}

// Recording control models
type StartRecordingParams struct {
	OutputDirectory    string   `json:"output_directory,omitempty" example:"recordings" doc:"Directory override for this session"`
	Fps                *float64 `json:"fps,omitempty" minimum:"0" maximum:"120" example:"2" doc:"Target frame rate override"`
	Width              *int     `json:"width,omitempty" minimum:"0" example:"640" doc:"Frame width override"`
	Height             *int     `json:"height,omitempty" minimum:"0" example:"480" doc:"Frame height override"`
	ConvertToOneMinute *bool    `json:"convert_to_one_minute,omitempty" example:"true" doc:"Whether to retime the finished file to one minute"`
}

type StartRecordingRequest struct {
	Body StartRecordingParams
}

type StartRecordingData struct {
	Status    string `json:"status" example:"success" doc:"Operation outcome"`
	Message   string `json:"message" example:"Recording started" doc:"Human-readable summary"`
	Filename  string `json:"filename" example:"lockin-20250127-103000.avi" doc:"Capture file name"`
	SessionID string `json:"session_id" example:"3f1b9e4c" doc:"Recording session identifier"`
}

type StartRecordingResponse struct {
	Body StartRecordingData
}

type StopRecordingData struct {
	Status    string  `json:"status" example:"success" doc:"Operation outcome"`
	Message   string  `json:"message" example:"Recording stopped" doc:"Human-readable summary"`
	Filename  string  `json:"filename" example:"lockin-20250127-103000_1min.mp4" doc:"Final file name, converted when conversion succeeded"`
	Frames    int     `json:"frames" example:"120" doc:"Frames written to the capture"`
	Duration  float64 `json:"duration_seconds" example:"60.5" doc:"Wall-clock session length in seconds"`
	Converted bool    `json:"converted" example:"true" doc:"Whether the one-minute conversion succeeded"`
}

type StopRecordingResponse struct {
	Body StopRecordingData
}

// Settings models
type SettingsData struct {
	Fps                float64 `json:"fps" example:"2" doc:"Recording frame rate"`
	Width              int     `json:"width" example:"640" doc:"Frame width in pixels"`
	Height             int     `json:"height" example:"480" doc:"Frame height in pixels"`
	ConvertToOneMinute bool    `json:"convert_to_one_minute" example:"true" doc:"Whether finished recordings are retimed to one minute"`
	OutputDirectory    string  `json:"output_directory" example:"recordings" doc:"Directory recordings are written to"`
}

type SettingsResponse struct {
	Body SettingsData
}

type UpdateSettingsParams struct {
	Fps                *float64 `json:"fps,omitempty" minimum:"0" maximum:"120" example:"2" doc:"Recording frame rate"`
	Width              *int     `json:"width,omitempty" minimum:"0" example:"640" doc:"Frame width in pixels"`
	Height             *int     `json:"height,omitempty" minimum:"0" example:"480" doc:"Frame height in pixels"`
	ConvertToOneMinute *bool    `json:"convert_to_one_minute,omitempty" example:"true" doc:"Whether finished recordings are retimed to one minute"`
	OutputDirectory    *string  `json:"output_directory,omitempty" example:"recordings" doc:"Directory recordings are written to"`
}

type UpdateSettingsRequest struct {
	Body UpdateSettingsParams
}

// Recordings library models
type RecordingsListData struct {
	Recordings []recordings.Entry `json:"recordings" doc:"Recording files, newest first"`
	Count      int                `json:"count" example:"2" doc:"Number of recording files"`
}

type RecordingsListResponse struct {
	Body RecordingsListData
}

type DeleteRecordingParams struct {
	Filename string `json:"filename" minLength:"1" example:"lockin-20250127-103000.avi" doc:"Recording file name to delete"`
}

type DeleteRecordingRequest struct {
	Body DeleteRecordingParams
}

type DeleteRecordingData struct {
	Status   string `json:"status" example:"success" doc:"Operation outcome"`
	Message  string `json:"message" example:"Recording deleted" doc:"Human-readable summary"`
	Filename string `json:"filename" example:"lockin-20250127-103000.avi" doc:"Deleted file name"`
}

type DeleteRecordingResponse struct {
	Body DeleteRecordingData
}

// Conversion option models
type OptionsData struct {
	Options []ffmpeg.Option `json:"options" doc:"Conversion options with metadata"`
}

type OptionsResponse struct {
	Body OptionsData
}
