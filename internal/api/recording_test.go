package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/api/models"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestStartRecording(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.startResult = recording.StartResult{
		SessionID: "abc12345",
		Path:      "recordings/lockin-20250127-103000.avi",
		Fps:       2,
		Width:     640,
		Height:    480,
		StartedAt: time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
	}

	resp := postJSON(t, env.ts.URL+"/start_recording", `{"fps": 5, "width": 1280, "height": 720}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	body := decodeBody[models.StartRecordingData](t, resp)
	if body.Status != "success" {
		t.Errorf("Expected success status, got %q", body.Status)
	}
	if body.Filename != "lockin-20250127-103000.avi" {
		t.Errorf("Expected base filename, got %q", body.Filename)
	}
	if body.SessionID != "abc12345" {
		t.Errorf("Expected session id echoed, got %q", body.SessionID)
	}

	env.recorder.mu.Lock()
	defer env.recorder.mu.Unlock()
	if len(env.recorder.startCalls) != 1 {
		t.Fatalf("Expected 1 start call, got %d", len(env.recorder.startCalls))
	}
	opts := env.recorder.startCalls[0]
	if opts.Fps != 5 || opts.Width != 1280 || opts.Height != 720 {
		t.Errorf("Overrides not forwarded: %+v", opts)
	}
	if opts.Convert != nil {
		t.Errorf("Expected nil convert override, got %v", *opts.Convert)
	}
}

func TestStartRecordingWhileActive(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.startErr = recording.NewError(recording.ErrCodeAlreadyRecording, "Recording already in progress", nil)

	resp := postJSON(t, env.ts.URL+"/start_recording", `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", resp.StatusCode)
	}
}

func TestStartRecordingInvalidParams(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.startErr = recording.NewError(recording.ErrCodeInvalidParams, "Frame rate must be positive", nil)

	resp := postJSON(t, env.ts.URL+"/start_recording", `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestStartRecordingWriterFailure(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.startErr = recording.NewError(recording.ErrCodeWriterInit, "Failed to open video writer", nil)

	resp := postJSON(t, env.ts.URL+"/start_recording", `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestStopRecording(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.stopResult = recording.StopResult{
		SessionID: "abc12345",
		Path:      "recordings/lockin-20250127-103000_1min.mp4",
		Frames:    120,
		Duration:  90 * time.Second,
		Converted: true,
	}

	resp := postJSON(t, env.ts.URL+"/stop_recording", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	body := decodeBody[models.StopRecordingData](t, resp)
	if body.Filename != "lockin-20250127-103000_1min.mp4" {
		t.Errorf("Expected converted filename, got %q", body.Filename)
	}
	if !body.Converted {
		t.Error("Expected converted=true")
	}
	if body.Frames != 120 {
		t.Errorf("Expected 120 frames, got %d", body.Frames)
	}
	if body.Duration != 90 {
		t.Errorf("Expected 90 second duration, got %v", body.Duration)
	}
	if !strings.Contains(body.Message, "converted") {
		t.Errorf("Expected conversion mentioned in message, got %q", body.Message)
	}
}

func TestStopRecordingWhileIdle(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.stopErr = recording.NewError(recording.ErrCodeNotRecording, "No recording in progress", nil)

	resp := postJSON(t, env.ts.URL+"/stop_recording", `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", resp.StatusCode)
	}
}

func TestStopRecordingUnconverted(t *testing.T) {
	env := newTestEnv(t, "", "")
	env.recorder.stopResult = recording.StopResult{
		SessionID: "abc12345",
		Path:      "recordings/lockin-20250127-103000.avi",
		Frames:    12,
		Duration:  6 * time.Second,
		Converted: false,
	}

	resp := postJSON(t, env.ts.URL+"/stop_recording", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	body := decodeBody[models.StopRecordingData](t, resp)
	if body.Converted {
		t.Error("Expected converted=false")
	}
	if body.Filename != "lockin-20250127-103000.avi" {
		t.Errorf("Expected raw capture filename, got %q", body.Filename)
	}
}
