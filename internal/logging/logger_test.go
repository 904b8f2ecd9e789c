package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetLoggingState(t *testing.T) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetLoggingState(t)

	// Global info level, capture at debug, api at warn
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"capture": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"capture", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestMultiHandlerWritesOnce(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(debugHandler, infoHandler)
	logger := slog.New(multi).With("module", "test")

	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetLoggingState(t)

	// Before Initialize the default is info
	loggerBefore := GetLogger("recording")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should not have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"recording": "debug",
		},
	})

	// The LevelVar is shared, so even stale references pick up the new level
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("pre-Initialize logger should have debug enabled after Initialize")
	}

	// Initialize rebuilds the cached logger so it gains the ring buffer
	GetLogger("recording").Debug("level probe")
	buffer := GetBuffer()
	if buffer == nil || buffer.Count() == 0 {
		t.Error("rebuilt logger should write to the ring buffer")
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	resetLoggingState(t)

	Initialize(Config{Level: "debug", Format: "text"})

	var got []LogEntry
	SetLogCallback(func(entry LogEntry) {
		got = append(got, entry)
	})

	logger := GetLogger("capture")
	logger.Info("frame published", "bytes", 1024)

	buffer := GetBuffer()
	if buffer == nil {
		t.Fatal("expected ring buffer after Initialize")
	}

	entries := buffer.ReadAll()
	if len(entries) == 0 {
		t.Fatal("expected at least one buffered entry")
	}
	last := entries[len(entries)-1]
	if last.Module != "capture" {
		t.Errorf("module = %q, want capture", last.Module)
	}
	if last.Message != "frame published" {
		t.Errorf("message = %q, want frame published", last.Message)
	}
	if last.Level != "info" {
		t.Errorf("level = %q, want info", last.Level)
	}
	if len(got) == 0 {
		t.Error("log callback was not invoked")
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}

	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("count = %d, want 3", len(entries))
	}
	want := []string{"c", "d", "e"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
			} else {
				if got == nil {
					t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
				} else if *got != tt.want {
					t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
				}
			}
		})
	}
}
