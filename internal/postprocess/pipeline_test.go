package postprocess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/ffmpeg"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
)

type fakeTranscoder struct {
	name         string
	err          error
	calls        []ffmpeg.RetimeParams
	createOutput bool
}

func (t *fakeTranscoder) Name() string { return t.name }

func (t *fakeTranscoder) Transcode(_ context.Context, params ffmpeg.RetimeParams) error {
	t.calls = append(t.calls, params)
	if t.createOutput {
		if err := os.WriteFile(params.OutputPath, []byte("partial"), 0o644); err != nil {
			return err
		}
	}
	return t.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlanRetime(t *testing.T) {
	tests := []struct {
		name       string
		frames     int
		fps        float64
		wantSpeed  float64
		wantOutFps float64
	}{
		{
			name:   "thirty seconds to one minute",
			frames: 300, fps: 10,
			wantSpeed: 0.5, wantOutFps: 5,
		},
		{
			name:   "two minutes to one minute",
			frames: 240, fps: 2,
			wantSpeed: 2, wantOutFps: 4,
		},
		{
			name:   "already one minute",
			frames: 120, fps: 2,
			wantSpeed: 1, wantOutFps: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planRetime(tt.frames, tt.fps, DefaultTargetDuration)
			if err != nil {
				t.Fatalf("planRetime failed: %v", err)
			}
			if plan.speed != tt.wantSpeed {
				t.Errorf("speed = %v, want %v", plan.speed, tt.wantSpeed)
			}
			if plan.outFps != tt.wantOutFps {
				t.Errorf("outFps = %v, want %v", plan.outFps, tt.wantOutFps)
			}
		})
	}
}

func TestPlanRetimeRejectsBadInput(t *testing.T) {
	if _, err := planRetime(0, 10, DefaultTargetDuration); err == nil {
		t.Error("planRetime accepted zero frames")
	}
	if _, err := planRetime(10, 0, DefaultTargetDuration); err == nil {
		t.Error("planRetime accepted zero fps")
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("recordings/lockin-20250127-103000.avi")
	want := "recordings/lockin-20250127-103000_1min.mp4"
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestConvertUsesFirstTranscoder(t *testing.T) {
	primary := &fakeTranscoder{name: "ffmpeg"}
	fallback := &fakeTranscoder{name: "reencode"}
	p := New(testLogger(), WithTranscoders(primary, fallback))

	res, err := p.Convert(context.Background(), recording.ConvertRequest{
		InputPath: filepath.Join(t.TempDir(), "in.avi"),
		Fps:       10,
		Frames:    300,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.Method != "ffmpeg" {
		t.Errorf("Method = %q, want ffmpeg", res.Method)
	}
	if len(primary.calls) != 1 || len(fallback.calls) != 0 {
		t.Errorf("calls = primary %d fallback %d, want 1/0", len(primary.calls), len(fallback.calls))
	}

	params := primary.calls[0]
	if params.SpeedMultiplier != 0.5 || params.OutputFps != 5 {
		t.Errorf("params = speed %v fps %v, want 0.5/5", params.SpeedMultiplier, params.OutputFps)
	}
	if params.OutputPath != res.OutputPath {
		t.Errorf("params output %q != result output %q", params.OutputPath, res.OutputPath)
	}
}

func TestConvertFallsBack(t *testing.T) {
	primary := &fakeTranscoder{name: "ffmpeg", err: errors.New("ffmpeg not available")}
	fallback := &fakeTranscoder{name: "reencode"}
	p := New(testLogger(), WithTranscoders(primary, fallback))

	res, err := p.Convert(context.Background(), recording.ConvertRequest{
		InputPath: filepath.Join(t.TempDir(), "in.avi"),
		Fps:       10,
		Frames:    300,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.Method != "reencode" {
		t.Errorf("Method = %q, want reencode", res.Method)
	}
	if len(fallback.calls) != 1 {
		t.Errorf("fallback invoked %d times, want 1", len(fallback.calls))
	}
}

func TestConvertBothFail(t *testing.T) {
	primary := &fakeTranscoder{name: "ffmpeg", err: errors.New("no ffmpeg")}
	fallback := &fakeTranscoder{name: "reencode", err: errors.New("no codec")}
	p := New(testLogger(), WithTranscoders(primary, fallback))

	_, err := p.Convert(context.Background(), recording.ConvertRequest{
		InputPath: filepath.Join(t.TempDir(), "in.avi"),
		Fps:       10,
		Frames:    300,
	})
	var rerr *recording.Error
	if !errors.As(err, &rerr) || rerr.Code != recording.ErrCodeConversionFailed {
		t.Fatalf("Convert error = %v, want code %s", err, recording.ErrCodeConversionFailed)
	}
}

func TestConvertRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	failing := &fakeTranscoder{name: "ffmpeg", err: errors.New("encoder crashed"), createOutput: true}
	p := New(testLogger(), WithTranscoders(failing))

	input := filepath.Join(dir, "in.avi")
	_, err := p.Convert(context.Background(), recording.ConvertRequest{
		InputPath: input,
		Fps:       10,
		Frames:    300,
	})
	if err == nil {
		t.Fatal("Convert should have failed")
	}
	if _, statErr := os.Stat(OutputPath(input)); !os.IsNotExist(statErr) {
		t.Error("partial conversion output was left behind")
	}
}

func TestConvertRejectsEmptyCapture(t *testing.T) {
	p := New(testLogger(), WithTranscoders(&fakeTranscoder{name: "ffmpeg"}))

	_, err := p.Convert(context.Background(), recording.ConvertRequest{InputPath: "in.avi", Fps: 10, Frames: 0})
	var rerr *recording.Error
	if !errors.As(err, &rerr) || rerr.Code != recording.ErrCodeConversionFailed {
		t.Fatalf("Convert error = %v, want code %s", err, recording.ErrCodeConversionFailed)
	}
}

func TestConvertHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(testLogger(), WithTranscoders(&fakeTranscoder{name: "ffmpeg"}))

	_, err := p.Convert(ctx, recording.ConvertRequest{InputPath: "in.avi", Fps: 10, Frames: 300})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert error = %v, want context.Canceled", err)
	}
}

func TestWithTargetDuration(t *testing.T) {
	primary := &fakeTranscoder{name: "ffmpeg"}
	p := New(testLogger(), WithTranscoders(primary), WithTargetDuration(30*time.Second))

	if _, err := p.Convert(context.Background(), recording.ConvertRequest{
		InputPath: filepath.Join(t.TempDir(), "in.avi"),
		Fps:       10,
		Frames:    300,
	}); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	// 30s of frames against a 30s target means no speed change.
	if params := primary.calls[0]; params.SpeedMultiplier != 1 || params.OutputFps != 10 {
		t.Errorf("params = speed %v fps %v, want 1/10", params.SpeedMultiplier, params.OutputFps)
	}
}

func TestFFmpegTranscoderWithoutBinary(t *testing.T) {
	tr := NewFFmpegTranscoder(testLogger(), testLogger())
	tr.lookPath = func(string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}

	err := tr.Transcode(context.Background(), ffmpeg.RetimeParams{
		InputPath:       "in.avi",
		OutputPath:      "out.mp4",
		SpeedMultiplier: 1,
		OutputFps:       2,
	})
	if err == nil {
		t.Fatal("Transcode should fail when ffmpeg is missing")
	}
}
