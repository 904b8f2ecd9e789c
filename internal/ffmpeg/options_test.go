package ffmpeg

import (
	"strings"
	"testing"
)

func TestBuildRetimeCommand(t *testing.T) {
	tests := []struct {
		name   string
		params RetimeParams
		want   string
	}{
		{
			name: "thirty second clip to one minute",
			params: RetimeParams{
				InputPath:       "recordings/lockin-20250127-103000.avi",
				OutputPath:      "recordings/lockin-20250127-103000_1min.mp4",
				SpeedMultiplier: 0.5,
				OutputFps:       5,
			},
			want: "ffmpeg -hide_banner -loglevel level+info" +
				" -i recordings/lockin-20250127-103000.avi" +
				" -filter:v setpts=2*PTS -r 5" +
				" -c:v libx264 -preset medium -crf 23" +
				" recordings/lockin-20250127-103000_1min.mp4",
		},
		{
			name: "two minute clip to one minute",
			params: RetimeParams{
				InputPath:       "in.avi",
				OutputPath:      "out.mp4",
				SpeedMultiplier: 2,
				OutputFps:       4,
			},
			want: "ffmpeg -hide_banner -loglevel level+info" +
				" -i in.avi -filter:v setpts=0.5*PTS -r 4" +
				" -c:v libx264 -preset medium -crf 23 out.mp4",
		},
		{
			name: "custom encoder settings",
			params: RetimeParams{
				InputPath:       "in.avi",
				OutputPath:      "out.mp4",
				SpeedMultiplier: 1,
				OutputFps:       2,
				Encoder:         "libx265",
				Preset:          "fast",
				CRF:             28,
			},
			want: "ffmpeg -hide_banner -loglevel level+info" +
				" -i in.avi -filter:v setpts=1*PTS -r 2" +
				" -c:v libx265 -preset fast -crf 28 out.mp4",
		},
		{
			name: "default behavior options",
			params: RetimeParams{
				InputPath:       "in.avi",
				OutputPath:      "out.mp4",
				SpeedMultiplier: 0.25,
				OutputFps:       0.5,
				Options:         GetDefaultOptions(),
			},
			want: "ffmpeg -hide_banner -loglevel level+info" +
				" -i in.avi -filter:v setpts=4*PTS -r 0.5" +
				" -c:v libx264 -preset medium -crf 23" +
				" -y -an -movflags +faststart out.mp4",
		},
		{
			name: "paths with spaces are quoted",
			params: RetimeParams{
				InputPath:       "my recordings/in.avi",
				OutputPath:      "my recordings/out.mp4",
				SpeedMultiplier: 1,
				OutputFps:       2,
			},
			want: "ffmpeg -hide_banner -loglevel level+info" +
				` -i "my recordings/in.avi" -filter:v setpts=1*PTS -r 2` +
				` -c:v libx264 -preset medium -crf 23 "my recordings/out.mp4"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildRetimeCommand(&tt.params); got != tt.want {
				t.Errorf("BuildRetimeCommand() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestGetDefaultOptions(t *testing.T) {
	defaults := GetDefaultOptions()

	want := []OptionType{OptionOverwrite, OptionStripAudio, OptionFastStart}
	if len(defaults) != len(want) {
		t.Fatalf("GetDefaultOptions() returned %d options, want %d", len(defaults), len(want))
	}
	for i, opt := range want {
		if defaults[i] != opt {
			t.Errorf("GetDefaultOptions()[%d] = %s, want %s", i, defaults[i], opt)
		}
	}
}

func TestGetOptionByKey(t *testing.T) {
	opt := GetOptionByKey(OptionFastStart)
	if opt == nil {
		t.Fatal("GetOptionByKey(OptionFastStart) returned nil")
	}
	if opt.Name != "Fast Start" {
		t.Errorf("option name = %q, want Fast Start", opt.Name)
	}

	if GetOptionByKey("no_such_option") != nil {
		t.Error("GetOptionByKey for unknown key should return nil")
	}
}

func TestGetOptionsByCategory(t *testing.T) {
	categories := GetOptionsByCategory()

	if got := len(categories[CategoryOutput]); got != 3 {
		t.Errorf("%s category has %d options, want 3", CategoryOutput, got)
	}
	if got := len(categories[CategoryTiming]); got != 1 {
		t.Errorf("%s category has %d options, want 1", CategoryTiming, got)
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		options []OptionType
		wantErr bool
	}{
		{
			name:    "empty selection",
			options: nil,
			wantErr: false,
		},
		{
			name:    "all defaults",
			options: GetDefaultOptions(),
			wantErr: false,
		},
		{
			name:    "full catalog",
			options: []OptionType{OptionOverwrite, OptionStripAudio, OptionFastStart, OptionAvoidNegativeTS},
			wantErr: false,
		},
		{
			name:    "unknown option",
			options: []OptionType{OptionOverwrite, "warp_speed"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOptions(tt.options)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOptions(%v) error = %v, wantErr %v", tt.options, err, tt.wantErr)
			}
		})
	}
}

func TestApplyOptionsToCommand(t *testing.T) {
	var cmd strings.Builder
	applied := ApplyOptionsToCommand([]OptionType{OptionOverwrite, OptionAvoidNegativeTS}, &cmd)

	if len(applied) != 2 {
		t.Fatalf("applied %d options, want 2", len(applied))
	}
	want := " -y -avoid_negative_ts make_zero"
	if cmd.String() != want {
		t.Errorf("command fragment = %q, want %q", cmd.String(), want)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "plain line defaults to info",
			line:      "frame=  120 fps=30",
			wantLevel: "info",
			wantMsg:   "frame=  120 fps=30",
		},
		{
			name:      "level prefix",
			line:      "[error] Invalid data found when processing input",
			wantLevel: "error",
			wantMsg:   "Invalid data found when processing input",
		},
		{
			name:      "component prefix keeps component",
			line:      "[libx264 @ 0x5654] [warning] VBV underflow",
			wantLevel: "warning",
			wantMsg:   "[libx264 @ 0x5654] VBV underflow",
		},
		{
			name:      "unknown bracket is not a level",
			line:      "[mp4 @ 0x1234] muxing overhead",
			wantLevel: "info",
			wantMsg:   "[mp4 @ 0x1234] muxing overhead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, msg := ParseLogLevel(tt.line)
			if level != tt.wantLevel || msg != tt.wantMsg {
				t.Errorf("ParseLogLevel(%q) = (%q, %q), want (%q, %q)",
					tt.line, level, msg, tt.wantLevel, tt.wantMsg)
			}
		})
	}
}
