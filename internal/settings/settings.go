// Package settings holds the capture settings shared by the HTTP API, the
// capture loop, and recording sessions. Settings persist to a flat JSON file
// and can be edited externally; a file watcher picks up those edits.
package settings

import (
	"errors"
	"fmt"
)

// ErrInvalid wraps all settings validation failures.
var ErrInvalid = errors.New("invalid settings")

// Settings are the user-tunable capture parameters.
type Settings struct {
	Fps                float64 `json:"fps"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	ConvertToOneMinute bool    `json:"convert_to_one_minute"`
	OutputDirectory    string  `json:"output_directory"`
}

// Defaults returns the out-of-the-box settings: 2 fps at 640x480 with
// one-minute conversion enabled.
func Defaults() Settings {
	return Settings{
		Fps:                2,
		Width:              640,
		Height:             480,
		ConvertToOneMinute: true,
		OutputDirectory:    "recordings",
	}
}

// Validate checks that the settings are usable for recording.
func (s Settings) Validate() error {
	if s.Fps <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %v", ErrInvalid, s.Fps)
	}
	if s.Fps > 120 {
		return fmt.Errorf("%w: fps must be at most 120, got %v", ErrInvalid, s.Fps)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: resolution must be positive, got %dx%d", ErrInvalid, s.Width, s.Height)
	}
	if s.OutputDirectory == "" {
		return fmt.Errorf("%w: output directory must not be empty", ErrInvalid)
	}
	return nil
}

// Patch is a partial settings update; nil fields keep their current value.
type Patch struct {
	Fps                *float64
	Width              *int
	Height             *int
	ConvertToOneMinute *bool
	OutputDirectory    *string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Fps == nil && p.Width == nil && p.Height == nil &&
		p.ConvertToOneMinute == nil && p.OutputDirectory == nil
}

// apply merges the patch onto s and returns the result.
func (p Patch) apply(s Settings) Settings {
	if p.Fps != nil {
		s.Fps = *p.Fps
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.ConvertToOneMinute != nil {
		s.ConvertToOneMinute = *p.ConvertToOneMinute
	}
	if p.OutputDirectory != nil {
		s.OutputDirectory = *p.OutputDirectory
	}
	return s
}
