package ffmpeg

import (
	"fmt"
	"slices"
	"strings"
)

// OptionType names one toggleable ffmpeg behavior.
type OptionType string

const (
	OptionOverwrite       OptionType = "overwrite"
	OptionStripAudio      OptionType = "strip_audio"
	OptionFastStart       OptionType = "faststart"
	OptionAvoidNegativeTS OptionType = "avoid_negative_ts"
)

// OptionCategory groups related options for display.
type OptionCategory string

const (
	CategoryOutput OptionCategory = "Output"
	CategoryTiming OptionCategory = "Timing"
)

// Option describes one conversion flag with enough metadata for the
// settings UI to render it.
type Option struct {
	Key           OptionType     `json:"key"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      OptionCategory `json:"category"`
	AppDefault    bool           `json:"app_default"`              // Application default
	FFmpegDefault string         `json:"ffmpeg_default"`           // FFmpeg's actual default value
	ConflictsWith []OptionType   `json:"conflicts_with,omitempty"` // Options that may conflict
}

// AllOptions is the catalog of conversion flags the retime pipeline knows.
var AllOptions = []Option{
	{
		Key:           OptionOverwrite,
		Name:          "Overwrite Output",
		Description:   "Replace the output file if it already exists instead of prompting",
		Category:      CategoryOutput,
		AppDefault:    true,
		FFmpegDefault: "prompt",
	},
	{
		Key:           OptionStripAudio,
		Name:          "Strip Audio",
		Description:   "Drop audio streams; captures are video-only and a stray track breaks retiming",
		Category:      CategoryOutput,
		AppDefault:    true,
		FFmpegDefault: "copied",
	},
	{
		Key:           OptionFastStart,
		Name:          "Fast Start",
		Description:   "Move the MP4 index to the front so browsers can play before the download finishes",
		Category:      CategoryOutput,
		AppDefault:    true,
		FFmpegDefault: "disabled",
	},
	{
		Key:           OptionAvoidNegativeTS,
		Name:          "Avoid Negative Timestamps",
		Description:   "Clamp timestamps so they never go negative after the speed change",
		Category:      CategoryTiming,
		AppDefault:    false,
		FFmpegDefault: "auto",
	},
}

// optionFlags maps each catalog entry to the argument text it appends.
var optionFlags = map[OptionType]string{
	OptionOverwrite:       " -y",
	OptionStripAudio:      " -an",
	OptionFastStart:       " -movflags +faststart",
	OptionAvoidNegativeTS: " -avoid_negative_ts make_zero",
}

// GetOptionByKey finds a catalog entry, or nil for an unknown key.
func GetOptionByKey(key OptionType) *Option {
	i := slices.IndexFunc(AllOptions, func(o Option) bool { return o.Key == key })
	if i < 0 {
		return nil
	}
	return &AllOptions[i]
}

// GetOptionsByCategory splits the catalog into its display groups.
func GetOptionsByCategory() map[OptionCategory][]Option {
	grouped := make(map[OptionCategory][]Option)
	for _, opt := range AllOptions {
		grouped[opt.Category] = append(grouped[opt.Category], opt)
	}
	return grouped
}

// ValidateOptions rejects unknown keys and mutually exclusive pairs.
func ValidateOptions(selected []OptionType) error {
	chosen := make(map[OptionType]*Option, len(selected))
	for _, key := range selected {
		opt := GetOptionByKey(key)
		if opt == nil {
			return fmt.Errorf("unknown option '%s'", key)
		}
		chosen[key] = opt
	}

	for _, opt := range chosen {
		for _, other := range opt.ConflictsWith {
			if conflict, picked := chosen[other]; picked {
				return fmt.Errorf("option '%s' conflicts with '%s'", opt.Name, conflict.Name)
			}
		}
	}
	return nil
}

// GetDefaultOptions lists the keys enabled out of the box, in catalog order.
func GetDefaultOptions() []OptionType {
	var keys []OptionType
	for _, opt := range AllOptions {
		if opt.AppDefault {
			keys = append(keys, opt.Key)
		}
	}
	return keys
}

// ApplyOptionsToCommand writes the selected flags onto cmd in order and
// reports which ones were recognized. Every catalog flag is an output
// option and belongs before the output path.
func ApplyOptionsToCommand(options []OptionType, cmd *strings.Builder) []OptionType {
	var applied []OptionType
	for _, key := range options {
		flag, ok := optionFlags[key]
		if !ok {
			continue
		}
		cmd.WriteString(flag)
		applied = append(applied, key)
	}
	return applied
}
