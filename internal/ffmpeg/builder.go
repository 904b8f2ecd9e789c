package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Encoder defaults for the retime job. libx264 at CRF 23 with the
// medium preset is the portable baseline every ffmpeg build carries.
const (
	DefaultEncoder = "libx264"
	DefaultPreset  = "medium"
	DefaultCRF     = 23
)

// Base returns the ffmpeg command with standard flags. The level+info
// log format is what ParseLogLevel expects on stderr.
func Base() string {
	return "ffmpeg -hide_banner -loglevel level+info"
}

// BuildRetimeCommand builds the ffmpeg command for a retime job from
// structured parameters. The caller is responsible for a sane
// SpeedMultiplier; validation lives with the conversion pipeline.
func BuildRetimeCommand(p *RetimeParams) string {
	encoder := p.Encoder
	if encoder == "" {
		encoder = DefaultEncoder
	}
	preset := p.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := p.CRF
	if crf <= 0 {
		crf = DefaultCRF
	}

	var cmd strings.Builder
	cmd.WriteString(Base())
	cmd.WriteString(" -i " + quotePath(p.InputPath))

	// Retime: rescale every PTS, then resample to the matching rate so
	// the output carries the same frames at the new timing.
	cmd.WriteString(" -filter:v setpts=" + formatFloat(1/p.SpeedMultiplier) + "*PTS")
	cmd.WriteString(" -r " + formatFloat(p.OutputFps))

	cmd.WriteString(" -c:v " + encoder)
	cmd.WriteString(" -preset " + preset)
	cmd.WriteString(fmt.Sprintf(" -crf %d", crf))

	ApplyOptionsToCommand(p.Options, &cmd)

	cmd.WriteString(" " + quotePath(p.OutputPath))
	return cmd.String()
}

// formatFloat renders a float without a fixed precision, so whole
// numbers stay short (2 not 2.000000).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// quotePath quotes paths containing whitespace so the command survives
// shell-style splitting.
func quotePath(p string) string {
	if strings.ContainsAny(p, " \t") {
		return `"` + p + `"`
	}
	return p
}
