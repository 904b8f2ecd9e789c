package ffmpeg

// RetimeParams represents all parameters needed to generate a retime
// command: the recorded clip is replayed faster or slower so it lands on
// a fixed wall-clock duration while keeping every captured frame.
type RetimeParams struct {
	// Input/Output
	InputPath  string
	OutputPath string

	// SpeedMultiplier is actualDuration divided by targetDuration.
	// Values above 1 speed playback up. setpts scales presentation
	// timestamps by its reciprocal.
	SpeedMultiplier float64

	// OutputFps is the capture fps scaled by SpeedMultiplier so the
	// retimed stream still contains every recorded frame.
	OutputFps float64

	// Encoder Configuration
	Encoder string // libx264 when empty
	Preset  string // medium when empty
	CRF     int    // 0 = use the default of 23

	// Behavior Options
	Options []OptionType
}
