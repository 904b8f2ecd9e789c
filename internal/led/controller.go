package led

// Controller abstracts board LED control. The recorder uses one LED as a
// recording indicator and exposes the rest through the API, so
// implementations cover whatever the board's sysfs tree offers.
type Controller interface {
	// Set turns an LED on or off and optionally applies a pattern.
	// ledType is the board-specific identifier (for example "act" on a
	// Raspberry Pi), pattern is one of the names from Patterns or a raw
	// kernel trigger, and an empty pattern leaves the trigger untouched.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the LED types this board exposes.
	Available() []string

	// Patterns returns the pattern names Set understands.
	Patterns() []string
}
