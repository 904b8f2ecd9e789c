package led

import (
	"os"
	"strings"

	"github.com/KaiStephens/lockInRecorder/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boardProfile maps a device tree model substring to the LEDs the board
// exposes under /sys/class/leds.
type boardProfile struct {
	match string
	leds  map[string]string
}

// Order matters: the first matching profile wins.
var boardProfiles = []boardProfile{
	{
		match: "Raspberry Pi",
		leds:  map[string]string{"act": "ACT"},
	},
	{
		match: "NanoPC-T6",
		leds:  map[string]string{"user": "usr_led", "system": "sys_led"},
	},
	{
		match: "Orange Pi",
		leds:  map[string]string{"blue": "blue_led", "green": "green_led"},
	},
}

// New detects the board and returns a matching LED controller, falling
// back to a no-op controller when the board is unknown.
func New(logger logging.Logger) Controller {
	model := detectBoard()

	for _, profile := range boardProfiles {
		if strings.Contains(model, profile.match) {
			if logger != nil {
				logger.Info("Detected board with LED support",
					"board_model", model,
					"leds", len(profile.leds))
			}
			return newSysfs(profile.leds)
		}
	}

	if logger != nil {
		logger.Info("No LED support detected, using no-op controller", "board_model", model)
	}
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model strings are null terminated
	return strings.TrimRight(string(data), "\x00")
}
