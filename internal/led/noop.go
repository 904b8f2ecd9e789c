package led

import "github.com/KaiStephens/lockInRecorder/internal/logging"

// noop satisfies Controller on hosts without controllable LEDs. Requests
// are logged at debug level and otherwise ignored.
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	if n.logger != nil {
		n.logger.Debug("LED control not available",
			"led_type", ledType,
			"enabled", enabled,
			"pattern", pattern)
	}
	return nil
}

func (n *noop) Available() []string {
	return []string{}
}

func (n *noop) Patterns() []string {
	return []string{}
}
