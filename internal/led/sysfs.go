package led

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const sysfsLEDPath = "/sys/class/leds"

// Blink timing for the sysfs timer trigger, in milliseconds.
const (
	blinkOnMs  = "500"
	blinkOffMs = "500"
)

// sysfs implements Controller through the Linux sysfs LED interface.
// Each logical LED type maps to a directory under root containing the
// usual brightness and trigger attribute files.
type sysfs struct {
	root string
	leds map[string]string
}

// newSysfs creates a sysfs LED controller with board-specific LED mappings.
func newSysfs(leds map[string]string) *sysfs {
	return &sysfs{
		root: sysfsLEDPath,
		leds: leds,
	}
}

// Set applies a state and optional pattern to an LED.
func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	name, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}

	ledPath := filepath.Join(s.root, name)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s", ledType, ledPath)
	}

	if pattern != "" {
		if err := s.applyPattern(name, pattern); err != nil {
			return err
		}
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	if err := s.writeAttr(name, "brightness", brightness); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}

	return nil
}

// applyPattern translates a pattern name into a kernel trigger. Unknown
// patterns pass through as raw trigger names so callers can use whatever
// the board exposes.
func (s *sysfs) applyPattern(name, pattern string) error {
	switch pattern {
	case "solid":
		// Manual brightness control, no trigger
		if err := s.writeAttr(name, "trigger", "none"); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
	case "blink":
		if err := s.writeAttr(name, "trigger", "timer"); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
		// The timer trigger creates the delay files on activation and
		// falls back to its own defaults when they cannot be written
		_ = s.writeAttr(name, "delay_on", blinkOnMs)
		_ = s.writeAttr(name, "delay_off", blinkOffMs)
	case "heartbeat":
		if err := s.writeAttr(name, "trigger", "heartbeat"); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
	default:
		if err := s.writeAttr(name, "trigger", pattern); err != nil {
			return fmt.Errorf("failed to set LED trigger %q: %w", pattern, err)
		}
	}
	return nil
}

func (s *sysfs) writeAttr(name, attr, value string) error {
	return os.WriteFile(filepath.Join(s.root, name, attr), []byte(value), 0o644)
}

// Available returns the LED types this board exposes, sorted for stable
// API responses.
func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	slices.Sort(types)
	return types
}

// Patterns returns the pattern names Set understands.
func (s *sysfs) Patterns() []string {
	return []string{"solid", "blink", "heartbeat"}
}
