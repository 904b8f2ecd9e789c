package ffmpeg

import "strings"

// ffmpeg's -loglevel level names, lowest to highest verbosity.
var logLevels = map[string]bool{
	"quiet":   true,
	"panic":   true,
	"fatal":   true,
	"error":   true,
	"warning": true,
	"info":    true,
	"verbose": true,
	"debug":   true,
	"trace":   true,
}

// ParseLogLevel classifies a line of ffmpeg stderr output. With
// "-loglevel level+info" lines arrive as "[info] message" or, for
// component logs, "[component @ 0x...] [level] message". The returned
// message has the level tag stripped but keeps the component tag, and
// untagged lines default to info.
func ParseLogLevel(line string) (level, msg string) {
	tag, rest, ok := splitBracket(line)
	if !ok {
		return "info", line
	}

	if logLevels[tag] {
		return tag, rest
	}

	// First tag names a component, the level may follow it
	if innerTag, innerRest, innerOK := splitBracket(rest); innerOK && logLevels[innerTag] {
		return innerTag, "[" + tag + "] " + innerRest
	}

	return "info", line
}

// splitBracket splits a leading "[tag] " prefix off a line.
func splitBracket(line string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	end := strings.Index(line, "] ")
	if end == -1 {
		return "", "", false
	}
	return line[1:end], line[end+2:], true
}
