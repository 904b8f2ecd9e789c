package logging

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// LogCallback is invoked for each new log entry. Used to publish log
// events without creating import cycles.
type LogCallback func(entry LogEntry)

// BufferHandler is a slog.Handler that captures records into the ring
// buffer and feeds the registered log callback.
type BufferHandler struct {
	buffer *RingBuffer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewBufferHandler creates a handler writing to the given ring buffer.
func NewBufferHandler(buffer *RingBuffer, level slog.Leveler) *BufferHandler {
	return &BufferHandler{buffer: buffer, level: level}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Timestamp:  r.Time,
		Level:      levelName(r.Level),
		Module:     "app",
		Attributes: make(map[string]any),
		Message:    r.Message,
	}

	// The module attribute becomes the entry's module field, everything
	// else lands in the flat attribute map
	collect := func(a slog.Attr) bool {
		if a.Key == "module" {
			entry.Module = a.Value.String()
		} else {
			addAttr(entry.Attributes, h.groups, a)
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	h.buffer.Write(entry)

	// Looked up per record so subscribers registered after this handler
	// chain was built still receive entries
	if cb := getLogCallback(); cb != nil {
		cb(entry)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &BufferHandler{
		buffer: h.buffer,
		level:  h.level,
		attrs:  merged,
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &BufferHandler{
		buffer: h.buffer,
		level:  h.level,
		attrs:  h.attrs,
		groups: groups,
	}
}

// addAttr records an attribute under a dotted key reflecting its group
// path. Times, durations, and errors are rendered to strings so the
// entries serialize cleanly.
func addAttr(attrs map[string]any, groups []string, a slog.Attr) {
	if a.Value.Kind() == slog.KindGroup {
		nested := append(slices.Clone(groups), a.Key)
		for _, member := range a.Value.Group() {
			addAttr(attrs, nested, member)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	switch a.Value.Kind() {
	case slog.KindTime:
		attrs[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			attrs[key] = err.Error()
		} else {
			attrs[key] = a.Value.Any()
		}
	default:
		attrs[key] = a.Value.Any()
	}
}

// levelName maps an slog.Level to its lowercase name.
func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
