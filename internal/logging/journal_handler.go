package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// syslogIdentifier tags every journal entry so `journalctl -t lockinrecorder` works.
const syslogIdentifier = "lockinrecorder"

// JournalHandler is a slog.Handler that writes records to the systemd
// journal, mapping slog attributes onto journal fields.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a journal handler filtering below level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	priority := journalPriority(r.Level)

	fields := map[string]string{
		"PRIORITY":          strconv.Itoa(int(priority)),
		"MESSAGE":           r.Message,
		"SYSLOG_IDENTIFIER": syslogIdentifier,
	}

	for _, attr := range h.attrs {
		collectField(fields, h.groups, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		collectField(fields, h.groups, attr)
		return true
	})

	if err := journal.Send(r.Message, priority, fields); err != nil {
		// Journald went away underneath us, leave a trace on stderr
		fmt.Fprintf(os.Stderr, "Failed to send to journal: %v\n", err)
		return err
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JournalHandler{
		level:  h.level,
		attrs:  append(slices.Clone(h.attrs), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clone(h.groups), name),
	}
}

// journalPriority maps slog levels onto syslog priorities.
func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// collectField flattens an attribute into journal fields. Group names
// become underscore-joined key prefixes, and all keys are uppercased to
// follow journal field conventions.
func collectField(fields map[string]string, groups []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		nested := append(slices.Clone(groups), attr.Key)
		for _, member := range attr.Value.Group() {
			collectField(fields, nested, member)
		}
		return
	}

	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, "_") + "_" + key
	}
	fields[strings.ToUpper(key)] = fieldValue(attr.Value)
}

// fieldValue renders an attribute value as a journal field string.
func fieldValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format("2006-01-02T15:04:05.000Z07:00")
	default:
		return v.String()
	}
}

// IsJournalAvailable reports whether the systemd journal can be reached.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
