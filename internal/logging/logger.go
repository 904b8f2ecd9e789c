package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 500

// Logger is the leveled logging surface packages depend on. *slog.Logger
// satisfies it, as does any test double with the same four methods.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mutex           sync.RWMutex
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{}
	isInitialized   bool
	logBuffer       *RingBuffer
	logCallback     LogCallback
)

// Initialize applies the logging configuration. Loggers handed out
// earlier keep working: their level vars are updated in place and their
// handler chains are rebuilt to pick up the format and the ring buffer.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true

	// History buffer backing the log stream endpoint
	logBuffer = NewRingBuffer(defaultBufferSize)

	globalLevelVar.Set(resolveLevel(config.Level, slog.LevelInfo))

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module))
		moduleLoggers[module] = newModuleLogger(module, config.Format, levelVar)
	}

	slog.SetDefault(slog.New(createHandler(config.Format, globalLevelVar)))
}

// GetLogger returns the logger for a module, creating and caching it on
// first use.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, ok := moduleLoggers[module]; ok {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	// Racing goroutine may have created it between the locks
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	// Per-module LevelVar so Initialize can retune levels later
	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	format := "text"
	if isInitialized {
		format = globalConfig.Format
	}

	logger := newModuleLogger(module, format, levelVar)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// GetBuffer returns the ring buffer of recent log entries, nil before
// Initialize has run.
func GetBuffer() *RingBuffer {
	mutex.RLock()
	defer mutex.RUnlock()
	return logBuffer
}

// SetLogCallback registers a callback invoked for each new log entry.
// Used to publish log events over the bus without an import cycle.
func SetLogCallback(callback LogCallback) {
	mutex.Lock()
	defer mutex.Unlock()
	logCallback = callback
}

func getLogCallback() LogCallback {
	mutex.RLock()
	defer mutex.RUnlock()
	return logCallback
}

// moduleLevel resolves the effective level for a module from the global
// level and any per-module override. Callers must hold mutex.
func moduleLevel(module string) slog.Level {
	if !isInitialized {
		return slog.LevelInfo
	}
	level := resolveLevel(globalConfig.Level, slog.LevelInfo)
	if override, ok := globalConfig.Modules[module]; ok {
		level = resolveLevel(override, level)
	}
	return level
}

// newModuleLogger builds a logger whose records all carry the module
// attribute. Callers must hold mutex.
func newModuleLogger(module, format string, levelVar *slog.LevelVar) *slog.Logger {
	return slog.New(createHandler(format, levelVar)).With("module", module)
}

// createHandler assembles the handler chain: stdout in text or json
// form, the systemd journal when reachable, and the ring buffer once it
// exists. Callers must hold mutex.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdoutHandler slog.Handler
	if format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	if logBuffer != nil {
		handlers = append(handlers, NewBufferHandler(logBuffer, level))
	}

	switch len(handlers) {
	case 0:
		// Nowhere to log, stdout is still the least surprising sink
		return stdoutHandler
	case 1:
		return handlers[0]
	default:
		return NewMultiHandler(handlers...)
	}
}

// isStdoutAvailable reports whether stdout leads anywhere useful, such
// as a terminal, pipe, socket, or regular file.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// resolveLevel parses a level name, returning fallback for names it
// does not recognize.
func resolveLevel(name string, fallback slog.Level) slog.Level {
	if parsed := parseLevel(name); parsed != nil {
		return *parsed
	}
	return fallback
}

// parseLevel converts a level name to its slog.Level, nil when unknown.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
