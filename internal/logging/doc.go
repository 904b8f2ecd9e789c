// Package logging wires slog into the recorder with per-module levels.
//
// Every log record fans out to up to three sinks at once: the systemd
// journal when journald is reachable, stdout when one is attached, and an
// in-memory ring buffer that feeds the /api/logs/stream endpoint. Records
// carry a MODULE field so journal queries can isolate one subsystem.
//
// Call Initialize once during startup, then fetch loggers by module name:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"capture":   "debug",
//			"recording": "warn",
//		},
//	})
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Starting up", "device", 0)
//	logger.Warn("Frame read failed", "error", err)
//
// Loggers handed out before Initialize keep working afterwards because each
// module shares a single LevelVar; retuning a level reaches stale references
// too. Attach persistent attributes with the usual slog chaining:
//
//	logger := logging.GetLogger("recording").With("session_id", id)
//
// On a journald host the records are queryable by identifier and field:
//
//	journalctl -t lockinrecorder -f
//	journalctl -t lockinrecorder MODULE=recording
//
// The same levels are settable from the TOML settings file:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	capture = "debug"
//	api = "warn"
package logging
