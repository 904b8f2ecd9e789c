package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/KaiStephens/lockInRecorder/internal/logging"
	"github.com/danielgtaylor/huma/v2"
)

// HTTPLoggingMiddleware logs every API request once it completes, with the
// level derived from the response status.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()

	next(ctx)

	status := ctx.Status()
	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	if query := ctx.URL().RawQuery; query != "" {
		attrs = append(attrs, slog.String("query", query))
	}
	if agent := ctx.Header("User-Agent"); agent != "" {
		attrs = append(attrs, slog.String("user_agent", agent))
	}

	logging.GetLogger("http").LogAttrs(ctx.Context(), requestLogLevel(ctx.Method(), status), "HTTP request completed", attrs...)
}

// requestLogLevel maps a finished request onto a log level: server errors
// are errors, client errors are warnings, preflight noise stays at debug.
func requestLogLevel(method string, status int) slog.Level {
	switch {
	case method == http.MethodOptions:
		return slog.LevelDebug
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
