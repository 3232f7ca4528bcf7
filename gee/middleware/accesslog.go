package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"assethost.local/gee"
)

// AccessLog writes one structured line per request. 5xx responses (a view
// that could not resolve its asset host, a panic) are logged at error
// level, 4xx at warn.
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		slog.Log(ctx.Req.Context(), level, "access",
			"request_id", ctx.Req.Header.Get("X-Request-ID"),
			"method", ctx.Method,
			"host", ctx.Req.Host,
			"path", ctx.Path,
			"route", ctx.RoutePattern,
			"status", status,
			"bytes", ctx.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
