package gee

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

// stackTrace formats the callers of the panicking handler.
func stackTrace(message string) string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:]) // skip Callers, stackTrace and the deferred func

	var str strings.Builder
	str.WriteString(message + "\nTraceback:")
	for _, pc := range pcs[:n] {
		fn := runtime.FuncForPC(pc)
		file, line := fn.FileLine(pc)
		fmt.Fprintf(&str, "\n\t%s:%d", file, line)
	}
	return str.String()
}

// Recovery turns a handler panic into a 500 JSON error. If the handler
// already wrote a status the response is left alone and the chain stops.
func Recovery() HandlerFunc {
	return func(ctx *Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			slog.Error("panic recovered",
				"request_id", ctx.Req.Header.Get("X-Request-ID"),
				"method", ctx.Method,
				"host", ctx.Req.Host,
				"path", ctx.Path,
				"route", ctx.RoutePattern,
				"panic", err,
				"stack", stackTrace(fmt.Sprint(err)),
			)
			if ctx.Writer.Written() {
				ctx.Abort()
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "Internal Server Error")
		}()
		ctx.Next()
	}
}
