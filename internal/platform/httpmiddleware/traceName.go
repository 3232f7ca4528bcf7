package httpmiddleware

import (
	"assethost.local/gee"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceName renames the otelhttp server span after the matched route and
// records the request host, which decides whether assets are rewritten.
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		span := trace.SpanFromContext(ctx.Req.Context())
		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		span.SetName(ctx.Method + " " + route)
		span.SetAttributes(attribute.String("server.host", ctx.Req.Host))
		ctx.Next()
	}
}
