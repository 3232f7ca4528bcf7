package httpmiddleware

import (
	"strconv"
	"strings"
	"time"

	"assethost.local/gee"
	"assethost.local/internal/platform/metrics"
)

// Metrics records request count, latency and in-flight requests. Requests
// whose Host contains gatewayDomain are labelled origin="gateway", the rest
// origin="direct"; an empty gatewayDomain labels everything direct.
func Metrics(gatewayDomain string) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()       //正在处理的请求数+1
		defer metrics.HTTPInflightRequests.Dec() //请求处理结束

		origin := "direct"
		if gatewayDomain != "" && strings.Contains(ctx.Req.Host, gatewayDomain) {
			origin = "gateway"
		}
		defer func() {
			// 路由在进入中间件前已匹配好，没匹配上的统一记成 UNMATCHED
			routePattern := ctx.RoutePattern
			if routePattern == "" {
				routePattern = "UNMATCHED"
			}
			status := strconv.Itoa(ctx.Writer.Status())
			metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, routePattern, status, origin).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, routePattern).Observe(time.Since(start).Seconds())
		}()
		ctx.Next()
	}
}
