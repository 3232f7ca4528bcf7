package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter）。
	//
	// labels：
	// - method：HTTP 方法，例如 GET/POST
	// - route：路由模板（用 pattern，不要用真实 path，否则会产生无限 label）
	// - status：HTTP 状态码字符串，例如 "200"/"500"
	// - origin：gateway（经 API Gateway 进来）/ direct
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status", "origin"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram），用于 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// AssetRewrites counts asset references passed through the rewriter.
	//
	// labels：
	// - category：javascripts / stylesheets
	// - mode：remote（加上 bucket 前缀）/ local / absolute（已是完整 URL）
	AssetRewrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_rewrites_total",
			Help: "Asset references rewritten by category and mode.",
		},
		[]string{"category", "mode"},
	)

	// StackLookups counts remote stack descriptor lookups. In a healthy
	// process this stays at 1.
	StackLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_stack_lookups_total",
			Help: "Stack descriptor lookups by result.",
		},
		[]string{"result"},
	)

	// BaseURLCache：base url 缓存命中情况。
	//
	// labels：
	// - layer：process / shared
	// - result：hit / miss / error
	BaseURLCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_base_url_cache_total",
			Help: "Asset base url cache operations by layer and result.",
		},
		[]string{"layer", "result"},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			AssetRewrites,
			StackLookups,
			BaseURLCache,
		)
	})
}
