package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"assethost.local/gee"
	"assethost.local/gee/middleware"
	"assethost.local/internal/app/assets"
	assetcache "assethost.local/internal/app/assets/cache"
	assetshttpapi "assethost.local/internal/app/assets/httpapi"
	"assethost.local/internal/app/assets/stack"
	"assethost.local/internal/app/assets/view"
	platformcache "assethost.local/internal/platform/cache"
	"assethost.local/internal/platform/config"
	"assethost.local/internal/platform/httpmiddleware"
	"assethost.local/internal/platform/httpserver"
	"assethost.local/internal/platform/metrics"
	"assethost.local/internal/platform/trace"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	}
	slog.SetDefault(slog.New(h))

	metrics.Init()

	var shutdown func(context.Context) error
	if cfg.TracingEnabled {
		shutdown = trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName, version)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	// Stack outputs
	awsCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	describer, err := stack.New(awsCtx, cfg.Region)
	if err != nil {
		log.Fatal(err)
	}

	// Shared bucket cache (optional)
	var shared assets.SharedCache
	if cfg.AssetsRedisEnabled {
		redisClient, errRedis := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if errRedis != nil {
			log.Fatal(errRedis)
		}
		defer redisClient.Close()
		shared = assetcache.NewBaseURLCache(redisClient, cfg.AssetsCacheTTL)
		slog.Info("shared asset cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.AssetsCacheTTL)
	}

	resolver := assets.NewResolver(describer, assets.ResolverOptions{
		StackName:       cfg.ParentStackName(),
		Region:          cfg.Region,
		BaseURLOverride: cfg.AssetBaseURL,
		ProviderDomain:  cfg.AssetProviderDomain,
		Shared:          shared,
	})
	rewriter := assets.NewRewriter(resolver, cfg.GatewayDomain)
	slog.Info("asset rewriting configured",
		"stack", resolver.StackName(),
		"region", cfg.Region,
		"gateway_domain", cfg.GatewayDomain,
		"base_url_override", cfg.AssetBaseURL)

	// 对外业务
	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(cfg.GatewayDomain), httpmiddleware.TraceName())

	assetshttpapi.RegisterWebRoutes(r, view.NewHelper(rewriter))

	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	for _, rt := range r.Routes() {
		slog.Debug("public route", "method", rt.Method, "pattern", rt.Pattern)
	}

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})
	assetshttpapi.RegisterAdminRoutes(adminMux, resolver)

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := httpserver.NewAdmin(cfg, adminMux)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.RunAll(stopCtx, cfg.ShutdownTimeout, publicSrv, adminSrv); err != nil {
		stop()
		log.Fatal(err)
	}
}
