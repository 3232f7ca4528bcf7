package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	IdleTimeout       time.Duration // 连接处理完一个请求后等待 IdleTimeout 后依旧没有请求，就会关闭此空闲连接
	ShutdownTimeout   time.Duration // 关闭服务的最长等待时间，超过后强制断开连接
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	// 日志配置信息
	LogLevel    slog.Level
	LogFormat   string
	ServiceName string

	PprofEnabled bool
	AdminAddr    string

	OtlpGrpcEndpoint string
	OtlpServiceName  string
	TracingEnabled   bool `env:"TRACING_ENABLED" envDefault:"true"`

	// Deployment identity. StackName wins over ProjectName/Env.
	ProjectName string `env:"PROJECT_NAME" envDefault:"demo"`
	Env         string `env:"ENV" envDefault:"dev"`
	StackName   string `env:"STACK_NAME"`
	Region      string `env:"AWS_REGION" envDefault:"us-east-1"`

	// Assets
	AssetBaseURL        string        `env:"ASSET_BASE_URL"`                                    // scheme+host override, e.g. https://cdn.example.com
	AssetProviderDomain string        `env:"ASSET_PROVIDER_DOMAIN" envDefault:"aws.amazon.com"` // https://<region>-s3.<domain>
	GatewayDomain       string        `env:"GATEWAY_DOMAIN" envDefault:"amazonaws.com"`         // request host marker
	AssetsCacheTTL      time.Duration `env:"ASSETS_CACHE_TTL" envDefault:"1h"`

	//Redis (shared base-url cache)
	AssetsRedisEnabled bool   `env:"ASSETS_REDIS_ENABLED" envDefault:"false"`
	RedisAddr          string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword      string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
}

// ParentStackName is the name of the deployment's parent stack, the one
// whose outputs carry the asset bucket.
func (c Config) ParentStackName() string {
	if c.StackName != "" {
		return c.StackName
	}
	return c.ProjectName + "-" + c.Env
}

func Load() Config {
	cfg := Config{
		Addr:              ":9999",
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,

		LogLevel:    slog.LevelInfo,
		LogFormat:   "json",
		ServiceName: "assethost",

		PprofEnabled: false,
		AdminAddr:    "127.0.0.1:6060",

		OtlpGrpcEndpoint: "127.0.0.1:4317",
		OtlpServiceName:  "assethost",
		TracingEnabled:   true,

		ProjectName: "demo",
		Env:         "dev",
		Region:      "us-east-1",

		AssetProviderDomain: "aws.amazon.com",
		GatewayDomain:       "amazonaws.com",
		AssetsCacheTTL:      time.Hour,

		AssetsRedisEnabled: false,
		RedisAddr:          "localhost:6379",
		RedisPassword:      "",
		RedisDB:            0,
	}

	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("IDLE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdleTimeout = d
		}
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v, ok := os.LookupEnv("READ_HEADER_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}
	if v, ok := os.LookupEnv("READ_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReadTimeout = d
		}
	}
	if v, ok := os.LookupEnv("WRITE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = parseLevel(v)
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := os.LookupEnv("SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}

	if v, ok := os.LookupEnv("PPROF_ENABLED"); ok && v != "" {
		cfg.PprofEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok && v != "" {
		cfg.AdminAddr = v
	}

	if v, ok := os.LookupEnv("TRACING_ENABLED"); ok && v != "" {
		cfg.TracingEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("OTLP_GRPC_ENDPOINT"); ok && v != "" {
		cfg.OtlpGrpcEndpoint = v
	}
	if v, ok := os.LookupEnv("OTLP_SERVICE_NAME"); ok && v != "" {
		cfg.OtlpServiceName = v
	}

	// Deployment
	if v, ok := os.LookupEnv("PROJECT_NAME"); ok && v != "" {
		cfg.ProjectName = v
	}
	if v, ok := os.LookupEnv("ENV"); ok && v != "" {
		cfg.Env = v
	}
	if v, ok := os.LookupEnv("STACK_NAME"); ok && v != "" {
		cfg.StackName = v
	}
	if v, ok := os.LookupEnv("AWS_REGION"); ok && v != "" {
		cfg.Region = v
	}

	// Assets
	if v, ok := os.LookupEnv("ASSET_BASE_URL"); ok && v != "" {
		cfg.AssetBaseURL = v
	}
	if v, ok := os.LookupEnv("ASSET_PROVIDER_DOMAIN"); ok && v != "" {
		cfg.AssetProviderDomain = v
	}
	if v, ok := os.LookupEnv("GATEWAY_DOMAIN"); ok && v != "" {
		cfg.GatewayDomain = v
	}
	if v, ok := os.LookupEnv("ASSETS_CACHE_TTL"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AssetsCacheTTL = d
		}
	}

	// Redis
	if v, ok := os.LookupEnv("ASSETS_REDIS_ENABLED"); ok && v != "" {
		cfg.AssetsRedisEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		cfg.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok && v != "" {
		cfg.RedisPassword = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	return cfg
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
