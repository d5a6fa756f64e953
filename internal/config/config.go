package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	GRPCAddr      string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	TokenTTL      time.Duration
	NotifyWorkers int
	EventsChannel string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

// Load reads .env when present, then the process environment. An empty
// POSTGRES_DSN or REDIS_ADDR selects the in-memory implementations.
func Load() Config {
	_ = godotenv.Load() // load .env if it exists
	cfg := Config{
		AppEnv:        getenv("APP_ENV", "local"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8082"),
		GRPCAddr:      getenv("GRPC_ADDR", ":50051"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET", "change-me-in-production"),
		TokenTTL:      getenvDuration("TOKEN_TTL", 7*24*time.Hour),
		NotifyWorkers: getenvInt("NOTIFY_WORKERS", 4),
		EventsChannel: getenv("EVENTS_CHANNEL", "orders.events"),
	}
	return cfg
}

// LogValue keeps secrets out of the startup log line.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app_env", c.AppEnv),
		slog.String("http_addr", c.HTTPAddr),
		slog.String("grpc_addr", c.GRPCAddr),
		slog.Bool("postgres", c.PostgresDSN != ""),
		slog.Bool("redis", c.RedisAddr != ""),
		slog.Duration("token_ttl", c.TokenTTL),
		slog.Int("notify_workers", c.NotifyWorkers),
	)
}
