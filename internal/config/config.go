// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health listener; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file. Only the seed tool mints tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file used to verify access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the lifetime of tokens minted by the seed tool (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	// RedisURL enables Idempotency-Key deduping when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// IdempotencyTTLStr is how long an Idempotency-Key is remembered (e.g. "24h").
	IdempotencyTTLStr string `mapstructure:"IDEMPOTENCY_TTL"`

	// RateLimitWindowStr is the window RATE_LIMIT_MAX_REQUESTS applies to (e.g. "15m").
	RateLimitWindowStr string `mapstructure:"RATE_LIMIT_WINDOW"`
	// RateLimitMaxRequests is how many /api requests a caller may make per window; 0 disables limiting.
	RateLimitMaxRequests int `mapstructure:"RATE_LIMIT_MAX_REQUESTS"`

	// InviteTTLStr is how long a team invite stays pending before it lazily expires (default 168h).
	InviteTTLStr string `mapstructure:"INVITE_TTL"`
	// MoveMaxRetries bounds load-mutate-save attempts on a board version conflict.
	MoveMaxRetries int `mapstructure:"MOVE_MAX_RETRIES"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses; empty disables activity publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// ActivityKafkaTopic is the Kafka topic for board/invite activity events.
	ActivityKafkaTopic string `mapstructure:"ACTIVITY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the activity worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// Worker-only: Loki URL to push activity events to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty installs no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" or "text".
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// CORSAllowedOrigins is a comma-separated list of origins allowed by CORS; "*" allows any.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "team-board-auth")
	v.SetDefault("JWT_AUDIENCE", "team-board-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("INVITE_TTL", "168h") // 7d
	v.SetDefault("MOVE_MAX_RETRIES", 3)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ACTIVITY_KAFKA_TOPIC", "team-board-activity")
	v.SetDefault("KAFKA_GROUP_ID", "team-board-activity-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.MoveMaxRetries < 1 || cfg.MoveMaxRetries > 10 {
		return nil, errors.New("config: MOVE_MAX_RETRIES must be between 1 and 10")
	}
	if cfg.RateLimitMaxRequests < 0 {
		return nil, errors.New("config: RATE_LIMIT_MAX_REQUESTS must not be negative")
	}
	for key, val := range map[string]string{
		"JWT_ACCESS_TTL":    cfg.JWTAccessTTL,
		"IDEMPOTENCY_TTL":   cfg.IdempotencyTTLStr,
		"INVITE_TTL":        cfg.InviteTTLStr,
		"RATE_LIMIT_WINDOW": cfg.RateLimitWindowStr,
	} {
		if d, err := time.ParseDuration(val); err != nil || d <= 0 {
			return nil, fmt.Errorf("config: %s must be a positive duration, got %q", key, val)
		}
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("config: LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDurationOr(c.JWTAccessTTL, 15*time.Minute)
}

// InviteTTL parses InviteTTLStr. Returns 7 days if unset or invalid.
func (c *Config) InviteTTL() time.Duration {
	return parseDurationOr(c.InviteTTLStr, 7*24*time.Hour)
}

// IdempotencyTTL parses IdempotencyTTLStr. Returns 24h if unset or invalid.
func (c *Config) IdempotencyTTL() time.Duration {
	return parseDurationOr(c.IdempotencyTTLStr, 24*time.Hour)
}

// RateLimitWindow parses RateLimitWindowStr. Returns 15m if unset or invalid.
func (c *Config) RateLimitWindow() time.Duration {
	return parseDurationOr(c.RateLimitWindowStr, 15*time.Minute)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means activity publishing is disabled.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// CORSOrigins returns the allowed CORS origins, defaulting to any origin.
func (c *Config) CORSOrigins() []string {
	if c == nil {
		return []string{"*"}
	}
	if out := splitList(c.CORSAllowedOrigins); len(out) > 0 {
		return out
	}
	return []string{"*"}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
