package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.JWTIssuer != "team-board-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "team-board-auth")
	}
	if cfg.JWTAudience != "team-board-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "team-board-api")
	}
	if cfg.MoveMaxRetries != 3 {
		t.Errorf("MoveMaxRetries = %d, want 3", cfg.MoveMaxRetries)
	}
	if cfg.ActivityKafkaTopic != "team-board-activity" {
		t.Errorf("ActivityKafkaTopic = %q, want default", cfg.ActivityKafkaTopic)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("log = %q/%q, want info/json", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.InviteTTL() != 7*24*time.Hour {
		t.Errorf("InviteTTL = %v, want 168h", cfg.InviteTTL())
	}
	if cfg.IdempotencyTTL() != 24*time.Hour {
		t.Errorf("IdempotencyTTL = %v, want 24h", cfg.IdempotencyTTL())
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RateLimitWindow() != 15*time.Minute || cfg.RateLimitMaxRequests != 100 {
		t.Errorf("rate limit = %d per %v, want 100 per 15m", cfg.RateLimitMaxRequests, cfg.RateLimitWindow())
	}
	if got := cfg.KafkaBrokersList(); got != nil {
		t.Errorf("KafkaBrokersList = %v, want nil", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("JWT_ISSUER", "custom-issuer")
	t.Setenv("MOVE_MAX_RETRIES", "5")
	t.Setenv("INVITE_TTL", "48h")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":7070")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.MoveMaxRetries != 5 {
		t.Errorf("MoveMaxRetries = %d, want 5", cfg.MoveMaxRetries)
	}
	if cfg.InviteTTL() != 48*time.Hour {
		t.Errorf("InviteTTL = %v, want 48h", cfg.InviteTTL())
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
}

func TestLoad_MoveMaxRetriesRange(t *testing.T) {
	for _, v := range []string{"0", "11", "-1"} {
		t.Run(v, func(t *testing.T) {
			os.Clearenv()
			t.Setenv("MOVE_MAX_RETRIES", v)
			if _, err := Load(); err == nil {
				t.Errorf("Load with MOVE_MAX_RETRIES=%s should fail", v)
			}
		})
	}
}

func TestLoad_RateLimit(t *testing.T) {
	os.Clearenv()
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimitWindow() != time.Minute || cfg.RateLimitMaxRequests != 0 {
		t.Errorf("rate limit = %d per %v, want 0 per 1m", cfg.RateLimitMaxRequests, cfg.RateLimitWindow())
	}

	os.Clearenv()
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "-5")
	if _, err := Load(); err == nil {
		t.Error("Load with negative RATE_LIMIT_MAX_REQUESTS should fail")
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	testCases := []struct {
		key, val string
	}{
		{"INVITE_TTL", "soon"},
		{"INVITE_TTL", "-1h"},
		{"IDEMPOTENCY_TTL", "forever"},
		{"JWT_ACCESS_TTL", "0s"},
		{"RATE_LIMIT_WINDOW", "900000"},
	}
	for _, tc := range testCases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q should fail", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	os.Clearenv()
	t.Setenv("LOG_FORMAT", "xml")
	if _, err := Load(); err == nil {
		t.Fatal("Load with LOG_FORMAT=xml should fail")
	}
}

func TestInviteTTL_Fallback(t *testing.T) {
	for _, s := range []string{"", "bogus", "0s", "-5m"} {
		cfg := &Config{InviteTTLStr: s}
		if got := cfg.InviteTTL(); got != 7*24*time.Hour {
			t.Errorf("InviteTTL(%q) = %v, want 168h", s, got)
		}
	}
}

func TestKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:1 , b:2 ,, ", []string{"a:1", "b:2"}},
	}
	for _, tc := range testCases {
		cfg := &Config{KafkaBrokers: tc.in}
		got := cfg.KafkaBrokersList()
		if len(got) != len(tc.want) {
			t.Errorf("KafkaBrokersList(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("KafkaBrokersList(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
}

func TestCORSOrigins(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"", "*"},
		{" , ", "*"},
		{"https://board.example.com, http://localhost:5173", "https://board.example.com|http://localhost:5173"},
	}
	for _, tc := range testCases {
		got := strings.Join((&Config{CORSAllowedOrigins: tc.in}).CORSOrigins(), "|")
		if got != tc.want {
			t.Errorf("CORSOrigins(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
