package config

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("MAX_MESSAGE_BYTES", "")
	t.Setenv("SIGNALING_PATH", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_ENABLED", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Signaling.Path != "/wss" {
		t.Fatalf("signaling path = %q, want /wss", cfg.Signaling.Path)
	}
	if cfg.Signaling.MaxMessageBytes != 16<<20 {
		t.Fatalf("max message bytes = %d", cfg.Signaling.MaxMessageBytes)
	}
	if cfg.Recording.CatalogTimeout != 2*time.Minute {
		t.Fatalf("catalog timeout = %s", cfg.Recording.CatalogTimeout)
	}
	if cfg.Log.Format != LogFormatText || cfg.Log.Level != slog.LevelInfo {
		t.Fatalf("log config = %+v", cfg.Log)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("redis should be opt-in")
	}
	if cfg.Redis.InstanceID == "" {
		t.Fatalf("expected a default instance id")
	}
	if cfg.JWTSecret != "" {
		t.Fatalf("jwt secret should have no default, got %q", cfg.JWTSecret)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SIGNALING_PATH", "signal")
	t.Setenv("MAX_MESSAGE_BYTES", "0")
	t.Setenv("PING_INTERVAL", "0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_INSTANCE_ID", "node-7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Signaling.Path != "/signal" {
		t.Fatalf("signaling path = %q", cfg.Signaling.Path)
	}
	if cfg.Signaling.MaxMessageBytes != 0 || cfg.Signaling.PingInterval != 0 {
		t.Fatalf("signaling = %+v", cfg.Signaling)
	}
	if cfg.Log.Format != LogFormatJSON || cfg.Log.Level != slog.LevelDebug {
		t.Fatalf("log config = %+v", cfg.Log)
	}
	if !cfg.Redis.Enabled || cfg.Redis.InstanceID != "node-7" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MAX_MESSAGE_BYTES": "lots",
		"PONG_WAIT":         "soon",
		"REDIS_ENABLED":     "maybe",
		"LOG_LEVEL":         "loud",
		"LOG_FORMAT":        "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoadRejectsPingLongerThanPongWait(t *testing.T) {
	t.Setenv("PING_INTERVAL", "90s")
	t.Setenv("PONG_WAIT", "60s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(io.Discard, LogConfig{Format: LogFormatJSON}); err != nil {
		t.Fatalf("json logger: %v", err)
	}
	if _, err := NewLogger(io.Discard, LogConfig{Format: "yaml"}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestLoadRequiresSecretWithPassword(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for ADMIN_PASSWORD without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
