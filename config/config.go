package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	Admin          AdminConfig
	Signaling      SignalingConfig
	Recording      RecordingConfig
	Log            LogConfig
	Redis          RedisConfig
}

// AdminConfig is the single operator account allowed to use the catalog API.
type AdminConfig struct {
	Username string
	Password string
}

type SignalingConfig struct {
	Path            string
	MaxMessageBytes int
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteTimeout    time.Duration
}

type RecordingConfig struct {
	MediaRoot      string
	DatabaseDSN    string
	CatalogTimeout time.Duration
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       string
	Password   string
	DB         int
	Prefix     string
	InstanceID string
}

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := splitAndClean(originsStr)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Signaling: SignalingConfig{
			Path: getEnv("SIGNALING_PATH", "/wss"),
		},
		Recording: RecordingConfig{
			MediaRoot:   getEnv("MEDIA_ROOT", cwd),
			DatabaseDSN: getEnv("DATABASE_DSN", "recordings.db?_pragma=foreign_keys(1)"),
		},
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			Prefix:     getEnv("REDIS_PREFIX", "signaling"),
			InstanceID: getEnv("REDIS_INSTANCE_ID", defaultInstanceID()),
		},
	}

	if cfg.Signaling.MaxMessageBytes, err = getEnvInt("MAX_MESSAGE_BYTES", 16<<20); err != nil {
		return nil, err
	}
	if cfg.Signaling.MaxMessageBytes < 0 {
		return nil, fmt.Errorf("invalid MAX_MESSAGE_BYTES %d: must be >= 0", cfg.Signaling.MaxMessageBytes)
	}
	if cfg.Signaling.PingInterval, err = getEnvDuration("PING_INTERVAL", 54*time.Second); err != nil {
		return nil, err
	}
	if cfg.Signaling.PongWait, err = getEnvDuration("PONG_WAIT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Signaling.WriteTimeout, err = getEnvDuration("WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Signaling.PingInterval > 0 && cfg.Signaling.PongWait > 0 && cfg.Signaling.PingInterval >= cfg.Signaling.PongWait {
		return nil, fmt.Errorf("PING_INTERVAL (%s) must be shorter than PONG_WAIT (%s)", cfg.Signaling.PingInterval, cfg.Signaling.PongWait)
	}
	if cfg.Recording.CatalogTimeout, err = getEnvDuration("CATALOG_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled, err = getEnvBool("REDIS_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.Log.Level, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat(cfg.Environment)))
	if cfg.Log.Format != LogFormatText && cfg.Log.Format != LogFormatJSON {
		return nil, fmt.Errorf("unsupported LOG_FORMAT %q", cfg.Log.Format)
	}

	if cfg.Admin.Password != "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD is set")
	}

	if !strings.HasPrefix(cfg.Signaling.Path, "/") {
		cfg.Signaling.Path = "/" + cfg.Signaling.Path
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in release mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds a logger writing to w from the log settings.
func NewLogger(w io.Writer, cfg LogConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Format {
	case LogFormatText, "":
		handler = slog.NewTextHandler(w, opts)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
	return slog.New(handler), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be >= 0", key, raw)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func defaultLogFormat(environment string) string {
	if environment == "production" {
		return LogFormatJSON
	}
	return LogFormatText
}

// defaultInstanceID is stable across restarts, so Presence.Reset clears
// what a crashed run of this host left behind.
func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "local"
	}
	return host
}

func splitAndClean(csv string) []string {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
