package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds service configuration loaded from the environment.
type Config struct {
	AppEnv          string
	Port            string
	LogLevel        string
	MetricsEnabled  bool
	MetricsToken    string
	ProcessRate     int
	ProcessBurst    int
	TrustProxy      bool
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:          valueOrDefault(k.String("APP_ENV"), "development"),
		Port:            valueOrDefault(k.String("PORT"), "8080"),
		LogLevel:        valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsEnabled:  parseBool(k.String("METRICS_ENABLED")),
		MetricsToken:    strings.TrimSpace(k.String("METRICS_TOKEN")),
		TrustProxy:      parseBool(k.String("TRUST_PROXY")),
		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
	}

	var err error
	if cfg.ProcessRate, err = parseInt("PROCESS_RATE_LIMIT", k.String("PROCESS_RATE_LIMIT"), 0); err != nil {
		return nil, err
	}
	if cfg.ProcessBurst, err = parseInt("PROCESS_RATE_BURST", k.String("PROCESS_RATE_BURST"), 0); err != nil {
		return nil, err
	}
	maxBody, err := parseInt("MAX_BODY_BYTES", k.String("MAX_BODY_BYTES"), 1<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.ProcessRate < 0 || cfg.ProcessBurst < 0 {
		return nil, errors.New("PROCESS_RATE_LIMIT and PROCESS_RATE_BURST must not be negative")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, errors.New("MAX_BODY_BYTES must be positive")
	}
	if cfg.MetricsEnabled && cfg.MetricsToken == "" {
		return nil, errors.New("METRICS_TOKEN is required when METRICS_ENABLED is set")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(key, value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
