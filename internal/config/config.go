// Package config loads the immutable runtime policy for the gateway.
// Values come from built-in defaults, then an optional YAML file, then
// environment variable overrides. The resulting Config is never mutated
// after startup and is shared read-only across all requests.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthMode selects the authenticator variant wired into the dispatcher.
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeJWT    AuthMode = "jwt"
	AuthModeAPIKey AuthMode = "apikey"
)

// Config is the process-wide runtime policy.
type Config struct {
	LogLevel string `yaml:"log_level"`

	RequireAuth  bool     `yaml:"require_auth"`
	AuthMode     AuthMode `yaml:"auth_mode"`
	SharedSecret string   `yaml:"shared_secret"`
	// APIKeyHash is a bcrypt hash of the accepted API key, used only in
	// apikey mode.
	APIKeyHash string `yaml:"api_key_hash"`

	AllowedDomains     []string `yaml:"allowed_domains"`
	AllowedDirectories []string `yaml:"allowed_directories"`
	MaxFileSize        int64    `yaml:"max_file_size"`

	RateLimitQuota  int `yaml:"rate_limit_quota"`
	RateLimitWindow int `yaml:"rate_limit_window_seconds"`

	ScrapeTimeout   int `yaml:"scrape_timeout_seconds"`
	ScrapeMaxLength int `yaml:"scrape_max_length"`

	DBDriver string `yaml:"db_driver"` // "sqlite" or "postgres"
	DBDSN    string `yaml:"db_dsn"`

	ClickHouseDSN string `yaml:"clickhouse_dsn"`

	Transport string `yaml:"transport"` // "stdio" or "http"
	HTTPAddr  string `yaml:"http_addr"`
}

// Default returns the baseline configuration before file and env
// overrides are applied.
func Default() Config {
	return Config{
		LogLevel:           "info",
		RequireAuth:        false,
		AuthMode:           AuthModeJWT,
		SharedSecret:       "your-secret-key-change-in-production",
		AllowedDomains:     []string{"example.com", "httpbin.org", "jsonplaceholder.typicode.com"},
		AllowedDirectories: []string{"/tmp", "/var/tmp"},
		MaxFileSize:        10 * 1024 * 1024,
		RateLimitQuota:     100,
		RateLimitWindow:    3600,
		ScrapeTimeout:      10,
		ScrapeMaxLength:    5000,
		DBDriver:           "sqlite",
		DBDSN:              ":memory:",
		Transport:          "stdio",
		HTTPAddr:           ":8080",
	}
}

// Load builds the Config: defaults, then the YAML file at path (skipped
// when path is empty or the file does not exist), then env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = envOrDefault("TOOLGATE_LOG_LEVEL", cfg.LogLevel)
	cfg.RequireAuth = envOrDefaultBool("TOOLGATE_REQUIRE_AUTH", cfg.RequireAuth)
	if v := os.Getenv("TOOLGATE_AUTH_MODE"); v != "" {
		cfg.AuthMode = AuthMode(v)
	}
	cfg.SharedSecret = envOrDefault("TOOLGATE_SHARED_SECRET", cfg.SharedSecret)
	cfg.APIKeyHash = envOrDefault("TOOLGATE_API_KEY_HASH", cfg.APIKeyHash)
	cfg.AllowedDomains = envOrDefaultList("TOOLGATE_ALLOWED_DOMAINS", cfg.AllowedDomains)
	cfg.AllowedDirectories = envOrDefaultList("TOOLGATE_ALLOWED_DIRS", cfg.AllowedDirectories)
	cfg.MaxFileSize = envOrDefaultInt64("TOOLGATE_MAX_FILE_SIZE", cfg.MaxFileSize)
	cfg.RateLimitQuota = envOrDefaultInt("TOOLGATE_RATE_LIMIT_QUOTA", cfg.RateLimitQuota)
	cfg.RateLimitWindow = envOrDefaultInt("TOOLGATE_RATE_LIMIT_WINDOW_S", cfg.RateLimitWindow)
	cfg.ScrapeTimeout = envOrDefaultInt("TOOLGATE_SCRAPE_TIMEOUT_S", cfg.ScrapeTimeout)
	cfg.ScrapeMaxLength = envOrDefaultInt("TOOLGATE_SCRAPE_MAX_LENGTH", cfg.ScrapeMaxLength)
	cfg.DBDriver = envOrDefault("TOOLGATE_DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = envOrDefault("TOOLGATE_DB_DSN", cfg.DBDSN)
	cfg.ClickHouseDSN = envOrDefault("CLICKHOUSE_DSN", cfg.ClickHouseDSN)
	cfg.Transport = envOrDefault("TOOLGATE_TRANSPORT", cfg.Transport)
	cfg.HTTPAddr = envOrDefault("TOOLGATE_HTTP_ADDR", cfg.HTTPAddr)
}

func (c Config) validate() error {
	switch c.AuthMode {
	case AuthModeNone, AuthModeJWT, AuthModeAPIKey:
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown db driver %q", c.DBDriver)
	}
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.RequireAuth && c.AuthMode == AuthModeAPIKey && c.APIKeyHash == "" {
		return fmt.Errorf("apikey auth mode requires TOOLGATE_API_KEY_HASH")
	}
	return nil
}

// Window returns the rate-limit window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

// ScrapeTimeoutDuration returns the scraper's fetch timeout.
func (c Config) ScrapeTimeoutDuration() time.Duration {
	return time.Duration(c.ScrapeTimeout) * time.Second
}

// Sanitized returns the config as a map safe to expose to callers:
// secret-bearing fields are elided.
func (c Config) Sanitized() map[string]any {
	return map[string]any{
		"require_auth":              c.RequireAuth,
		"auth_mode":                 string(c.AuthMode),
		"allowed_domains":           c.AllowedDomains,
		"allowed_directories":       c.AllowedDirectories,
		"max_file_size":             c.MaxFileSize,
		"rate_limit_quota":          c.RateLimitQuota,
		"rate_limit_window_seconds": c.RateLimitWindow,
		"scrape_timeout_seconds":    c.ScrapeTimeout,
		"scrape_max_length":         c.ScrapeMaxLength,
		"db_driver":                 c.DBDriver,
		"transport":                 c.Transport,
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
