package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is shared by the server, the front-ends and ffctl. Each binary
// reads the keys it needs.
type Config struct {
	Env         string `yaml:"env"`  // dev or prod
	Addr        string `yaml:"addr"` // server listen address
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"` // empty disables JWT and trusts X-User-ID
	LogLevel    string `yaml:"log_level"`
	WASMDir     string `yaml:"wasm_dir"`

	QuoteURL     string        `yaml:"quote_url"`
	QuoteTimeout time.Duration `yaml:"quote_timeout"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Front-end settings
	APIBase         string        `yaml:"api_base"`
	APIToken        string        `yaml:"api_token"`
	UserID          string        `yaml:"user_id"`
	CompleteTimeout time.Duration `yaml:"complete_timeout"`
}

func defaults() *Config {
	return &Config{
		Env:             "dev",
		Addr:            ":8080",
		DatabaseURL:     "sqlite:focusforge.db",
		LogLevel:        "info",
		WASMDir:         "web",
		QuoteURL:        "https://api.quotable.io/random?tags=motivational",
		QuoteTimeout:    10 * time.Second,
		RateLimitRPS:    5,
		RateLimitBurst:  10,
		APIBase:         "http://localhost:8080/",
		CompleteTimeout: 10 * time.Second,
	}
}

// Load builds the config. Precedence, lowest first: defaults, the YAML
// file named by FOCUSFORGE_CONFIG, .env, process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := defaults()
	if path := os.Getenv("FOCUSFORGE_CONFIG"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}

	c.Env = envStr("ENV", c.Env)
	c.Addr = envStr("ADDR", c.Addr)
	c.DatabaseURL = envStr("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = envStr("JWT_SECRET", c.JWTSecret)
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	c.WASMDir = envStr("WASM_DIR", c.WASMDir)
	c.QuoteURL = envStr("QUOTE_URL", c.QuoteURL)
	c.QuoteTimeout = envDuration("QUOTE_TIMEOUT", c.QuoteTimeout)
	c.RateLimitRPS = envFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = envInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.APIBase = envStr("API_BASE", c.APIBase)
	c.APIToken = envStr("API_TOKEN", c.APIToken)
	c.UserID = envStr("USER_ID", c.UserID)
	c.CompleteTimeout = envDuration("COMPLETE_TIMEOUT", c.CompleteTimeout)

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Env != "dev" && c.Env != "prod" {
		return fmt.Errorf("ENV must be dev or prod, got %q", c.Env)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.Env == "prod" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=prod")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimitRPS)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.QuoteTimeout <= 0 || c.CompleteTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DevAuth reports whether the server trusts X-User-ID instead of a JWT.
func (c *Config) DevAuth() bool { return c.JWTSecret == "" }

// Logger builds the process logger: JSON in prod, text in dev.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.Env == "prod" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
