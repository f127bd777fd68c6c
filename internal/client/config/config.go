package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "CAREFOLLOW_"

// Config holds runtime settings for the CareFollow CLI.
//
// Fields:
//   - ServerBaseURL: scheme://host[:port] of the backend; "/api" is appended per request.
//   - DatabasePath: SQLite file holding the stored session.
//   - RequestTimeout: default bound for backend calls without their own deadline.
//   - ValidateOnStartup: probe the backend for a restored session's profile.
//   - CallbackAddr: loopback host:port for the identity provider redirect ("127.0.0.1:0" picks a free port).
//   - AuthProviderURL: login page of the external identity provider.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerBaseURL     string        `env:"SERVER_URL"`
	DatabasePath      string        `env:"DATABASE_PATH"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT"`
	ValidateOnStartup bool          `env:"VALIDATE_ON_STARTUP"`
	CallbackAddr      string        `env:"CALLBACK_ADDR"`
	AuthProviderURL   string        `env:"AUTH_PROVIDER_URL"`
	LogLevel          string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8001"
	c.DatabasePath = defaultDatabasePath()
	c.RequestTimeout = 30 * time.Second
	c.ValidateOnStartup = true
	c.CallbackAddr = "127.0.0.1:0"
	c.AuthProviderURL = "https://auth.emergentagent.com"
	c.LogLevel = "warn"
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "carefollow.db"
	}
	return filepath.Join(dir, "carefollow", "session.db")
}

// LoadConfig constructs a Config from args (without the program name).
// Sources are applied in order, later ones taking precedence: defaults,
// a .env file and CAREFOLLOW_* environment variables, the JSON file named by
// -c/--config, then -a/--server and -t/--timeout.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnv overlays values from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q", c.ServerBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	return nil
}
