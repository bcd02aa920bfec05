// Package config loads the server configuration from the environment.
//
// A .env file in the working directory is read first when present; values
// already set in the real environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is every setting the server reads at startup.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/postagram.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Auth routes are only registered when JWTSecret is set.
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// CookieSecure marks session cookies HTTPS-only.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"false"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	// Uploads are only enabled when MinIO.Endpoint is set.
	MinIO MinIOConfig `envPrefix:"MINIO_"`
}

// MinIOConfig configures the S3-compatible media store.
type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"postagram"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	// PublicURL is the base used to build object URLs handed to clients,
	// e.g. https://cdn.example.com/postagram. Derived from the endpoint
	// when empty.
	PublicURL string `env:"PUBLIC_URL"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %d", cfg.Port)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AuthEnabled reports whether login and the authenticated API are on.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// MediaEnabled reports whether image uploads are on.
func (c *Config) MediaEnabled() bool {
	return c.MinIO.Endpoint != ""
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown LOG_LEVEL %q", s)
}
