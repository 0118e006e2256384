package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/revant7/trezora-frontend-sub000/pkg/config"
)

// Config holds all configuration for the storefront client daemon.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Local HTTP server the view layer talks to.
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8090"`

	// Backend the daemon fronts.
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	// Token storage. The file store is the default; Redis takes over when
	// REDIS_ADDR is set.
	TokenPath string `env:"TOKEN_PATH" envDefault:""`

	// Redis (optional). Used for the session token store and the deals cache.
	RedisAddr string `env:"REDIS_ADDR" envDefault:""`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Daily deals cache.
	DealsTTL       time.Duration `env:"DEALS_TTL" envDefault:"15m"`
	DealsRetention time.Duration `env:"DEALS_RETENTION" envDefault:"24h"`

	// Sign-in throttling.
	SignInRatePerSec int `env:"SIGNIN_RATE_PER_SEC" envDefault:"1"`
	SignInBurst      int `env:"SIGNIN_BURST" envDefault:"5"`

	// CORS for the local view layer.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Tracing.
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %q", c.BackendBaseURL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend timeout must be positive: %s", c.BackendTimeout)
	}
	if c.DealsTTL <= 0 {
		return fmt.Errorf("deals TTL must be positive: %s", c.DealsTTL)
	}
	if c.SignInRatePerSec < 1 || c.SignInBurst < 1 {
		return fmt.Errorf("invalid sign-in rate limit: %d/s burst %d", c.SignInRatePerSec, c.SignInBurst)
	}
	return nil
}
