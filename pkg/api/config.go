package api

import (
	"os"
	"time"

	"github.com/marmos91/dittoftp/internal/logger"
)

// EnvAPISecret is the name of the environment variable for the admin
// API's JWT signing secret.
const EnvAPISecret = "DITTOFTP_API_SECRET"

// APIConfig configures the admin HTTP server.
//
// The server provides health probes, the Prometheus metrics endpoint,
// and the session and user management API.
type APIConfig struct {
	// Enabled controls whether the admin HTTP server runs at all. The
	// config layer defaults this to true so an explicit false survives
	// decoding.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the API endpoints.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means there is no timeout.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout,omitempty"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means there is no timeout.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout,omitempty"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If zero, the value of ReadTimeout is used.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout,omitempty"`

	// Auth configures JWT authentication for the management endpoints.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// AuthConfig configures JWT token generation and validation.
//
// When Enabled is false the management endpoints are open; health and
// metrics are always open either way.
type AuthConfig struct {
	// Enabled turns bearer-token authentication on for /api/v1 routes.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Secret is the HMAC signing key for JWT tokens.
	// Must be at least 32 characters long when Enabled is true.
	// Can also be set via the DITTOFTP_API_SECRET environment variable,
	// which takes precedence over the config file.
	Secret string `mapstructure:"secret" yaml:"secret"`

	// AccessTokenDuration is the lifetime of access tokens.
	// Default: 15m
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`

	// RefreshTokenDuration is the lifetime of refresh tokens.
	// Default: 168h (7 days)
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *APIConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 9090
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.Auth.AccessTokenDuration == 0 {
		c.Auth.AccessTokenDuration = 15 * time.Minute
	}
	if c.Auth.RefreshTokenDuration == 0 {
		c.Auth.RefreshTokenDuration = 7 * 24 * time.Hour
	}
}

// GetSecret returns the JWT secret, preferring the environment variable.
// Returns empty string if neither env var nor config secret is set.
// Logs a warning if the environment variable overrides a config file value.
func (c *APIConfig) GetSecret() string {
	envSecret := os.Getenv(EnvAPISecret)
	if envSecret != "" {
		if c.Auth.Secret != "" && c.Auth.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvAPISecret)
		}
		return envSecret
	}
	return c.Auth.Secret
}

// HasSecret returns whether a JWT secret is configured.
func (c *APIConfig) HasSecret() bool {
	return c.GetSecret() != ""
}
