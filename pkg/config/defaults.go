package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Booleans that default to true are declared through viper instead
//     (see setViperDefaults), so an explicit false is preserved
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyFTPDefaults(cfg)
	applyUsersDefaults(&cfg.Users)
	applyAPIDefaults(cfg)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
}

// setViperDefaults declares defaults for booleans that are on unless the
// config file or environment explicitly turns them off. These cannot be
// applied post-unmarshal because a zero-value check cannot distinguish an
// explicit false from an absent key.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("ftp.open_enrollment", true)
	v.SetDefault("users.watch", true)
	v.SetDefault("api.enabled", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telemetry.tracing.insecure", true)
}

// applyServerDefaults sets defaults for server configuration.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyFTPDefaults sets defaults for the FTP adapter configuration.
// The adapter owns its own defaults; the config layer adds the pieces
// that only make sense at this level.
func applyFTPDefaults(cfg *Config) {
	// The adapter's shutdown timeout follows the server-wide one when
	// it is not set explicitly. This must happen before ApplyDefaults,
	// which would otherwise fill in the adapter's own fallback.
	if cfg.FTP.ShutdownTimeout == 0 {
		cfg.FTP.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}

	cfg.FTP.ApplyDefaults()

	// The adapter leaves Port at zero so tests can bind an OS-assigned
	// port; the daemon uses the standard port.
	if cfg.FTP.Port == 0 {
		cfg.FTP.Port = 8080
	}
}

// applyUsersDefaults sets defaults for the users file configuration.
func applyUsersDefaults(cfg *UsersConfig) {
	if cfg.Path == "" {
		cfg.Path = "./etc/users.json"
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
}

// applyAPIDefaults sets defaults for the admin API configuration.
func applyAPIDefaults(cfg *Config) {
	if cfg.API.Port == 0 {
		cfg.API.Port = 9090
	}
	if cfg.API.ReadTimeout == 0 {
		cfg.API.ReadTimeout = 10 * time.Second
	}
	if cfg.API.WriteTimeout == 0 {
		cfg.API.WriteTimeout = 10 * time.Second
	}
	if cfg.API.IdleTimeout == 0 {
		cfg.API.IdleTimeout = 60 * time.Second
	}
	if cfg.API.Auth.AccessTokenDuration == 0 {
		cfg.API.Auth.AccessTokenDuration = 15 * time.Minute
	}
	if cfg.API.Auth.RefreshTokenDuration == 0 {
		cfg.API.Auth.RefreshTokenDuration = 7 * 24 * time.Hour
	}
}

// applyLoggingDefaults sets defaults for logging configuration.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize level to uppercase
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets defaults for telemetry configuration.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Tracing defaults
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 1.0
	}

	// Profiling defaults
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_space",
			"inuse_space",
			"goroutines",
		}
	}
}

// GetDefaultConfig returns a configuration with all default values applied.
// Load falls back to it when no configuration file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{}

	// Booleans that default to true are normally declared through viper;
	// with no file to read we set them directly.
	cfg.FTP.OpenEnrollment = true
	cfg.Users.Watch = true
	cfg.API.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Insecure = true

	ApplyDefaults(cfg)

	return cfg
}
