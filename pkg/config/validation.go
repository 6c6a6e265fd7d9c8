package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittoftp/pkg/api"
)

// Validate checks the configuration for invalid or inconsistent values.
//
// Field-level rules live in struct tags (ranges, oneof sets, required
// fields); the checks below cover combinations the tags cannot express.
// Validate does not mutate the configuration, so it can run on values
// that have not been through ApplyDefaults.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Telemetry.Tracing.Enabled && cfg.Telemetry.Tracing.Endpoint == "" {
		return fmt.Errorf("telemetry tracing endpoint is required when tracing is enabled")
	}

	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("telemetry profiling endpoint is required when profiling is enabled")
	}

	// The JWT secret may arrive via the environment rather than the file,
	// so this cannot be a struct tag.
	if cfg.API.Enabled && cfg.API.Auth.Enabled && len(cfg.API.GetSecret()) < 32 {
		return fmt.Errorf("api auth requires a secret of at least 32 characters (set api.auth.secret or %s)", api.EnvAPISecret)
	}

	return nil
}
