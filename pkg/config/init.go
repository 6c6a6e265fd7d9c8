package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// configTemplate is the commented configuration file written by
// `dittoftp config init`. The single %s slot receives a freshly
// generated API secret so that enabling auth later is one flag flip.
const configTemplate = `# DittoFTP Configuration File
#
# Every value here can be overridden with a DITTOFTP_* environment
# variable, e.g. DITTOFTP_LOGGING_LEVEL=DEBUG.

# Process-wide server settings
server:
  # Maximum time to wait for active sessions during graceful shutdown
  shutdown_timeout: 30s

# FTP protocol adapter
ftp:
  # TCP port for the control connection
  port: 8080

  # Maximum concurrent control sessions (0 = unlimited).
  # At capacity, new clients are turned away before the greeting.
  capacity: 500

  # Directory holding per-user home directories
  root: ./root

  # Automatically create accounts on first login.
  # Disable once every expected user has an account.
  open_enrollment: true

  # Close control connections that sit idle longer than this (0 disables)
  idle_timeout: 5m

  # Timeout for data connection establishment and per-chunk transfers
  data_timeout: 10s

  # Maximum length of one command line
  read_buffer_size: 10KiB

  # Size of the chunks files are streamed in during transfers
  chunk_size: 1KiB

# User accounts (managed with dittoftpctl or the admin API)
users:
  # JSON file holding the accounts
  path: ./etc/users.json

  # Pick up edits made by dittoftpctl without a restart
  watch: true

  # bcrypt cost for newly hashed passwords (4-31)
  bcrypt_cost: 10

# Admin HTTP API: health probes, metrics, session and user management
api:
  enabled: true
  port: 9090

  auth:
    # Require JWT bearer tokens on the management endpoints
    enabled: false

    # HMAC signing key, at least 32 characters. A random one is
    # generated at init time; DITTOFTP_API_SECRET overrides it.
    secret: "%s"

    access_token_duration: 15m
    refresh_token_duration: 168h

# Logging configuration
logging:
  # Log level: DEBUG, INFO, WARN, ERROR
  level: INFO

  # Log format: text, json
  format: text

  # Log output: stdout, stderr, or a file path
  output: stdout

# Prometheus metrics (served by the admin API at /metrics)
metrics:
  enabled: true

# OpenTelemetry tracing and Pyroscope continuous profiling
telemetry:
  tracing:
    enabled: false
    endpoint: localhost:4317
    insecure: true
    sample_rate: 1.0

  profiling:
    enabled: false
    endpoint: http://localhost:4040
    profile_types:
      - cpu
      - alloc_space
      - inuse_space
      - goroutines
`

// InitConfig creates a configuration file at the default location.
//
// Returns the path the file was written to. Fails if the file already
// exists unless force is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath creates a configuration file at the given path.
//
// The generated file carries comments explaining each setting and a
// freshly generated API secret. Fails if the file already exists unless
// force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	secret, err := generateAPISecret()
	if err != nil {
		return fmt.Errorf("failed to generate API secret: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(configTemplate, secret)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateAPISecret returns a 64-character hex string from a CSPRNG,
// comfortably above the 32-character minimum the validator enforces.
func generateAPISecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
