package ftp

import (
	"fmt"
	"time"

	"github.com/marmos91/dittoftp/internal/bytesize"
)

// FTPConfig holds configuration parameters for the FTP server.
//
// Default values (applied by New if zero):
//   - Capacity: 500
//   - Root: ./root
//   - IdleTimeout: 5m
//   - DataTimeout: 10s
//   - ReadBufferSize: 10 KiB
//   - ChunkSize: 1 KiB
//   - ShutdownTimeout: 30s
//   - MetricsLogInterval: 5m
//
// Port is deliberately not defaulted here: the config layer applies the
// standard port, and 0 binds an OS-assigned port, which tests rely on.
type FTPConfig struct {
	// BindAddress is the IP address to bind to. Empty string or
	// "0.0.0.0" binds to all interfaces.
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address,omitempty"`

	// Port is the TCP port for the control connection.
	Port int `mapstructure:"port" validate:"min=0,max=65535" yaml:"port"`

	// Capacity limits concurrent control sessions. At capacity, new
	// clients get a goodbye instead of a greeting.
	Capacity int `mapstructure:"capacity" validate:"min=0" yaml:"capacity"`

	// Root is the directory holding per-user chroots.
	Root string `mapstructure:"root" yaml:"root"`

	// OpenEnrollment makes PASS auto-create unknown accounts. The config
	// layer defaults this to true so an explicit false survives decoding.
	OpenEnrollment bool `mapstructure:"open_enrollment" yaml:"open_enrollment"`

	// IdleTimeout closes control connections that sit silent between
	// commands; the client gets a 421 first. 0 disables the timer.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0" yaml:"idle_timeout"`

	// DataTimeout bounds data-connection establishment (PORT dials,
	// PASV accepts) and each chunk moved during a transfer.
	DataTimeout time.Duration `mapstructure:"data_timeout" validate:"min=0" yaml:"data_timeout"`

	// ReadBufferSize caps the length of one command line. A longer line
	// terminates the session. Accepts human-readable sizes like "10KiB".
	ReadBufferSize bytesize.ByteSize `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`

	// ChunkSize is the unit files are streamed in on downloads and
	// uploads. Accepts human-readable sizes like "1KiB".
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`

	// ShutdownTimeout is the maximum duration to wait for active
	// sessions during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0" yaml:"shutdown_timeout,omitempty"`

	// MetricsLogInterval is the interval at which to log server metrics.
	// 0 disables periodic metrics logging.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" validate:"min=0" yaml:"metrics_log_interval,omitempty"`
}

// ApplyDefaults fills in zero values with sensible defaults. The config
// package calls this when loading; New calls it again so a hand-built
// FTPConfig works without going through the config layer.
func (c *FTPConfig) ApplyDefaults() {
	// Note: OpenEnrollment defaults are handled in pkg/config/defaults.go
	// to allow explicit false values from configuration files.

	if c.Capacity == 0 {
		c.Capacity = 500
	}
	if c.Root == "" {
		c.Root = "./root"
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	if c.DataTimeout == 0 {
		c.DataTimeout = 10 * time.Second
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 10 * bytesize.KiB
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = bytesize.KiB
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.MetricsLogInterval == 0 {
		c.MetricsLogInterval = 5 * time.Minute
	}
}

// validate checks that the configuration is usable.
func (c *FTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("invalid capacity %d: must be >= 0", c.Capacity)
	}
	if c.Root == "" {
		return fmt.Errorf("root directory must be set")
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid idle_timeout %v: must be >= 0", c.IdleTimeout)
	}
	if c.DataTimeout < 0 {
		return fmt.Errorf("invalid data_timeout %v: must be >= 0", c.DataTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown_timeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}
