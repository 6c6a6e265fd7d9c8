package config

import (
	"testing"
	"time"

	"github.com/marmos91/dittoftp/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestApplyDefaults_FTP(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.FTP.Port != 8080 {
		t.Errorf("Expected default FTP port 8080, got %d", cfg.FTP.Port)
	}
	if cfg.FTP.Capacity != 500 {
		t.Errorf("Expected default capacity 500, got %d", cfg.FTP.Capacity)
	}
	if cfg.FTP.Root != "./root" {
		t.Errorf("Expected default root './root', got %q", cfg.FTP.Root)
	}
	if cfg.FTP.IdleTimeout != 5*time.Minute {
		t.Errorf("Expected default idle timeout 5m, got %v", cfg.FTP.IdleTimeout)
	}
	if cfg.FTP.DataTimeout != 10*time.Second {
		t.Errorf("Expected default data timeout 10s, got %v", cfg.FTP.DataTimeout)
	}
	if cfg.FTP.ReadBufferSize != 10*bytesize.KiB {
		t.Errorf("Expected default read buffer 10KiB, got %v", cfg.FTP.ReadBufferSize)
	}
	if cfg.FTP.ChunkSize != bytesize.KiB {
		t.Errorf("Expected default chunk size 1KiB, got %v", cfg.FTP.ChunkSize)
	}
}

func TestApplyDefaults_FTPShutdownFollowsServer(t *testing.T) {
	// The adapter's shutdown timeout tracks the server-wide one unless
	// set explicitly.
	cfg := &Config{}
	cfg.Server.ShutdownTimeout = 90 * time.Second
	ApplyDefaults(cfg)

	if cfg.FTP.ShutdownTimeout != 90*time.Second {
		t.Errorf("Expected FTP shutdown timeout to follow server (90s), got %v", cfg.FTP.ShutdownTimeout)
	}

	// An explicit adapter value wins
	cfg = &Config{}
	cfg.Server.ShutdownTimeout = 90 * time.Second
	cfg.FTP.ShutdownTimeout = 10 * time.Second
	ApplyDefaults(cfg)

	if cfg.FTP.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected explicit FTP shutdown timeout 10s to be preserved, got %v", cfg.FTP.ShutdownTimeout)
	}
}

func TestApplyDefaults_Users(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Users.Path != "./etc/users.json" {
		t.Errorf("Expected default users path './etc/users.json', got %q", cfg.Users.Path)
	}
	if cfg.Users.BcryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", cfg.Users.BcryptCost)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 9090 {
		t.Errorf("Expected default API port 9090, got %d", cfg.API.Port)
	}
	if cfg.API.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.API.ReadTimeout)
	}
	if cfg.API.WriteTimeout != 10*time.Second {
		t.Errorf("Expected default write timeout 10s, got %v", cfg.API.WriteTimeout)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
	if cfg.API.Auth.AccessTokenDuration != 15*time.Minute {
		t.Errorf("Expected default access token duration 15m, got %v", cfg.API.Auth.AccessTokenDuration)
	}
	if cfg.API.Auth.RefreshTokenDuration != 7*24*time.Hour {
		t.Errorf("Expected default refresh token duration 168h, got %v", cfg.API.Auth.RefreshTokenDuration)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("Expected default tracing endpoint 'localhost:4317', got %q", cfg.Telemetry.Tracing.Endpoint)
	}
	if cfg.Telemetry.Tracing.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.Tracing.SampleRate)
	}
	if cfg.Telemetry.Profiling.Endpoint != "http://localhost:4040" {
		t.Errorf("Expected default profiling endpoint, got %q", cfg.Telemetry.Profiling.Endpoint)
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) != 4 {
		t.Errorf("Expected 4 default profile types, got %v", cfg.Telemetry.Profiling.ProfileTypes)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/dittoftp.log",
		},
		Server: ServerConfig{
			ShutdownTimeout: 60 * time.Second,
		},
		Users: UsersConfig{
			Path:       "/srv/ftp/users.json",
			BcryptCost: 12,
		},
	}
	cfg.FTP.Port = 21
	cfg.FTP.Capacity = 50

	ApplyDefaults(cfg)

	// Verify explicit values were preserved
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/dittoftp.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.FTP.Port != 21 {
		t.Errorf("Expected explicit port 21 to be preserved, got %d", cfg.FTP.Port)
	}
	if cfg.FTP.Capacity != 50 {
		t.Errorf("Expected explicit capacity 50 to be preserved, got %d", cfg.FTP.Capacity)
	}
	if cfg.Users.Path != "/srv/ftp/users.json" {
		t.Errorf("Expected explicit users path to be preserved, got %q", cfg.Users.Path)
	}
	if cfg.Users.BcryptCost != 12 {
		t.Errorf("Expected explicit bcrypt cost 12 to be preserved, got %d", cfg.Users.BcryptCost)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	// The default config should pass validation
	err := Validate(cfg)
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.FTP.Port == 0 {
		t.Error("Default config missing FTP port")
	}
	if cfg.FTP.Root == "" {
		t.Error("Default config missing FTP root")
	}
	if cfg.Users.Path == "" {
		t.Error("Default config missing users path")
	}
	if cfg.API.Port == 0 {
		t.Error("Default config missing API port")
	}
}
