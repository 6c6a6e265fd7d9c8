package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/dittoftp/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

ftp:
  root: "` + yamlSafePath(tmpDir) + `/root"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.FTP.Port != 8080 {
		t.Errorf("Expected FTP port 8080, got %d", cfg.FTP.Port)
	}
	if cfg.FTP.Capacity != 500 {
		t.Errorf("Expected default capacity 500, got %d", cfg.FTP.Capacity)
	}
	if cfg.Users.Path != "./etc/users.json" {
		t.Errorf("Expected default users path, got %q", cfg.Users.Path)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("Expected default API port 9090, got %d", cfg.API.Port)
	}

	// The explicit value must win over the default
	if cfg.FTP.Root != yamlSafePath(tmpDir)+"/root" {
		t.Errorf("Expected explicit root to be preserved, got %q", cfg.FTP.Root)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows users to run the server without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}

	if cfg.FTP.Port != 8080 {
		t.Errorf("Expected default FTP port 8080, got %d", cfg.FTP.Port)
	}
	if !cfg.FTP.OpenEnrollment {
		t.Error("Expected open enrollment to default to true")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Should return error
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[ftp]
port = 2121
root = "` + yamlSafePath(tmpDir) + `/root"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.FTP.Port != 2121 {
		t.Errorf("Expected FTP port 2121, got %d", cfg.FTP.Port)
	}
}

func TestLoad_HumanReadableValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Durations as strings, sizes both as strings and raw bytes
	configContent := `
ftp:
  idle_timeout: "2m30s"
  data_timeout: "15s"
  read_buffer_size: "64KiB"
  chunk_size: 4096
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.FTP.IdleTimeout != 2*time.Minute+30*time.Second {
		t.Errorf("Expected idle_timeout 2m30s, got %v", cfg.FTP.IdleTimeout)
	}
	if cfg.FTP.DataTimeout != 15*time.Second {
		t.Errorf("Expected data_timeout 15s, got %v", cfg.FTP.DataTimeout)
	}
	if cfg.FTP.ReadBufferSize != 64*bytesize.KiB {
		t.Errorf("Expected read_buffer_size 64KiB, got %v", cfg.FTP.ReadBufferSize)
	}
	if cfg.FTP.ChunkSize != bytesize.ByteSize(4096) {
		t.Errorf("Expected chunk_size 4096, got %v", cfg.FTP.ChunkSize)
	}
}

func TestLoad_ExplicitFalseSurvives(t *testing.T) {
	// Booleans that default to true must keep an explicit false from the
	// config file instead of having the default stomp it.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
ftp:
  open_enrollment: false

users:
  watch: false

api:
  enabled: false

metrics:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.FTP.OpenEnrollment {
		t.Error("Expected explicit open_enrollment=false to survive loading")
	}
	if cfg.Users.Watch {
		t.Error("Expected explicit users.watch=false to survive loading")
	}
	if cfg.API.Enabled {
		t.Error("Expected explicit api.enabled=false to survive loading")
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected explicit metrics.enabled=false to survive loading")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	// Verify all defaults are set
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.FTP.Port != 8080 {
		t.Errorf("Expected default FTP port 8080, got %d", cfg.FTP.Port)
	}
	if cfg.FTP.Root != "./root" {
		t.Errorf("Expected default root './root', got %q", cfg.FTP.Root)
	}
	if !cfg.API.Enabled {
		t.Error("Expected API to be enabled by default")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics to be enabled by default")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("Expected tracing to be disabled by default")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "dittoftp" {
		t.Errorf("Expected directory name 'dittoftp', got %q", filepath.Base(dir))
	}
}

func TestDefaultConfigExists(t *testing.T) {
	// Point the config dir at an empty temp directory
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if DefaultConfigExists() {
		t.Fatal("Expected no config file in a fresh config dir")
	}

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	if !DefaultConfigExists() {
		t.Error("Expected config file to exist after init")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DITTOFTP_LOGGING_LEVEL", "ERROR")
	t.Setenv("DITTOFTP_FTP_PORT", "2121")

	// Create minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

ftp:
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify environment variables override config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.FTP.Port != 2121 {
		t.Errorf("Expected port 2121 from env var, got %d", cfg.FTP.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.FTP.Port = 2121
	cfg.Logging.Level = "DEBUG"

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	// Config files may hold a JWT secret, so they must not be world-readable
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat saved config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.FTP.Port != 2121 {
		t.Errorf("Expected port 2121 after round trip, got %d", loaded.FTP.Port)
	}
	if loaded.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG' after round trip, got %q", loaded.Logging.Level)
	}
}
