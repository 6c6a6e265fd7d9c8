// Package credentials persists dittoftpctl's server connection and tokens.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultConfigDir is the default directory for dittoftpctl configuration.
	DefaultConfigDir = "dittoftpctl"
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "config.json"
	// FilePermissions for config files (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for config directories.
	DirPermissions = 0700
)

// ErrNotLoggedIn indicates no valid credentials exist.
var ErrNotLoggedIn = errors.New("not logged in - run 'dittoftpctl login' first")

// Credentials holds the connection to a dittoftp admin API.
//
// Tokens are only present when the server has api.auth enabled; against
// an open server only ServerURL is set.
type Credentials struct {
	ServerURL    string    `json:"server_url"`
	Username     string    `json:"username,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// IsExpired returns true if the access token has expired.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	// Consider expired if within 60 seconds of expiration
	return time.Now().Add(60 * time.Second).After(c.ExpiresAt)
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credentials) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// Preferences represents user preferences.
type Preferences struct {
	DefaultOutput string `json:"default_output,omitempty"` // table, json, yaml
}

// Config represents the complete dittoftpctl configuration.
type Config struct {
	Server      *Credentials `json:"server,omitempty"`
	Preferences Preferences  `json:"preferences,omitempty"`
}

// Store manages credential storage and retrieval.
type Store struct {
	configPath string
	config     *Config
}

// NewStore creates a new credential store.
func NewStore() (*Store, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	store := &Store{
		configPath: configPath,
	}

	// Load existing config or create new
	if err := store.load(); err != nil {
		// If file doesn't exist, create empty config
		if os.IsNotExist(err) {
			store.config = &Config{}
		} else {
			return nil, err
		}
	}

	return store, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise ~/.config
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, DefaultConfigDir, ConfigFileName), nil
}

// load reads the config from disk.
func (s *Store) load() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}

	s.config = &Config{}
	return json.Unmarshal(data, s.config)
}

// save writes the config to disk.
func (s *Store) save() error {
	// Ensure directory exists
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configPath, data, FilePermissions)
}

// Server returns the stored server credentials.
func (s *Store) Server() (*Credentials, error) {
	if s.config.Server == nil {
		return nil, ErrNotLoggedIn
	}
	return s.config.Server, nil
}

// ServerURL returns the stored server URL, or empty when none is set.
// Unlike Server, this works without a login: the health and status
// commands only need the address.
func (s *Store) ServerURL() string {
	if s.config.Server == nil {
		return ""
	}
	return s.config.Server.ServerURL
}

// SetServer stores the server credentials (login).
func (s *Store) SetServer(creds *Credentials) error {
	s.config.Server = creds
	return s.save()
}

// UpdateTokens updates the stored tokens after a refresh.
func (s *Store) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	if s.config.Server == nil {
		return ErrNotLoggedIn
	}

	s.config.Server.AccessToken = accessToken
	s.config.Server.RefreshToken = refreshToken
	s.config.Server.ExpiresAt = expiresAt

	return s.save()
}

// Clear removes the stored tokens but keeps the server URL (logout).
func (s *Store) Clear() error {
	if s.config.Server == nil {
		return ErrNotLoggedIn
	}

	s.config.Server.AccessToken = ""
	s.config.Server.RefreshToken = ""
	s.config.Server.ExpiresAt = time.Time{}

	return s.save()
}

// GetPreferences returns the user preferences.
func (s *Store) GetPreferences() Preferences {
	return s.config.Preferences
}

// SetPreferences updates the user preferences.
func (s *Store) SetPreferences(prefs Preferences) error {
	s.config.Preferences = prefs
	return s.save()
}

// ConfigPath returns the path to the config file.
func (s *Store) ConfigPath() string {
	return s.configPath
}
