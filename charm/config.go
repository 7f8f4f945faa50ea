// ABOUTME: Settings for the Charm KV document backend
// ABOUTME: Server host and auto-sync flag, kept in charm.json next to the rentdesk data

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the Charm KV database and the local data directory.
	AppName = "rentdesk"
)

// Config holds the charm connection settings.
type Config struct {
	Host string `json:"host,omitempty"`

	// AutoSync pushes listing writes to the server as they happen.
	AutoSync bool `json:"auto_sync"`

	path string
}

// DefaultConfig syncs automatically against DefaultCharmHost.
func DefaultConfig() *Config {
	return &Config{Host: DefaultCharmHost, AutoSync: true}
}

// ConfigPath is $XDG_DATA_HOME/rentdesk/charm.json.
func ConfigPath() string {
	return filepath.Join(xdg.DataHome, AppName, "charm.json")
}

// LoadConfig reads ConfigPath. CHARM_HOST, when set, overrides the host.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigFrom(ConfigPath())
	if err != nil {
		return nil, err
	}
	if host := os.Getenv("CHARM_HOST"); host != "" {
		cfg.Host = host
	}
	return cfg, nil
}

// LoadConfigFrom reads settings from path. A missing file yields defaults;
// an unreadable one is an error so a bad edit is not silently ignored.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse charm config %s: %w", path, err)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	return cfg, nil
}

// Save writes the settings back to the file they were loaded from.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetAutoSync enables or disables auto-sync and saves.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
