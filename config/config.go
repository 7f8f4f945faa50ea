// ABOUTME: Application configuration from .env, a JSON file and RENTDESK_* overrides
// ABOUTME: Also builds the process logger at the configured level
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/geo"
	"github.com/joho/godotenv"
)

const AppName = "rentdesk"

// Document Store backends.
const (
	BackendCharm  = "charm"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend     string `json:"backend"`
	DBPath      string `json:"db_path"`
	BlobDir     string `json:"blob_dir"`
	BlobBaseURL string `json:"blob_base_url,omitempty"`
	WebPort     int    `json:"web_port"`
	LogLevel    string `json:"log_level"`
	GeoEndpoint string `json:"geo_endpoint"`
}

func dataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultPath is $XDG_DATA_HOME/rentdesk/config.json.
func DefaultPath() string {
	return filepath.Join(dataDir(), "config.json")
}

func Default() *Config {
	return &Config{
		Backend:     BackendCharm,
		DBPath:      filepath.Join(dataDir(), "rentdesk.db"),
		BlobDir:     filepath.Join(dataDir(), "blobs"),
		WebPort:     8080,
		LogLevel:    "info",
		GeoEndpoint: geo.DefaultEndpoint,
	}
}

// Load reads .env (if present) and the default config file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(DefaultPath())
}

// LoadFrom reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.BlobBaseURL == "" {
		cfg.BlobBaseURL = fmt.Sprintf("http://localhost:%d/blobs", cfg.WebPort)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"RENTDESK_BACKEND":       &c.Backend,
		"RENTDESK_DB_PATH":       &c.DBPath,
		"RENTDESK_BLOB_DIR":      &c.BlobDir,
		"RENTDESK_BLOB_BASE_URL": &c.BlobBaseURL,
		"RENTDESK_LOG_LEVEL":     &c.LogLevel,
		"RENTDESK_GEO_ENDPOINT":  &c.GeoEndpoint,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("RENTDESK_WEB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RENTDESK_WEB_PORT %q: %w", v, err)
		}
		c.WebPort = port
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCharm, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendCharm, BackendSQLite)
	}
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("invalid web port %d", c.WebPort)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Save writes the config file with owner-only permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// NewLogger builds a logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          AppName,
		ReportTimestamp: true,
	})
}
