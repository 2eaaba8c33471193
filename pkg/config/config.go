// Package config loads commentd's startup configuration from a JSON
// file (default ~/.commentd/config.json) with environment overrides.
// The encryption secret comes from the environment only and is never
// written to disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvSecret is the environment variable holding the long-term
// credential encryption secret. Its absence fails startup.
const EnvSecret = "COMMENTD_ENCRYPTION_SECRET"

// Config is the full commentd configuration.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Storage    StorageConfig    `json:"storage"`
	Automation AutomationConfig `json:"automation"`

	// EncryptionSecret is read from EnvSecret at load time, never
	// from the file.
	EncryptionSecret string `json:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// StorageConfig configures persistence paths.
type StorageConfig struct {
	// DataDir holds the SQLite database.
	DataDir string `json:"data_dir"`

	// SelectorsFile optionally overrides platform selectors (YAML).
	SelectorsFile string `json:"selectors_file"`
}

// AutomationConfig configures the browser and pacing behavior.
type AutomationConfig struct {
	// Headless runs Chromium without a window. Interactive login
	// capture needs a visible browser, so this defaults to false.
	Headless bool `json:"headless"`

	// SubmitEnabled turns real comment submission on. Defaults to
	// false: actions are simulated (typed, never posted).
	SubmitEnabled bool `json:"submit_enabled"`

	// NavigationTimeoutSeconds bounds content page loads.
	NavigationTimeoutSeconds int `json:"navigation_timeout_seconds"`

	// SelectorTimeoutSeconds bounds element waits.
	SelectorTimeoutSeconds int `json:"selector_timeout_seconds"`

	// LoginWaitSeconds bounds the interactive login capture window.
	LoginWaitSeconds int `json:"login_wait_seconds"`

	// MaxBatchSize is the batch ceiling.
	MaxBatchSize int `json:"max_batch_size"`

	// InterItemDelaySeconds is the fixed wait between batch items.
	InterItemDelaySeconds int `json:"inter_item_delay_seconds"`
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":4000"},
		Automation: AutomationConfig{
			Headless:                 false,
			SubmitEnabled:            false,
			NavigationTimeoutSeconds: 30,
			SelectorTimeoutSeconds:   10,
			LoginWaitSeconds:         120,
			MaxBatchSize:             10,
			InterItemDelaySeconds:    2,
		},
	}
}

// DefaultPath returns ~/.commentd/config.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".commentd", "config.json"), nil
}

// Load reads the config file at path (DefaultPath when empty),
// applies environment overrides, and validates the result. A missing
// file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.EncryptionSecret = os.Getenv(EnvSecret)
	if addr := os.Getenv("COMMENTD_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir := os.Getenv("COMMENTD_DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	if cfg.Storage.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: get home directory: %w", err)
		}
		cfg.Storage.DataDir = filepath.Join(homeDir, ".commentd", "data")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations commentd cannot run with.
func (c *Config) Validate() error {
	if c.EncryptionSecret == "" {
		return fmt.Errorf("config: %s must be set", EnvSecret)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server addr must not be empty")
	}
	if c.Automation.NavigationTimeoutSeconds <= 0 ||
		c.Automation.SelectorTimeoutSeconds <= 0 ||
		c.Automation.LoginWaitSeconds <= 0 {
		return fmt.Errorf("config: automation timeouts must be positive")
	}
	if c.Automation.MaxBatchSize <= 0 {
		return fmt.Errorf("config: max batch size must be positive")
	}
	if c.Automation.InterItemDelaySeconds < 0 {
		return fmt.Errorf("config: inter item delay must not be negative")
	}
	return nil
}

// NavigationTimeout returns the navigation budget as a duration.
func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Automation.NavigationTimeoutSeconds) * time.Second
}

// SelectorTimeout returns the element wait budget as a duration.
func (c *Config) SelectorTimeout() time.Duration {
	return time.Duration(c.Automation.SelectorTimeoutSeconds) * time.Second
}

// LoginWait returns the login capture window as a duration.
func (c *Config) LoginWait() time.Duration {
	return time.Duration(c.Automation.LoginWaitSeconds) * time.Second
}

// InterItemDelay returns the batch pacing delay as a duration.
func (c *Config) InterItemDelay() time.Duration {
	return time.Duration(c.Automation.InterItemDelaySeconds) * time.Second
}
