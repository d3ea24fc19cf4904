package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "icabridge.yaml"

// Config holds all icabridge configuration.
type Config struct {
	// Sidecar process settings
	Sidecar SidecarConfig `yaml:"sidecar"`

	// Persisted settings (selected contacts)
	Store StoreConfig `yaml:"store"`

	// Parallel report runs
	Limits Limits `yaml:"limits"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sidecar: SidecarConfig{
			Command: "ica",
			Args:    []string{},
			Timeout: "120s",
			Env:     map[string]string{},
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    defaultStorePath(),
		},
		Limits: Limits{
			MaxConcurrentRuns: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".icabridge", "store.json")
	}
	return filepath.Join(dir, "icabridge", "store.json")
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults (with environment overrides applied).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if cmd := os.Getenv("ICA_COMMAND"); cmd != "" {
		c.Sidecar.Command = cmd
	}
	if path := os.Getenv("ICABRIDGE_STORE_PATH"); path != "" {
		c.Store.Path = path
	}
	if backend := os.Getenv("ICABRIDGE_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}
	if debug := os.Getenv("ICABRIDGE_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// GetSidecarTimeout returns the sidecar timeout as a duration.
func (c *Config) GetSidecarTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sidecar.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Sidecar.Command == "" {
		return fmt.Errorf("sidecar command not configured (set sidecar.command or ICA_COMMAND)")
	}

	validBackend := false
	for _, b := range ValidBackends {
		if c.Store.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid store backend: %s (valid: %v)", c.Store.Backend, ValidBackends)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path not configured")
	}

	return c.ValidateLimits()
}
