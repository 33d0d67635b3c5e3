// Package config provides YAML-based configuration loading for ragline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level ragline configuration, loaded from
// ~/.ragline/config.yaml. Every field has a working default, so a missing
// config file is not an error.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	APIPrefix      string        `yaml:"api_prefix"`
	StatePath      string        `yaml:"state_path"`
	LogPath        string        `yaml:"log_path"`
	CallbackPort   int           `yaml:"callback_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Dir returns the ragline state directory (~/.ragline).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	return filepath.Join(home, ".ragline"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("RAGLINE_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("RAGLINE_STATE"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("RAGLINE_CALLBACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.CallbackPort = port
		}
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() error {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8000"
	}
	if c.APIPrefix == "" {
		c.APIPrefix = "/api/v1"
	}
	if c.CallbackPort == 0 {
		c.CallbackPort = 53682
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 90 * time.Second
	}
	if c.StatePath == "" || c.LogPath == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if c.StatePath == "" {
			c.StatePath = filepath.Join(dir, "state.db")
		}
		if c.LogPath == "" {
			c.LogPath = filepath.Join(dir, "ragline.log")
		}
	}
	return nil
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("config: api_url is required")
	}
	if c.CallbackPort < 1 || c.CallbackPort > 65535 {
		return fmt.Errorf("config: callback_port %d out of range", c.CallbackPort)
	}
	return nil
}

// BaseURL is the full API root, prefix included.
func (c *Config) BaseURL() string {
	return c.APIURL + c.APIPrefix
}
