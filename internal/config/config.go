// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"synapse/internal/layout"
)

// ServerURLEnv overrides server.base_url when set
const ServerURLEnv = "SYNAPSE_SERVER_URL"

type ServerConfig struct {
	BaseURL           string `yaml:"base_url"`
	RequestTimeout    int    `yaml:"request_timeout"`     // seconds
	StreamIdleTimeout int    `yaml:"stream_idle_timeout"` // seconds, 0 disables
}

type RetryConfig struct {
	Attempts int `yaml:"attempts"`
	Delay    int `yaml:"delay"`     // milliseconds
	MaxDelay int `yaml:"max_delay"` // milliseconds
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Retry   RetryConfig    `yaml:"retry"`
	Layout  layout.Options `yaml:"layout"`
	Logging LoggingConfig  `yaml:"logging"`
	Cache   CacheConfig    `yaml:"cache"`
}

// Load reads the config from the default path. A missing file yields the defaults.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := defaultConfig()
		applyEnv(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.BaseURL = "http://localhost:8001"
	cfg.Server.RequestTimeout = 30
	cfg.Server.StreamIdleTimeout = 300
	cfg.Retry.Attempts = 3
	cfg.Retry.Delay = 1000
	cfg.Retry.MaxDelay = 30000
	cfg.Layout = layout.DefaultOptions()
	cfg.Logging.Level = "info"
	cfg.Cache.Enabled = true
	return cfg
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = def.Retry.Attempts
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = def.Retry.Delay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = def.Retry.MaxDelay
	}
	// left_margin may legitimately be 0
	if cfg.Layout.TopMargin == 0 {
		cfg.Layout.TopMargin = def.Layout.TopMargin
	}
	if cfg.Layout.RowSpacing == 0 {
		cfg.Layout.RowSpacing = def.Layout.RowSpacing
	}
	if cfg.Layout.Pitch == 0 {
		cfg.Layout.Pitch = def.Layout.Pitch
	}
	if cfg.Layout.NodeWidth == 0 {
		cfg.Layout.NodeWidth = def.Layout.NodeWidth
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

func applyEnv(cfg *Config) {
	if url := os.Getenv(ServerURLEnv); url != "" {
		cfg.Server.BaseURL = url
	}
}

// RequestTimeout returns the per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// StreamIdleTimeout returns the idle timeout for the event stream
func (c *Config) StreamIdleTimeout() time.Duration {
	return time.Duration(c.Server.StreamIdleTimeout) * time.Second
}

// ConfigPath returns the default config file location
func ConfigPath() string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "synapse", "config.yaml")
}
