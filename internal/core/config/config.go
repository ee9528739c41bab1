// Package config handles configuration loading and validation for policyview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Render modes for the result panel.
const (
	RenderMarkdown = "markdown"
	RenderPlain    = "plain"
)

// Defaults applied when the config file omits a value.
const (
	DefaultEndpoint       = "http://localhost:5000"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodyBytes   = 2 << 20
	DefaultHistoryEntries = 100
	DefaultTheme          = "tokyo-night"
)

// Config holds the application configuration.
type Config struct {
	// Endpoint is the base URL of the accounting service. Lookups GET
	// {Endpoint}/{policy}/{date}.
	Endpoint       string        `yaml:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	UserAgent      string        `yaml:"user_agent"`
	History        HistoryConfig `yaml:"history"`
	TUI            TUIConfig     `yaml:"tui"`
	DataDir        string        `yaml:"-"` // set by caller, not from config file
}

// HistoryConfig controls the lookup history file.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// TUIConfig holds interactive form settings.
type TUIConfig struct {
	Theme  string `yaml:"theme"`
	Render string `yaml:"render"` // markdown or plain
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		RequestTimeout: DefaultRequestTimeout,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		UserAgent:      "policyview",
		History: HistoryConfig{
			MaxEntries: DefaultHistoryEntries,
		},
		TUI: TUIConfig{
			Theme:  DefaultTheme,
			Render: RenderMarkdown,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Endpoint == "" {
		c.Endpoint = defaults.Endpoint
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = defaults.History.MaxEntries
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.Render == "" {
		c.TUI.Render = defaults.TUI.Render
	}
}

// HistoryFile is where lookups are recorded.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history.json")
}
