// CLAUDE:SUMMARY Defines fediwatch config structs, parses YAML files, applies env overrides and defaults, validates with ozzo-validation.
// Package config handles fediwatch configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is parsed.
const (
	EnvRemote      = "FEDIWATCH_REMOTE"
	EnvDebugListen = "FEDIWATCH_DEBUG_LISTEN"
	EnvRecord      = "FEDIWATCH_RECORD"
)

// Config is the top-level fediwatch configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Pages   []PageConfig  `yaml:"pages"`
	Scan    ScanConfig    `yaml:"scan"`
	Debug   DebugConfig   `yaml:"debug"`
	Sinks   []SinkConfig  `yaml:"sinks"`

	// Record, when set, appends every observed response to this JSON-lines
	// file (zstd or gzip compressed by extension) for later replay.
	Record string `yaml:"record"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote            string        `yaml:"remote"` // ws:// DevTools URL; empty launches a local Chrome
	Stealth           string        `yaml:"stealth"` // headless | headful
	ResourceBlocking  []string      `yaml:"resource_blocking"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
}

// PageConfig defines a page to watch.
type PageConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
	// Attach reuses an open tab whose URL starts with URL instead of
	// opening a new one. Only meaningful with a remote browser.
	Attach bool `yaml:"attach"`
}

// ScanConfig controls the augmentation scheduler.
type ScanConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DebugConfig controls the read-only debug listener.
type DebugConfig struct {
	Listen string `yaml:"listen"` // empty disables it
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | file
	Path string `yaml:"path"` // for file
}

// LoadFile reads, completes and validates a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is LoadFile for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with no pages, for the single-URL and
// replay modes.
func Default() *Config {
	cfg := &Config{
		Browser: BrowserConfig{ResourceBlocking: []string{"images", "fonts", "media"}},
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRemote); v != "" {
		c.Browser.Remote = v
	}
	if v := os.Getenv(EnvDebugListen); v != "" {
		c.Debug.Listen = v
	}
	if v := os.Getenv(EnvRecord); v != "" {
		c.Record = v
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
	if c.Scan.Interval <= 0 {
		c.Scan.Interval = time.Second
	}
	for i := range c.Pages {
		if c.Pages[i].ID == "" {
			c.Pages[i].ID = fmt.Sprintf("page-%d", i+1)
		}
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
}
