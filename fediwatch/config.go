package fediwatch

import (
	"github.com/hazyhaar/fedimark/fediwatch/internal/config"
)

// Config is the top-level fediwatch configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page to watch.
type PageConfig = config.PageConfig

// ScanConfig controls the augmentation scheduler.
type ScanConfig = config.ScanConfig

// DebugConfig controls the debug listener.
type DebugConfig = config.DebugConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// LoadConfigFile reads and validates a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with no pages.
func DefaultConfig() *Config {
	return config.Default()
}

// WatchConfigFile calls onChange with every valid revision of the file at
// path until ctx is done.
var WatchConfigFile = config.Watch
