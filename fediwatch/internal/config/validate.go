package config

import (
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func init() {
	// Report field names as they appear in the YAML file.
	validation.ErrorTag = "yaml"
}

var (
	wsURL   = regexp.MustCompile(`^wss?://`)
	httpURL = regexp.MustCompile(`^https?://[^/\s]+`)
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	seen := make(map[string]bool, len(c.Pages))
	for i := range c.Pages {
		p := &c.Pages[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pages[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("pages[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
		if p.Attach && c.Browser.Remote == "" {
			return fmt.Errorf("pages[%d]: attach requires browser.remote", i)
		}
	}
	if err := c.Scan.Validate(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	for i := range c.Sinks {
		if err := c.Sinks[i].Validate(); err != nil {
			return fmt.Errorf("sinks[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate validates the browser configuration.
func (c *BrowserConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Remote, validation.Match(wsURL).Error("must be a ws:// or wss:// URL")),
		validation.Field(&c.Stealth, validation.Required, validation.In("headless", "headful")),
		validation.Field(&c.ResourceBlocking, validation.Each(validation.In("images", "fonts", "media", "stylesheets"))),
	)
}

// Validate validates a page.
func (c *PageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.URL, validation.Required, validation.Match(httpURL).Error("must be an http(s) URL")),
	)
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Min(100*time.Millisecond)),
	)
}

// Validate validates a sink.
func (c *SinkConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In("stdout", "file")),
		validation.Field(&c.Path, validation.When(c.Type == "file", validation.Required)),
	)
}
