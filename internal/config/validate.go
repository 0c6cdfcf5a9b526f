package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const maxDumpSegments = 64

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDump(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Paths.IndexPath == c.Paths.AssociationsPath {
		return errors.New("paths.index_path and paths.associations_path must differ")
	}
	return nil
}

func (c *Config) validateDump() error {
	parsed, err := url.Parse(c.Dump.BaseURL)
	if err != nil {
		return fmt.Errorf("dump.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("dump.base_url must be an http(s) URL, got %q", c.Dump.BaseURL)
	}
	if c.Dump.Segments > maxDumpSegments {
		return fmt.Errorf("dump.segments must be between 1 and %d", maxDumpSegments)
	}
	if c.Dump.RequestTimeout < 0 {
		return errors.New("dump.request_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateResolver() error {
	switch c.Resolver.Selection {
	case SelectionInteractive, SelectionFirst:
		return nil
	default:
		return fmt.Errorf("resolver.selection must be %q or %q, got %q", SelectionInteractive, SelectionFirst, c.Resolver.Selection)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
