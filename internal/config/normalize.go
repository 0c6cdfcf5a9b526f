package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDump()
	c.normalizeIngest()
	c.normalizeResolver()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	// Unset locations live under the data directory.
	fill := func(value *string, name string) {
		if strings.TrimSpace(*value) == "" {
			*value = filepath.Join(c.Paths.DataDir, name)
		}
	}
	fill(&c.Paths.AlbumsDir, "albums")
	fill(&c.Paths.IndexPath, "discogs_barcodes.db")
	fill(&c.Paths.AssociationsPath, "barcode_database.json")
	fill(&c.Paths.DumpDir, "dumps")
	fill(&c.Paths.LogDir, "logs")

	fields := []struct {
		name  string
		value *string
	}{
		{"paths.albums_dir", &c.Paths.AlbumsDir},
		{"paths.index_path", &c.Paths.IndexPath},
		{"paths.associations_path", &c.Paths.AssociationsPath},
		{"paths.dump_dir", &c.Paths.DumpDir},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		if *field.value, err = expandPath(*field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	return nil
}

func (c *Config) normalizeDump() {
	c.Dump.BaseURL = strings.TrimSpace(c.Dump.BaseURL)
	if c.Dump.BaseURL == "" {
		c.Dump.BaseURL = defaultDumpBaseURL
	}
	c.Dump.FileName = strings.TrimSpace(c.Dump.FileName)
	if c.Dump.FileName == "" {
		c.Dump.FileName = defaultDumpFileName
	}
	if c.Dump.Segments <= 0 {
		c.Dump.Segments = defaultDumpSegments
	}
	if c.Dump.SegmentRetries < 0 {
		c.Dump.SegmentRetries = 0
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.CommitEvery <= 0 {
		c.Ingest.CommitEvery = defaultCommitEvery
	}
	if c.Ingest.ProgressBucket <= 0 {
		c.Ingest.ProgressBucket = defaultProgressBucket
	}
}

func (c *Config) normalizeResolver() {
	c.Resolver.Selection = strings.ToLower(strings.TrimSpace(c.Resolver.Selection))
	if c.Resolver.Selection == "" {
		c.Resolver.Selection = defaultSelection
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
