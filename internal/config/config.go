package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations for local state.
type Paths struct {
	DataDir          string `toml:"data_dir"`
	AlbumsDir        string `toml:"albums_dir"`
	IndexPath        string `toml:"index_path"`
	AssociationsPath string `toml:"associations_path"`
	DumpDir          string `toml:"dump_dir"`
	LogDir           string `toml:"log_dir"`
}

// Dump describes where the vendor release dump is fetched from and how.
type Dump struct {
	BaseURL        string `toml:"base_url"`
	FileName       string `toml:"file_name"`
	Segments       int    `toml:"segments"`
	SegmentRetries int    `toml:"segment_retries"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Ingest contains index rebuild tuning.
type Ingest struct {
	CommitEvery    int     `toml:"commit_every"`
	ProgressBucket float64 `toml:"progress_bucket"`
}

// Resolver contains barcode resolution settings.
type Resolver struct {
	// Selection is "interactive" (prompt when several local records match) or
	// "first" (always take the first match in encounter order).
	Selection string `toml:"selection"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for crate.
//
// Configuration sections by subsystem:
//   - Paths: data, album records, index, association store, dump and log locations
//   - Dump: vendor dump source and segmented download settings
//   - Ingest: index rebuild batching and progress sampling
//   - Resolver: multi-match selection policy
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Dump     Dump     `toml:"dump"`
	Ingest   Ingest   `toml:"ingest"`
	Resolver Resolver `toml:"resolver"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/crate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("crate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories crate writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.AlbumsDir,
		c.Paths.DumpDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.IndexPath),
		filepath.Dir(c.Paths.AssociationsPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DumpURL returns the full URL of the configured release dump.
func (c *Config) DumpURL() string {
	return strings.TrimRight(c.Dump.BaseURL, "/") + "/" + strings.TrimLeft(c.Dump.FileName, "/")
}

// DumpPath returns the local path the release dump is downloaded to.
func (c *Config) DumpPath() string {
	return filepath.Join(c.Paths.DumpDir, filepath.Base(c.Dump.FileName))
}

// InventoryPath returns the location of the master inventory digest.
func (c *Config) InventoryPath() string {
	return filepath.Join(c.Paths.AlbumsDir, InventoryFileName)
}

// LockPath returns the lock file guarding index rebuilds.
func (c *Config) LockPath() string {
	return c.Paths.IndexPath + ".lock"
}

// InteractiveSelection reports whether multi-match selection should prompt.
func (c *Config) InteractiveSelection() bool {
	return c.Resolver.Selection == SelectionInteractive
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
