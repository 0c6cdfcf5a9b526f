package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"crate/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "crate")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.IndexPath != filepath.Join(wantData, "discogs_barcodes.db") {
		t.Fatalf("unexpected index path: %q", cfg.Paths.IndexPath)
	}
	if cfg.Dump.Segments != 8 {
		t.Fatalf("expected 8 segments by default, got %d", cfg.Dump.Segments)
	}
	if cfg.Ingest.CommitEvery != 10000 {
		t.Fatalf("expected commit_every 10000, got %d", cfg.Ingest.CommitEvery)
	}
	if !cfg.InteractiveSelection() {
		t.Fatal("expected interactive selection by default")
	}
	if got := cfg.DumpURL(); !strings.HasSuffix(got, "/data/2025/discogs_20250601_releases.xml.gz") {
		t.Fatalf("unexpected dump url %q", got)
	}
	if got := cfg.DumpPath(); got != filepath.Join(wantData, "dumps", "discogs_20250601_releases.xml.gz") {
		t.Fatalf("unexpected dump path %q", got)
	}
	if got := cfg.InventoryPath(); got != filepath.Join(wantData, "albums", config.InventoryFileName) {
		t.Fatalf("unexpected inventory path %q", got)
	}
}

func TestLoadCustomConfigFillsFromDataDir(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	custom := map[string]any{
		"paths": map[string]any{
			"data_dir":   "~/crate-data",
			"albums_dir": "",
		},
		"dump": map[string]any{
			"segments": 4,
		},
		"resolver": map[string]any{
			"selection": "FIRST",
		},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be loaded from %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	dataDir := filepath.Join(tempHome, "crate-data")
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.AlbumsDir != filepath.Join(dataDir, "albums") {
		t.Fatalf("expected albums dir under data dir, got %q", cfg.Paths.AlbumsDir)
	}
	if cfg.Dump.Segments != 4 {
		t.Fatalf("expected 4 segments, got %d", cfg.Dump.Segments)
	}
	if cfg.InteractiveSelection() {
		t.Fatal("expected first-match selection")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.AlbumsDir); err != nil || !info.IsDir() {
		t.Fatalf("expected albums dir to exist: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"selection", func(c *config.Config) { c.Resolver.Selection = "random" }, "resolver.selection"},
		{"segments", func(c *config.Config) { c.Dump.Segments = 1000 }, "dump.segments"},
		{"base url", func(c *config.Config) { c.Dump.BaseURL = "ftp://example.com" }, "dump.base_url"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"same paths", func(c *config.Config) { c.Paths.AssociationsPath = c.Paths.IndexPath }, "must differ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to mention %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
