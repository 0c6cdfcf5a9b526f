package testsupport

import (
	"path/filepath"
	"testing"

	"crate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.AlbumsDir = filepath.Join(base, "albums")
	cfgVal.Paths.IndexPath = filepath.Join(base, "discogs_barcodes.db")
	cfgVal.Paths.AssociationsPath = filepath.Join(base, "barcode_database.json")
	cfgVal.Paths.DumpDir = filepath.Join(base, "dumps")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Resolver.Selection = config.SelectionFirst

	builder := &configBuilder{
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithDumpSource points the dump settings at a test server.
func WithDumpSource(baseURL, fileName string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dump.BaseURL = baseURL
		b.cfg.Dump.FileName = fileName
	}
}

// WithCommitEvery overrides the rebuild batch size.
func WithCommitEvery(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.CommitEvery = n
	}
}
