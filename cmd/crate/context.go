package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"crate/internal/albums"
	"crate/internal/association"
	"crate/internal/config"
	"crate/internal/index"
	"crate/internal/logging"
	"crate/internal/preflight"
	"crate/internal/resolver"
)

type globalFlags struct {
	config  string
	json    bool
	batch   bool
	verbose bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger writes to the log file, and to stderr as well with --verbose.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if c.flags.verbose {
			c.logger, c.loggerErr = logging.NewFromConfig(cfg)
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.flags.json
}

// interactive reports whether cmd may prompt. Piped files never prompt;
// in-memory readers do so scripted sessions behave like a terminal.
func (c *commandContext) interactive(cmd *cobra.Command) bool {
	if c.flags.batch || c.flags.json {
		return false
	}
	return isInteractiveReader(cmd.InOrStdin())
}

func isInteractiveReader(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return true
	}
	return isTerminal(file)
}

// workspace bundles the stores a scan-time command works against.
type workspace struct {
	cfg          *config.Config
	logger       *slog.Logger
	index        *index.Store
	library      *albums.Library
	associations *association.Store
}

// openWorkspace opens the stores. A read-only workspace never creates the
// index; when it has not been built the workspace carries no index and every
// lookup reports the index as unavailable.
func (c *commandContext) openWorkspace(ctx context.Context, readOnly bool) (*workspace, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	var idx *index.Store
	if !readOnly || indexAvailable(ctx, cfg.Paths.IndexPath, logger) {
		if idx, err = index.Open(cfg.Paths.IndexPath, logger); err != nil {
			return nil, err
		}
	}
	assoc, err := association.Open(cfg.Paths.AssociationsPath, logger)
	if err != nil {
		if idx != nil {
			idx.Close()
		}
		return nil, err
	}
	return &workspace{
		cfg:          cfg,
		logger:       logger,
		index:        idx,
		library:      albums.NewLibrary(cfg.Paths.AlbumsDir, logger),
		associations: assoc,
	}, nil
}

func indexAvailable(ctx context.Context, path string, logger *slog.Logger) bool {
	status := preflight.ProbeIndex(ctx, path)
	if status.Exists && status.Err == nil {
		return true
	}
	attrs := []logging.Attr{
		logging.String("path", path),
		logging.String(logging.FieldErrorHint, "run crate ingest or crate index sample"),
		logging.String(logging.FieldImpact, "barcodes resolve against local records only"),
	}
	if status.Err != nil {
		attrs = append(attrs, logging.Error(status.Err))
	}
	logging.WarnWithContext(logger, "release index not available", "index_unavailable", attrs...)
	return false
}

func (w *workspace) Close() error {
	if w.index == nil {
		return nil
	}
	return w.index.Close()
}

func (w *workspace) resolver(chooser resolver.Chooser, sources ...resolver.LocalSource) *resolver.Resolver {
	if w.index == nil {
		return resolver.New(nil, chooser, w.logger, sources...)
	}
	return resolver.New(w.index, chooser, w.logger, sources...)
}

// chooser picks the multi-match policy: prompt when allowed and configured,
// otherwise first match.
func (c *commandContext) chooser(cmd *cobra.Command, p *prompter) resolver.Chooser {
	if !c.interactive(cmd) || !c.config.InteractiveSelection() {
		return resolver.FirstMatch{}
	}
	return p
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
