package ingest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"crate/internal/config"
	"crate/internal/dump"
	"crate/internal/fetch"
	"crate/internal/fileutil"
	"crate/internal/index"
	"crate/internal/logging"
	"crate/internal/services"
)

const (
	stageDownload = "download"
	stageBuild    = "ingest"
)

// Options wires optional collaborators into a Pipeline.
type Options struct {
	Logger *slog.Logger
	Client *http.Client
	// OnDownload receives aggregate bytes received during Download.
	OnDownload func(received, total int64)
	// OnBuild receives the fraction of the dump consumed and the release count.
	OnBuild func(fraction float64, releases int64)
}

// Report summarizes one index build.
type Report struct {
	RunID     string
	Source    string
	Releases  int64
	Malformed int64
	Barcodes  int64
	Rows      int64
	Batches   int64
	Duration  time.Duration
}

// Pipeline downloads the dump and rebuilds the index.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher *fetch.Fetcher
	onBuild func(float64, int64)
}

// New constructs a Pipeline for cfg.
func New(cfg *config.Config, opts Options) *Pipeline {
	logger := logging.NewComponentLogger(opts.Logger, "ingest")
	client := opts.Client
	if client == nil && cfg.Dump.RequestTimeout > 0 {
		client = &http.Client{Timeout: time.Duration(cfg.Dump.RequestTimeout) * time.Second}
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		fetcher: fetch.New(fetch.Options{
			Client:     client,
			Segments:   cfg.Dump.Segments,
			Retries:    cfg.Dump.SegmentRetries,
			Logger:     opts.Logger,
			OnProgress: opts.OnDownload,
		}),
		onBuild: opts.OnBuild,
	}
}

// Download fetches the configured dump into the dump directory.
func (p *Pipeline) Download(ctx context.Context) (fetch.Result, error) {
	ctx = services.WithStage(ctx, stageDownload)
	return p.fetcher.Fetch(ctx, p.cfg.DumpURL(), p.cfg.DumpPath())
}

// Build rebuilds the index from the downloaded dump.
func (p *Pipeline) Build(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString(), Source: p.cfg.DumpPath()}
	ctx = services.WithRunID(ctx, report.RunID)
	ctx = services.WithStage(ctx, stageBuild)
	logger := logging.WithContext(ctx, p.logger)

	size, exists, err := fileSize(report.Source)
	if err != nil {
		return report, err
	}
	if !exists {
		return report, services.Wrap(services.ErrConfiguration, stageBuild, "open dump", report.Source+" not found; run download first", nil)
	}

	extractor, err := dump.Open(report.Source, p.logger)
	if err != nil {
		return report, err
	}
	defer extractor.Close()

	store, err := index.Open(p.cfg.Paths.IndexPath, p.logger)
	if err != nil {
		return report, err
	}
	defer store.Close()

	logger.Info("index build starting",
		logging.String("source", report.Source),
		logging.String("size", humanize.Bytes(uint64(size))),
		logging.String("index", store.Path()),
		logging.Int("commit_every", p.cfg.Ingest.CommitEvery),
		logging.String(logging.FieldEventType, "ingest_started"),
	)

	sampler := logging.NewProgressSampler(p.cfg.Ingest.ProgressBucket)
	stats, err := store.Rebuild(ctx, extractor, index.RebuildOptions{
		RunID:       report.RunID,
		Source:      report.Source,
		CommitEvery: p.cfg.Ingest.CommitEvery,
		OnProgress: func(releases int64) {
			fraction := extractor.Progress()
			if p.onBuild != nil {
				p.onBuild(fraction, releases)
			}
			if sampler.ShouldLog(fraction*100, stageBuild) {
				logger.Info("index build progress",
					logging.Float64(logging.FieldProgressPercent, fraction*100),
					logging.String("releases", humanize.Comma(releases)),
				)
			}
		},
	})

	ext := extractor.Stats()
	report.Releases = ext.Releases
	report.Malformed = ext.Malformed
	report.Barcodes = ext.Barcodes
	report.Rows = stats.Rows
	report.Batches = stats.Batches
	report.Duration = stats.Duration
	if err != nil {
		logging.ErrorWithContext(logger, "index build failed", "ingest_failed",
			logging.Error(err),
			logging.Int64("releases", report.Releases),
			logging.String(logging.FieldErrorHint, "rerun ingest; batches committed before the failure remain in the index"),
			logging.String(logging.FieldImpact, "index is partially rebuilt"),
		)
		return report, err
	}

	if report.Malformed > 0 {
		logging.WarnWithContext(logger, "malformed releases skipped", "ingest_malformed",
			logging.Int64("malformed", report.Malformed),
			logging.String(logging.FieldImpact, "skipped releases are not searchable"),
		)
	}
	logger.Info("index build complete",
		logging.String("releases", humanize.Comma(report.Releases)),
		logging.String("rows", humanize.Comma(report.Rows)),
		logging.Int64("batches", report.Batches),
		logging.Duration("elapsed", report.Duration),
		logging.String(logging.FieldEventType, "ingest_completed"),
	)
	return report, nil
}

// Run optionally downloads the dump, then builds the index.
func (p *Pipeline) Run(ctx context.Context, download bool) (Report, error) {
	if download {
		if _, err := p.Download(ctx); err != nil {
			return Report{}, err
		}
	}
	return p.Build(ctx)
}

func fileSize(path string) (int64, bool, error) {
	size, exists, err := fileutil.FileSize(path)
	if err != nil {
		return 0, false, services.Wrap(services.ErrPersistence, stageBuild, "stat dump", path, err)
	}
	return size, exists, nil
}
