package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"crate/internal/fileutil"
	"crate/internal/logging"
	"crate/internal/services"
)

const (
	defaultSegments       = 8
	defaultRetries        = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	probeTimeout          = 30 * time.Second
	stage                 = "fetch"
)

// Options configures a Fetcher.
type Options struct {
	Client         *http.Client
	Segments       int
	Retries        int
	RetryBaseDelay time.Duration
	Logger         *slog.Logger
	// OnProgress receives the aggregate bytes received. Calls are serialized
	// and each reported value is larger than the one before it.
	OnProgress func(received, total int64)
}

// Result describes a completed fetch.
type Result struct {
	Path     string
	Bytes    int64
	Segments int
	Skipped  bool
}

// Fetcher performs segmented downloads.
type Fetcher struct {
	client     *http.Client
	segments   int
	retries    int
	baseDelay  time.Duration
	logger     *slog.Logger
	onProgress func(received, total int64)
}

// New constructs a Fetcher, filling unset options with defaults.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client:     opts.Client,
		segments:   opts.Segments,
		retries:    opts.Retries,
		baseDelay:  opts.RetryBaseDelay,
		logger:     logging.NewComponentLogger(opts.Logger, "fetch"),
		onProgress: opts.OnProgress,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.segments <= 0 {
		f.segments = defaultSegments
	}
	if f.retries < 0 {
		f.retries = 0
	}
	if f.baseDelay <= 0 {
		f.baseDelay = defaultRetryBaseDelay
	}
	return f
}

// Probe returns the byte length of the remote object.
func (f *Fetcher) Probe(ctx context.Context, url string) (int64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, stage, "probe", "build request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, stage, "probe", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, services.Wrap(services.ErrTransient, stage, "probe", fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
	if resp.ContentLength < 0 {
		return 0, services.Wrap(services.ErrTransient, stage, "probe", "server did not report content length", nil)
	}
	return resp.ContentLength, nil
}

// Fetch downloads url into target. A target that already has the probed size
// is left untouched and reported as skipped.
func (f *Fetcher) Fetch(ctx context.Context, url, target string) (Result, error) {
	length, err := f.Probe(ctx, url)
	if err != nil {
		return Result{}, err
	}

	size, exists, err := fileutil.FileSize(target)
	if err != nil {
		return Result{}, services.Wrap(services.ErrPersistence, stage, "stat target", target, err)
	}
	if exists && size == length {
		f.logger.Info("download skipped; target already complete",
			logging.String("path", target),
			logging.String("size", humanize.Bytes(uint64(length))),
			logging.String(logging.FieldEventType, "fetch_skipped"),
		)
		return Result{Path: target, Bytes: length, Skipped: true}, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrPersistence, stage, "prepare", "create target directory", err)
	}

	ranges := Plan(length, f.segments)
	f.logger.Info("download starting",
		logging.String("url", url),
		logging.String("path", target),
		logging.String("size", humanize.Bytes(uint64(length))),
		logging.Int("segments", len(ranges)),
		logging.String(logging.FieldEventType, "fetch_started"),
	)

	start := time.Now()
	if err := f.download(ctx, url, target, length, ranges); err != nil {
		return Result{}, err
	}

	f.logger.Info("download complete",
		logging.String("path", target),
		logging.String("size", humanize.Bytes(uint64(length))),
		logging.Duration("elapsed", time.Since(start)),
		logging.String(logging.FieldEventType, "fetch_completed"),
	)
	return Result{Path: target, Bytes: length, Segments: len(ranges)}, nil
}

func (f *Fetcher) download(ctx context.Context, url, target string, length int64, ranges []Range) error {
	parts := make([]string, len(ranges))
	for i := range ranges {
		parts[i] = segmentPath(target, i)
	}
	tmpPath := target + ".tmp"
	defer func() {
		for _, part := range parts {
			_ = os.Remove(part)
		}
	}()

	counter := &Counter{}
	progress := &reporter{fn: f.onProgress}
	if length == 0 {
		return assemble(tmpPath, target, nil, 0)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		group.Go(func() error {
			return f.fetchSegment(groupCtx, url, parts[r.Index], r, length, counter, progress)
		})
	}
	if err := group.Wait(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return assemble(tmpPath, target, parts, length)
}

func (f *Fetcher) fetchSegment(ctx context.Context, url, path string, r Range, length int64, counter *Counter, progress *reporter) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.baseDelay
	policy.MaxElapsedTime = 0

	attempt := 0
	var highWater int64
	operation := func() error {
		attempt++
		return f.fetchAttempt(ctx, url, path, r, length, counter, &highWater, progress)
	}
	notify := func(err error, wait time.Duration) {
		logging.WarnWithContext(f.logger, "segment attempt failed; retrying", "fetch_segment_retry",
			logging.Int("segment", r.Index),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connectivity"),
			logging.String(logging.FieldImpact, "segment will be downloaded again"),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(f.retries)), ctx), notify)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, services.ErrPersistence) {
			marker = services.ErrPersistence
		}
		return services.Wrap(marker, stage, "segment", fmt.Sprintf("segment %d (%s) failed after %d attempt(s)", r.Index, r.Header(), attempt), err)
	}
	f.logger.Debug("segment complete",
		logging.Int("segment", r.Index),
		logging.Int64("bytes", r.Len()),
		logging.Int("attempts", attempt),
	)
	return nil
}

// fetchAttempt downloads one range into a fresh segment file. Progress is
// credited only past highWater, the furthest offset any earlier attempt for
// this range reached.
func (f *Fetcher) fetchAttempt(ctx context.Context, url, path string, r Range, length int64, counter *Counter, highWater *int64, progress *reporter) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Range", r.Header())

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPartialContent:
	case resp.StatusCode == http.StatusOK:
		return backoff.Permanent(errors.New("server ignored range request"))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("unexpected status %s", resp.Status)
	default:
		return backoff.Permanent(fmt.Errorf("unexpected status %s", resp.Status))
	}

	file, err := os.Create(path)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: create segment file: %w", services.ErrPersistence, err))
	}
	cw := &countingWriter{w: file, counter: counter, highWater: highWater, limit: r.Len(), total: length, progress: progress}
	_, copyErr := io.Copy(cw, io.LimitReader(resp.Body, r.Len()+1))
	closeErr := file.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return backoff.Permanent(fmt.Errorf("%w: close segment file: %w", services.ErrPersistence, closeErr))
	}
	if cw.written != r.Len() {
		return fmt.Errorf("segment size mismatch: got %d bytes, want %d", cw.written, r.Len())
	}
	return nil
}

// assemble concatenates segment files in range order into tmpPath, verifies
// the total, and renames it over target.
func assemble(tmpPath, target string, parts []string, length int64) error {
	out, err := os.Create(tmpPath)
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "assemble", "create temp file", err)
	}
	fail := func(op string, err error) error {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, stage, "assemble", op, err)
	}

	var total int64
	for _, part := range parts {
		n, err := fileutil.AppendFile(out, part)
		if err != nil {
			return fail("append segment", err)
		}
		total += n
	}
	if total != length {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrTransient, stage, "assemble", fmt.Sprintf("assembled %d bytes, expected %d", total, length), nil)
	}
	if err := out.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, stage, "assemble", "close temp file", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, stage, "assemble", "rename into place", err)
	}
	return nil
}

func segmentPath(target string, index int) string {
	return fmt.Sprintf("%s.part%02d", target, index)
}
