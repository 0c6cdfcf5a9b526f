package index

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/gofrs/flock"

	"crate/internal/dump"
	"crate/internal/logging"
	"crate/internal/services"
)

const defaultCommitEvery = 10000

// ErrLocked indicates another process is rebuilding the index.
var ErrLocked = errors.New("index rebuild already in progress")

// ReleaseSource yields releases until io.EOF.
type ReleaseSource interface {
	Next() (dump.Release, error)
}

// RebuildOptions tunes a rebuild.
type RebuildOptions struct {
	RunID       string
	Source      string
	CommitEvery int
	// OnProgress is called after every source release with the running count.
	OnProgress func(releases int64)
}

// Stats summarizes a rebuild.
type Stats struct {
	Releases int64
	Rows     int64
	Batches  int64
	Duration time.Duration
}

// RebuildInfo describes the most recent completed rebuild.
type RebuildInfo struct {
	RunID       string
	Source      string
	Releases    int64
	Rows        int64
	StartedAt   time.Time
	CompletedAt time.Time
}

// Rebuild clears the index and upserts one row per barcode of every release
// produced by src. A later release sharing a barcode replaces the earlier row.
// Work is committed every CommitEvery releases.
func (s *Store) Rebuild(ctx context.Context, src ReleaseSource, opts RebuildOptions) (Stats, error) {
	lock := flock.New(s.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Stats{}, services.Wrap(services.ErrPersistence, stage, "rebuild", "acquire lock", err)
	}
	if !locked {
		return Stats{}, services.Wrap(services.ErrPersistence, stage, "rebuild", s.lockPath, ErrLocked)
	}
	defer func() { _ = lock.Unlock() }()

	commitEvery := opts.CommitEvery
	if commitEvery <= 0 {
		commitEvery = defaultCommitEvery
	}

	started := time.Now()
	if err := s.recordStart(ctx, opts, started); err != nil {
		return Stats{}, err
	}

	b := &batch{store: s}
	if err := b.begin(ctx); err != nil {
		return Stats{}, err
	}
	defer b.rollback()

	if _, err := b.tx.ExecContext(ctx, "DELETE FROM releases"); err != nil {
		return Stats{}, services.Wrap(services.ErrPersistence, stage, "rebuild", "clear releases", err)
	}

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rel, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}

		for _, pair := range rel.Pairs() {
			if err := upsert(ctx, b.stmt, Flatten(pair.Release, pair.Barcode)); err != nil {
				return stats, err
			}
			stats.Rows++
		}
		stats.Releases++
		if opts.OnProgress != nil {
			opts.OnProgress(stats.Releases)
		}

		if stats.Releases%int64(commitEvery) == 0 {
			if err := b.commit(); err != nil {
				return stats, err
			}
			stats.Batches++
			s.logger.Debug("index batch committed",
				logging.Int64("releases", stats.Releases),
				logging.Int64("rows", stats.Rows),
			)
			if err := b.begin(ctx); err != nil {
				return stats, err
			}
		}
	}

	if err := b.commit(); err != nil {
		return stats, err
	}
	stats.Batches++
	stats.Duration = time.Since(started)

	if err := s.recordCompletion(ctx, opts, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// LastRebuild returns the most recent completed rebuild, if any.
func (s *Store) LastRebuild(ctx context.Context) (RebuildInfo, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, source, release_count, row_count, started_at, completed_at
         FROM rebuilds WHERE completed_at IS NOT NULL
         ORDER BY completed_at DESC LIMIT 1`)

	var (
		info      RebuildInfo
		started   string
		completed string
	)
	err := row.Scan(&info.RunID, &info.Source, &info.Releases, &info.Rows, &started, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return RebuildInfo{}, false, nil
	}
	if err != nil {
		return RebuildInfo{}, false, services.Wrap(services.ErrPersistence, stage, "last rebuild", "", err)
	}
	info.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	info.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
	return info, true, nil
}

func (s *Store) recordStart(ctx context.Context, opts RebuildOptions, started time.Time) error {
	if opts.RunID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rebuilds (run_id, source, started_at) VALUES (?, ?, ?)
         ON CONFLICT(run_id) DO UPDATE SET started_at = excluded.started_at, completed_at = NULL`,
		opts.RunID, opts.Source, started.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "rebuild", "record start", err)
	}
	return nil
}

func (s *Store) recordCompletion(ctx context.Context, opts RebuildOptions, stats Stats) error {
	if opts.RunID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE rebuilds SET release_count = ?, row_count = ?, completed_at = ? WHERE run_id = ?`,
		stats.Releases, stats.Rows, time.Now().UTC().Format(time.RFC3339Nano), opts.RunID)
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "rebuild", "record completion", err)
	}
	return nil
}

// batch holds the open transaction and prepared upsert of one commit window.
type batch struct {
	store *Store
	tx    *sql.Tx
	stmt  *sql.Stmt
}

func (b *batch) begin(ctx context.Context) error {
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "rebuild", "begin batch", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		_ = tx.Rollback()
		return services.Wrap(services.ErrPersistence, stage, "rebuild", "prepare upsert", err)
	}
	b.tx, b.stmt = tx, stmt
	return nil
}

func (b *batch) commit() error {
	if b.tx == nil {
		return nil
	}
	_ = b.stmt.Close()
	err := b.tx.Commit()
	b.tx, b.stmt = nil, nil
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "rebuild", "commit batch", err)
	}
	return nil
}

func (b *batch) rollback() {
	if b.tx == nil {
		return
	}
	_ = b.stmt.Close()
	_ = b.tx.Rollback()
	b.tx, b.stmt = nil, nil
}
