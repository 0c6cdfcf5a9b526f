package preflight

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"crate/internal/fileutil"
	"crate/internal/index"
	"crate/internal/logging"
)

// IndexStatus is a snapshot of the barcode index for status displays.
type IndexStatus struct {
	Path        string
	Exists      bool
	Size        int64
	Rows        int64
	LastRebuild *index.RebuildInfo
	Err         error
}

// ProbeIndex inspects the index at path without creating it.
func ProbeIndex(ctx context.Context, path string) IndexStatus {
	status := IndexStatus{Path: path}
	size, exists, err := fileutil.FileSize(path)
	if err != nil || !exists {
		status.Err = err
		return status
	}
	status.Exists = true
	status.Size = size

	store, err := index.Open(path, logging.NewNop())
	if err != nil {
		status.Err = err
		return status
	}
	defer store.Close()

	if status.Rows, err = store.Count(ctx); err != nil {
		status.Err = err
		return status
	}
	info, ok, err := store.LastRebuild(ctx)
	if err != nil {
		status.Err = err
		return status
	}
	if ok {
		status.LastRebuild = &info
	}
	return status
}

// Detail renders a display-friendly summary for status UIs.
func (s IndexStatus) Detail() string {
	if !s.Exists {
		return "Not built"
	}
	detail := fmt.Sprintf("%s barcodes, %s", humanize.Comma(s.Rows), humanize.Bytes(uint64(s.Size)))
	if s.LastRebuild != nil {
		detail += fmt.Sprintf(", rebuilt %s", humanize.RelTime(s.LastRebuild.CompletedAt, time.Now(), "ago", "from now"))
	}
	return detail
}
