package preflight

import (
	"context"

	"crate/internal/config"
)

// MinDumpFreeBytes is the free space required in the dump directory before a
// download is attempted.
const MinDumpFreeBytes uint64 = 16 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the local preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Albums directory", cfg.Paths.AlbumsDir),
		CheckDirectoryAccess("Dump directory", cfg.Paths.DumpDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Dump free space", cfg.Paths.DumpDir, MinDumpFreeBytes),
		CheckIndex(ctx, cfg.Paths.IndexPath),
		CheckAssociations(cfg.Paths.AssociationsPath),
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
