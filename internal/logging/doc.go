// Package logging assembles structured slog loggers and formatting helpers used
// across crate components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so ingestion and scan code can
// tag log lines with run IDs, stages, and batch correlation IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail, and
// a progress sampler that keeps long-running downloads and index rebuilds from
// flooding the log.
package logging
