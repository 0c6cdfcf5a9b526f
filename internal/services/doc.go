// Package services defines shared utilities consumed by the ingestion and
// resolution components.
//
// Key responsibilities:
//   - Context helpers that stamp ingestion run IDs, stage names, and batch
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     transient I/O, malformed input, not found, or persistence problems so
//     callers can decide whether to continue a batch or stop.
//
// Core packages never print failures; they return errors built with Wrap and
// let the command layer turn them into one-line messages via Summary.
package services
