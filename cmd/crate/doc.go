// Package main hosts the crate CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the build-time pipeline (download,
// ingest, index maintenance) and the scan-time workflows: scanning barcodes
// into album JSON records, associating barcodes in the association store, and
// refreshing the inventory digest. It centralizes configuration resolution,
// logger setup and terminal detection so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
