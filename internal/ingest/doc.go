// Package ingest runs the build-time pipeline: fetch the vendor release dump,
// stream it through the extractor, and rebuild the barcode index from it.
//
// Each Build gets its own run id, carried on the context so every log line of
// the run can be correlated, and recorded in the index's rebuild history.
// Progress is logged in sampled buckets instead of per release.
package ingest
