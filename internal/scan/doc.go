// Package scan drives barcode sessions: resolve each scanned code, reconcile
// the outcome into a canonical record, let a Decider confirm or correct it,
// and commit accepted records to a Sink.
//
// RunBatch processes many codes under one correlation id and never stops on a
// single failure; failures are counted and reported in the Summary.
package scan
