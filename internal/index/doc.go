// Package index persists the barcode lookup table built from a release dump.
//
// The store is a single SQLite database (modernc.org/sqlite, no cgo) with one
// releases row per distinct normalized barcode and a unique index on that
// column, so lookups stay constant-time regardless of dump size. Rebuild clears
// the table and re-ingests a release stream, committing in batches so a dump
// of millions of releases never sits in one transaction. A rebuild that fails
// partway leaves earlier batches committed: readers may observe a partially
// replaced index until the next successful rebuild.
//
// Only one process may rebuild at a time; Rebuild takes an exclusive advisory
// lock beside the database file and fails fast when another writer holds it.
package index
