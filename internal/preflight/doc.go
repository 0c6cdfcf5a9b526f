// Package preflight provides readiness checks for the filesystem paths, the
// barcode index and the dump source that crate depends on.
//
// These checks run in two contexts:
//   - The CLI "crate status" command runs RunAll and renders every result.
//   - "crate ingest" checks free space in the dump directory before a
//     download, so a multi-gigabyte fetch fails up front instead of midway.
//
// Network checks (CheckDumpSource) are opt-in and never part of RunAll.
package preflight
