// Package dump streams release records out of a gzip-compressed Discogs
// releases XML export.
//
// The export is tens of gigabytes uncompressed, so the Extractor never builds
// a document tree: it walks the token stream, decodes one <release> element at
// a time into a transient struct, converts it into a Release, and drops the
// element before reading the next one. Memory use stays flat regardless of
// dump size. A release that cannot be converted (missing or non-numeric id,
// an element that fails to decode) is logged, counted, and skipped; gzip
// corruption and truncated XML end the stream with an error.
//
// Text fields are trimmed and normalized to Unicode NFC so the same title
// typed in different compositions compares equal downstream.
package dump
