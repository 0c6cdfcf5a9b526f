// Package resolver turns a scanned barcode into exactly one outcome:
// DUPLICATE when a local record already covers it, NEW when only the release
// index knows it, or NOT_FOUND.
//
// Local stores are searched first, in the order they were given, and their
// results are concatenated and deduplicated by value. Several local matches are
// narrowed to one by an injected Chooser; unattended callers use FirstMatch,
// which picks the first match in encounter order. An interactive chooser that
// reports ErrChooserUnavailable falls back to the same first-match rule, while
// an explicit cancel yields NoSelection.
//
// Resolution never writes: associating or writing records is a separate step
// taken by the caller after confirmation.
package resolver
