// Package association maintains the barcode association document: a JSON
// object mapping each barcode to the album it was confirmed against.
//
// The document is small enough to hold in memory. Every mutation re-reads the
// file, applies the change, and rewrites the whole document through a temp
// file and rename, so a failed write never loses the previous contents. Key
// order from the file is preserved and is the iteration order for List and
// Search.
//
// A corrupt document is reported instead of being reset to empty.
package association
