// Package albums manages the per-album JSON records and the inventory digest
// that aggregates them.
//
// Each album lives in its own file named "Artist - Title (Year).json" inside
// the albums directory, using the key names of the original collection format
// ("Artist", "Catalog #", "Discogs URL", ...). The Library searches those files
// by barcode, writes new records atomically, and merges every record into
// cd_inventory.json. The merge deduplicates by barcode so running it again
// over the same files never grows the inventory.
package albums
