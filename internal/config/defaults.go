package config

// InventoryFileName is the master inventory digest stored beside the album records.
const InventoryFileName = "cd_inventory.json"

// Selection policies for multiple local matches.
const (
	SelectionInteractive = "interactive"
	SelectionFirst       = "first"
)

const (
	defaultDataDir          = "~/.local/share/crate"
	defaultAlbumsDir        = "~/.local/share/crate/albums"
	defaultIndexPath        = "~/.local/share/crate/discogs_barcodes.db"
	defaultAssociationsPath = "~/.local/share/crate/barcode_database.json"
	defaultDumpDir          = "~/.local/share/crate/dumps"
	defaultLogDir           = "~/.local/share/crate/logs"
	defaultDumpBaseURL      = "https://discogs-data-dumps.s3-us-west-2.amazonaws.com/data/2025/"
	defaultDumpFileName     = "discogs_20250601_releases.xml.gz"
	defaultDumpSegments     = 8
	defaultSegmentRetries   = 3
	defaultCommitEvery      = 10000
	defaultProgressBucket   = 5
	defaultSelection        = SelectionInteractive
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:          defaultDataDir,
			AlbumsDir:        defaultAlbumsDir,
			IndexPath:        defaultIndexPath,
			AssociationsPath: defaultAssociationsPath,
			DumpDir:          defaultDumpDir,
			LogDir:           defaultLogDir,
		},
		Dump: Dump{
			BaseURL:        defaultDumpBaseURL,
			FileName:       defaultDumpFileName,
			Segments:       defaultDumpSegments,
			SegmentRetries: defaultSegmentRetries,
		},
		Ingest: Ingest{
			CommitEvery:    defaultCommitEvery,
			ProgressBucket: defaultProgressBucket,
		},
		Resolver: Resolver{
			Selection: defaultSelection,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
