package albums

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"crate/internal/barcode"
	"crate/internal/config"
	"crate/internal/fileutil"
	"crate/internal/logging"
	"crate/internal/services"
)

const stage = "albums"

// Match is an album record and the file it was read from.
type Match struct {
	Path   string
	Record Record
}

// Library is the directory of album JSON records.
type Library struct {
	dir    string
	logger *slog.Logger
}

// NewLibrary returns a Library rooted at dir.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	return &Library{dir: dir, logger: logging.NewComponentLogger(logger, "albums")}
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// InventoryPath returns the location of the inventory digest.
func (l *Library) InventoryPath() string {
	return filepath.Join(l.dir, config.InventoryFileName)
}

// List reads every album record in sorted file name order. Files that cannot
// be read or decoded are logged and skipped.
func (l *Library) List(ctx context.Context) ([]Match, error) {
	paths, err := l.files()
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := readRecord(path)
		if err != nil {
			logging.WarnWithContext(l.logger, "skipping unreadable album record", "album_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix or remove the file"),
				logging.String(logging.FieldImpact, "album ignored for duplicate detection"),
			)
			continue
		}
		matches = append(matches, Match{Path: path, Record: rec})
	}
	return matches, nil
}

// Search returns every album whose barcode equals the normalized code, in
// file enumeration order.
func (l *Library) Search(ctx context.Context, code string) ([]Match, error) {
	code = barcode.Normalize(code)
	if code == "" {
		return nil, nil
	}
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []Match
	for _, m := range all {
		if barcode.Normalize(m.Record.Barcode) == code {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// Write persists rec as "<Artist - Title (Year)>.json" and returns its path.
// A file with the same name and barcode is replaced. When that name already
// holds a different barcode, the new record gets a " [<barcode>]" suffix.
func (l *Library) Write(rec Record) (string, error) {
	data, err := encode(rec)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stage, "write", "encode record", err)
	}
	path := l.targetPath(rec)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrPersistence, stage, "write", path, err)
	}
	l.logger.Info("album record written",
		logging.String("path", path),
		logging.String(logging.FieldBarcode, rec.Barcode),
		logging.String(logging.FieldEventType, "album_written"),
	)
	return path, nil
}

func (l *Library) targetPath(rec Record) string {
	path := filepath.Join(l.dir, FileName(rec))
	code := barcode.Normalize(rec.Barcode)
	if code == "" {
		return path
	}
	existing, err := readRecord(path)
	if err != nil {
		return path
	}
	held := barcode.Normalize(existing.Barcode)
	if held == "" || held == code {
		return path
	}
	suffixed := filepath.Join(l.dir, strings.TrimSuffix(FileName(rec), ".json")+" ["+code+"].json")
	logging.WarnWithContext(l.logger, "album file name already used by another barcode", "album_name_collision",
		logging.String("path", path),
		logging.String("existing_barcode", held),
		logging.String(logging.FieldBarcode, code),
		logging.String(logging.FieldErrorHint, "rename one of the records if the suffix is unwanted"),
		logging.String(logging.FieldImpact, "record written with a barcode suffix"),
	)
	return suffixed
}

func (l *Library) files() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, stage, "list", l.dir, err)
	}
	filtered := paths[:0]
	for _, path := range paths {
		if strings.EqualFold(filepath.Base(path), config.InventoryFileName) {
			continue
		}
		filtered = append(filtered, path)
	}
	sort.Strings(filtered)
	return filtered, nil
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func missing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
