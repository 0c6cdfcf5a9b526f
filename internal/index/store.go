package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"crate/internal/logging"
	"crate/internal/services"
)

const stage = "index"

const upsertSQL = `INSERT INTO releases (id, barcode, title, artist, year, country, format, label, genre, catno)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(barcode) DO UPDATE SET
    id = excluded.id,
    title = excluded.title,
    artist = excluded.artist,
    year = excluded.year,
    country = excluded.country,
    format = excluded.format,
    label = excluded.label,
    genre = excluded.genre,
    catno = excluded.catno`

// Store is the barcode index backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	lockPath string
	logger   *slog.Logger
}

// Open initializes or connects to the index database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrPersistence, stage, "open", "create index directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, stage, "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrPersistence, stage, "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{
		db:       db,
		path:     path,
		lockPath: path + ".lock",
		logger:   logging.NewComponentLogger(logger, "index"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		if errors.Is(err, ErrSchemaMismatch) {
			return nil, services.Wrap(services.ErrConfiguration, stage, "open", "", err)
		}
		return nil, services.Wrap(services.ErrPersistence, stage, "open", "initialize schema", err)
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the entry stored under the normalized barcode.
func (s *Store) Lookup(ctx context.Context, code string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, barcode, title, artist, year, country, format, label, genre, catno
         FROM releases WHERE barcode = ?`, code)

	var (
		entry Entry
		year  sql.NullInt64
	)
	err := row.Scan(&entry.ID, &entry.Barcode, &entry.Title, &entry.Artist, &year,
		&entry.Country, &entry.Format, &entry.Label, &entry.Genre, &entry.Catno)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, services.Wrap(services.ErrPersistence, stage, "lookup", code, err)
	}
	if year.Valid {
		y := int(year.Int64)
		entry.Year = &y
	}
	return entry, true, nil
}

// Count returns the number of indexed barcodes.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM releases").Scan(&count); err != nil {
		return 0, services.Wrap(services.ErrPersistence, stage, "count", "", err)
	}
	return count, nil
}

// Insert upserts entries without clearing the table.
func (s *Store) Insert(ctx context.Context, entries ...Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "insert", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "insert", "prepare upsert", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if err := upsert(ctx, stmt, entry); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, stage, "insert", "commit", err)
	}
	return nil
}

func upsert(ctx context.Context, stmt *sql.Stmt, entry Entry) error {
	var year any
	if entry.Year != nil {
		year = *entry.Year
	}
	_, err := stmt.ExecContext(ctx,
		entry.ID, entry.Barcode, entry.Title, entry.Artist, year,
		entry.Country, entry.Format, entry.Label, entry.Genre, entry.Catno,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, stage, "upsert", entry.Barcode, err)
	}
	return nil
}
