package albums_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"crate/internal/albums"
	"crate/internal/logging"
	"crate/internal/services"
)

func newLibrary(t *testing.T) *albums.Library {
	t.Helper()
	return albums.NewLibrary(t.TempDir(), logging.NewNop())
}

func TestWriteAndSearch(t *testing.T) {
	lib := newLibrary(t)
	rec := albums.Record{Artist: "Alanis Morissette", Title: "Jagged Little Pill", Year: albums.YearOf(1995), Barcode: "075678235320"}

	path, err := lib.Write(rec)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if filepath.Base(path) != "Alanis Morissette - Jagged Little Pill (1995).json" {
		t.Fatalf("unexpected path %s", path)
	}

	matches, err := lib.Search(context.Background(), "0-75678-23532-0")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Record.Title != "Jagged Little Pill" || matches[0].Path != path {
		t.Fatalf("unexpected matches %+v", matches)
	}

	none, err := lib.Search(context.Background(), "7567823532")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("album search must be exact, got %+v", none)
	}
}

func TestWriteKeepsRecordsSharingAFileName(t *testing.T) {
	lib := newLibrary(t)
	first := albums.Record{Artist: "Nirvana", Title: "Nevermind", Year: albums.YearOf(1991), Barcode: "720642442524"}
	second := albums.Record{Artist: "Nirvana", Title: "Nevermind", Year: albums.YearOf(1991), Barcode: "7206-4244-2524"}
	other := albums.Record{Artist: "Nirvana", Title: "Nevermind", Year: albums.YearOf(1991), Barcode: "602547871289"}

	firstPath, err := lib.Write(first)
	if err != nil {
		t.Fatal(err)
	}
	samePath, err := lib.Write(second)
	if err != nil {
		t.Fatal(err)
	}
	if samePath != firstPath {
		t.Fatalf("same barcode should replace %s, got %s", firstPath, samePath)
	}
	otherPath, err := lib.Write(other)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(otherPath) != "Nirvana - Nevermind (1991) [602547871289].json" {
		t.Fatalf("unexpected path for colliding record %s", otherPath)
	}

	all, err := lib.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both records to survive, got %+v", all)
	}
	again, err := lib.Write(other)
	if err != nil {
		t.Fatal(err)
	}
	if again != otherPath {
		t.Fatalf("rewriting the suffixed record should reuse %s, got %s", otherPath, again)
	}
}

func TestSearchOrderAndSkipsBadFiles(t *testing.T) {
	lib := newLibrary(t)
	first := albums.Record{Artist: "Alanis Morissette", Title: "Jagged Little Pill", Year: albums.YearOf(1995), Barcode: "075678235320"}
	second := albums.Record{Artist: "Manual", Title: "Entry", Year: "1995", Barcode: "075678235320"}
	if _, err := lib.Write(second); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Write(first); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(lib.Dir(), "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lib.InventoryPath(), []byte(`{"albums":[{"Barcode":"075678235320"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	matches, err := lib.Search(context.Background(), "075678235320")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Record.Artist != "Alanis Morissette" || matches[1].Record.Artist != "Manual" {
		t.Fatalf("matches not in file name order: %+v", matches)
	}
}

func TestUpdateInventoryIsIdempotent(t *testing.T) {
	lib := newLibrary(t)
	for _, rec := range []albums.Record{
		{Artist: "Nirvana", Title: "Nevermind", Year: albums.YearOf(1991), Barcode: "720642442524"},
		{Artist: "Santana", Title: "Supernatural", Year: albums.YearOf(1999), Barcode: "731453429529"},
		{Artist: "Unknown Artist", Title: "Bootleg", Year: "Unknown Year"},
	} {
		if _, err := lib.Write(rec); err != nil {
			t.Fatal(err)
		}
	}

	added, total, err := lib.UpdateInventory(context.Background())
	if err != nil {
		t.Fatalf("UpdateInventory returned error: %v", err)
	}
	if added != 3 || total != 3 {
		t.Fatalf("first update added=%d total=%d", added, total)
	}

	added, total, err = lib.UpdateInventory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 || total != 3 {
		t.Fatalf("second update added=%d total=%d, want 0 and 3", added, total)
	}

	inv, err := albums.LoadInventory(lib.InventoryPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Albums) != 3 || inv.LastUpdated == "" {
		t.Fatalf("unexpected inventory %+v", inv)
	}
}

func TestUpdateInventoryRefusesCorruptDigest(t *testing.T) {
	lib := newLibrary(t)
	if err := os.MkdirAll(lib.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lib.InventoryPath(), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := lib.UpdateInventory(context.Background())
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	data, _ := os.ReadFile(lib.InventoryPath())
	if string(data) != "garbage" {
		t.Fatal("corrupt inventory must not be overwritten")
	}
}
