package reconcile_test

import (
	"testing"
	"time"

	"crate/internal/albums"
	"crate/internal/reconcile"
	"crate/internal/resolver"
)

var fixedNow = time.Date(2025, 6, 1, 12, 30, 45, 123456000, time.UTC)

func newReconciler() *reconcile.Reconciler {
	return reconcile.New(func() time.Time { return fixedNow })
}

func year(y int) *int { return &y }

func unplugged() *resolver.Candidate {
	return &resolver.Candidate{
		ExternalID: 1234567,
		Barcode:    "075596082921",
		Title:      "Unplugged",
		Artist:     "Eric Clapton",
		Year:       year(1992),
		Country:    "US",
		Formats:    []string{"CD", "Album"},
		Labels:     []string{"Reprise Records", "Warner Bros. Records"},
		Genres:     []string{"Rock", "Blues"},
		Catno:      "9 45024-2",
		SourceURL:  "https://www.discogs.com/release/1234567",
	}
}

func TestReconcileNewBuildsRecord(t *testing.T) {
	outcome := resolver.Outcome{Kind: resolver.KindNew, Barcode: "075596082921", Candidate: unplugged(), Selected: resolver.NoSelection}

	rec, action := newReconciler().Reconcile(outcome, nil)
	if action != reconcile.ActionCreate {
		t.Fatalf("expected create, got %s", action)
	}
	want := albums.Record{
		Artist:     "Eric Clapton",
		Title:      "Unplugged",
		Year:       "1992",
		Country:    "US",
		Genres:     "Rock, Blues",
		Labels:     "Reprise Records, Warner Bros. Records",
		Catalog:    "9 45024-2",
		Formats:    "CD, Album",
		DiscogsURL: "https://www.discogs.com/release/1234567",
		Barcode:    "075596082921",
		Created:    "2025-06-01T12:30:45.123456",
	}
	if rec != want {
		t.Fatalf("unexpected record\n got %+v\nwant %+v", rec, want)
	}
	if albums.FileName(rec) != "Eric Clapton - Unplugged (1992).json" {
		t.Fatalf("unexpected file name %q", albums.FileName(rec))
	}
}

func TestReconcileNewFillsPlaceholders(t *testing.T) {
	outcome := resolver.Outcome{Kind: resolver.KindNew, Barcode: "123", Candidate: &resolver.Candidate{Barcode: "123", Artist: "Queen, Freddie Mercury"}}

	rec, _ := newReconciler().Reconcile(outcome, nil)
	if rec.Artist != "Queen" || rec.Title != reconcile.UnknownAlbum || rec.Year != reconcile.UnknownYear {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Country != "" || rec.Genres != "" || rec.Catalog != "" {
		t.Fatalf("absent optional fields must be empty, got %+v", rec)
	}

	blank := resolver.Outcome{Kind: resolver.KindNew, Barcode: "123", Candidate: &resolver.Candidate{Barcode: "123"}}
	rec, _ = newReconciler().Reconcile(blank, nil)
	if rec.Artist != reconcile.UnknownArtist {
		t.Fatalf("expected artist placeholder, got %q", rec.Artist)
	}
}

func TestReconcileNewAppliesCorrections(t *testing.T) {
	outcome := resolver.Outcome{Kind: resolver.KindNew, Barcode: "075596082921", Candidate: unplugged()}

	rec, action := newReconciler().Reconcile(outcome, &reconcile.Manual{Year: "1993", Path: "/music/clapton", Genres: []string{"Blues"}})
	if action != reconcile.ActionCreate {
		t.Fatalf("expected create, got %s", action)
	}
	if rec.Year != "1993" || rec.Path != "/music/clapton" || rec.Genres != "Blues" {
		t.Fatalf("corrections not applied: %+v", rec)
	}
	if rec.Title != "Unplugged" || rec.Catalog != "9 45024-2" {
		t.Fatalf("blank corrections must keep values: %+v", rec)
	}
}

func TestReconcileDuplicateReturnsExistingRecord(t *testing.T) {
	existing := albums.Record{Artist: "Alanis Morissette", Title: "Jagged Little Pill", Year: "1995", Barcode: "075678235320", Created: "2020-01-01T00:00:00"}
	outcome := resolver.Outcome{
		Kind:     resolver.KindDuplicate,
		Barcode:  "075678235320",
		Matches:  []resolver.LocalMatch{{Source: resolver.SourceAlbums, Record: existing}},
		Selected: 0,
	}

	rec, action := newReconciler().Reconcile(outcome, &reconcile.Manual{Title: "ignored"})
	if action != reconcile.ActionDuplicate || rec != existing {
		t.Fatalf("duplicate must return the record unchanged, got %s %+v", action, rec)
	}

	outcome.Selected = resolver.NoSelection
	if _, action := newReconciler().Reconcile(outcome, nil); action != reconcile.ActionSkip {
		t.Fatalf("unselected duplicate must skip, got %s", action)
	}
}

func TestReconcileNotFound(t *testing.T) {
	outcome := resolver.Outcome{Kind: resolver.KindNotFound, Barcode: "999999999999", Reason: resolver.ReasonNotIndexed}
	r := newReconciler()

	if _, action := r.Reconcile(outcome, nil); action != reconcile.ActionSkip {
		t.Fatalf("expected skip without manual entry, got %s", action)
	}

	rec, action := r.Reconcile(outcome, &reconcile.Manual{
		Artist:  "Local Band, Guest",
		Title:   "Demo",
		Year:    "2004",
		Genres:  []string{"Rock", " ", "Indie"},
		Formats: []string{"CD-R"},
	})
	if action != reconcile.ActionCreate {
		t.Fatalf("expected create, got %s", action)
	}
	if rec.Artist != "Local Band" || rec.Title != "Demo" || rec.Year != "2004" || rec.Barcode != "999999999999" {
		t.Fatalf("unexpected manual record %+v", rec)
	}
	if rec.Genres != "Rock, Indie" || rec.Created != "2025-06-01T12:30:45.123456" {
		t.Fatalf("unexpected manual record %+v", rec)
	}

	invalid := resolver.Outcome{Kind: resolver.KindNotFound, Reason: resolver.ReasonInvalidBarcode}
	if _, action := r.Reconcile(invalid, &reconcile.Manual{Artist: "x"}); action != reconcile.ActionSkip {
		t.Fatalf("invalid barcode must skip, got %s", action)
	}
}

func TestAssociation(t *testing.T) {
	rec := newReconciler().FromCandidate(*unplugged())

	assoc := reconcile.Association(rec, 1234567)
	if assoc.Barcode != "075596082921" || assoc.Album != "Unplugged" || assoc.DiscogsID != 1234567 {
		t.Fatalf("unexpected association %+v", assoc)
	}
	if len(assoc.Labels) != 2 || assoc.Labels[1] != "Warner Bros. Records" || assoc.Timestamp != rec.Created {
		t.Fatalf("unexpected association %+v", assoc)
	}
	if assoc.Genres == nil || len(reconcile.Association(albums.Record{Barcode: "1"}, 0).Genres) != 0 {
		t.Fatal("empty lists must encode as []")
	}
}
