package scan

import (
	"context"

	"crate/internal/albums"
	"crate/internal/association"
	"crate/internal/reconcile"
	"crate/internal/resolver"
)

// Sink persists accepted records and returns where they landed.
type Sink interface {
	Commit(ctx context.Context, outcome resolver.Outcome, rec albums.Record) (string, error)
}

type librarySink struct {
	lib *albums.Library
}

// LibrarySink writes one album JSON file per record.
func LibrarySink(lib *albums.Library) Sink {
	return librarySink{lib: lib}
}

func (s librarySink) Commit(_ context.Context, _ resolver.Outcome, rec albums.Record) (string, error) {
	return s.lib.Write(rec)
}

type associationSink struct {
	store *association.Store
}

// AssociationSink records the barcode in the association document.
func AssociationSink(store *association.Store) Sink {
	return associationSink{store: store}
}

func (s associationSink) Commit(_ context.Context, outcome resolver.Outcome, rec albums.Record) (string, error) {
	var id int64
	if outcome.Candidate != nil {
		id = outcome.Candidate.ExternalID
	}
	if err := s.store.Associate(reconcile.Association(rec, id)); err != nil {
		return "", err
	}
	return s.store.Path(), nil
}
