package resolver

import (
	"context"

	"crate/internal/albums"
	"crate/internal/association"
	"crate/internal/index"
)

// Source names reported on local matches.
const (
	SourceAlbums       = "albums"
	SourceAssociations = "associations"
)

// LocalSource is a store of existing local records searchable by barcode.
type LocalSource interface {
	Search(ctx context.Context, code string) ([]LocalMatch, error)
}

// Index is the read side of the release index.
type Index interface {
	Lookup(ctx context.Context, code string) (index.Entry, bool, error)
}

type albumSource struct {
	lib *albums.Library
}

// AlbumSource searches album JSON records by exact barcode.
func AlbumSource(lib *albums.Library) LocalSource {
	return albumSource{lib: lib}
}

func (s albumSource) Search(ctx context.Context, code string) ([]LocalMatch, error) {
	found, err := s.lib.Search(ctx, code)
	if err != nil {
		return nil, err
	}
	matches := make([]LocalMatch, 0, len(found))
	for _, m := range found {
		matches = append(matches, LocalMatch{Source: SourceAlbums, Path: m.Path, Record: m.Record})
	}
	return matches, nil
}

type associationSource struct {
	store *association.Store
}

// AssociationSource searches the association document by exact barcode and
// by barcodes that contain, or are contained in, the scanned code.
func AssociationSource(store *association.Store) LocalSource {
	return associationSource{store: store}
}

func (s associationSource) Search(_ context.Context, code string) ([]LocalMatch, error) {
	found := s.store.Search(code)
	matches := make([]LocalMatch, 0, len(found))
	for _, rec := range found {
		matches = append(matches, LocalMatch{Source: SourceAssociations, Path: rec.Path, Record: rec.AlbumRecord()})
	}
	return matches, nil
}
