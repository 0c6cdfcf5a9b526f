package index

import (
	"strings"

	"crate/internal/dump"
)

// Entry is the flattened release stored under one barcode.
type Entry struct {
	ID      int64
	Barcode string
	Title   string
	Artist  string
	Year    *int
	Country string
	Format  string
	Label   string
	Genre   string
	Catno   string
}

// Flatten converts a release into the row stored under code. Only the primary
// artist is kept; formats, labels and genres are joined with ", " and the first
// non-empty catalog number is used.
func Flatten(rel dump.Release, code string) Entry {
	entry := Entry{
		ID:      rel.ID,
		Barcode: code,
		Title:   rel.Title,
		Artist:  rel.PrimaryArtist(),
		Country: rel.Country,
		Format:  strings.Join(rel.Formats, ", "),
		Label:   strings.Join(rel.Labels, ", "),
		Genre:   strings.Join(rel.Genres, ", "),
	}
	if rel.Year != nil {
		year := *rel.Year
		entry.Year = &year
	}
	for _, catno := range rel.CatalogNumbers {
		if catno != "" {
			entry.Catno = catno
			break
		}
	}
	return entry
}
