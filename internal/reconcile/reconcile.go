package reconcile

import (
	"strconv"
	"strings"
	"time"

	"crate/internal/albums"
	"crate/internal/association"
	"crate/internal/resolver"
)

// Placeholders for fields the source could not supply.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownYear   = "Unknown Year"
)

// TimestampLayout is the creation timestamp format written to records.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Action says what the caller should do with a reconciled record.
type Action int

const (
	ActionSkip Action = iota
	ActionCreate
	ActionDuplicate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionDuplicate:
		return "duplicate"
	default:
		return "skip"
	}
}

// Manual holds user-entered album fields. As a correction, blank fields keep
// the existing value.
type Manual struct {
	Artist     string
	Title      string
	Year       string
	Country    string
	Genres     []string
	Labels     []string
	Formats    []string
	Catno      string
	DiscogsURL string
	Path       string
}

// Reconciler builds canonical records.
type Reconciler struct {
	now func() time.Time
}

// New returns a Reconciler stamping records with now. A nil clock uses time.Now.
func New(now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{now: now}
}

// Reconcile maps an outcome, plus optional manual input, to a record and action.
// For NEW outcomes manual acts as a correction of the candidate; for NOT_FOUND
// it is the whole record.
func (r *Reconciler) Reconcile(outcome resolver.Outcome, manual *Manual) (albums.Record, Action) {
	switch outcome.Kind {
	case resolver.KindDuplicate:
		match, ok := outcome.Record()
		if !ok {
			return albums.Record{}, ActionSkip
		}
		return match.Record, ActionDuplicate
	case resolver.KindNew:
		if outcome.Candidate == nil {
			return albums.Record{}, ActionSkip
		}
		rec := r.FromCandidate(*outcome.Candidate)
		if manual != nil {
			rec = Apply(rec, *manual)
		}
		return rec, ActionCreate
	default:
		if manual == nil || outcome.Reason == resolver.ReasonInvalidBarcode {
			return albums.Record{}, ActionSkip
		}
		return r.FromManual(outcome.Barcode, *manual), ActionCreate
	}
}

// FromCandidate builds a record from an index candidate.
func (r *Reconciler) FromCandidate(c resolver.Candidate) albums.Record {
	year := albums.Year("")
	if c.Year != nil {
		year = albums.YearOf(*c.Year)
	}
	return r.build(albums.Record{
		Artist:     c.Artist,
		Title:      c.Title,
		Year:       year,
		Country:    c.Country,
		Genres:     join(c.Genres),
		Labels:     join(c.Labels),
		Catalog:    c.Catno,
		Formats:    join(c.Formats),
		DiscogsURL: c.SourceURL,
		Barcode:    c.Barcode,
	})
}

// FromManual builds a record entirely from user input.
func (r *Reconciler) FromManual(code string, m Manual) albums.Record {
	return r.build(albums.Record{
		Artist:     m.Artist,
		Title:      m.Title,
		Year:       parseYear(m.Year),
		Country:    strings.TrimSpace(m.Country),
		Genres:     join(m.Genres),
		Labels:     join(m.Labels),
		Catalog:    strings.TrimSpace(m.Catno),
		Formats:    join(m.Formats),
		DiscogsURL: strings.TrimSpace(m.DiscogsURL),
		Barcode:    code,
		Path:       strings.TrimSpace(m.Path),
	})
}

// Apply overlays non-blank corrections on rec.
func Apply(rec albums.Record, m Manual) albums.Record {
	set := func(dst *string, value string) {
		if value = strings.TrimSpace(value); value != "" {
			*dst = value
		}
	}
	set(&rec.Artist, m.Artist)
	set(&rec.Title, m.Title)
	set(&rec.Country, m.Country)
	set(&rec.Genres, join(m.Genres))
	set(&rec.Labels, join(m.Labels))
	set(&rec.Formats, join(m.Formats))
	set(&rec.Catalog, m.Catno)
	set(&rec.DiscogsURL, m.DiscogsURL)
	set(&rec.Path, m.Path)
	if strings.TrimSpace(m.Year) != "" {
		rec.Year = parseYear(m.Year)
	}
	rec.Artist = albums.PrimaryArtist(rec.Artist)
	return rec
}

// Association builds the association entry committed for rec.
func Association(rec albums.Record, externalID int64) association.Record {
	return association.Record{
		Barcode:    rec.Barcode,
		Artist:     rec.Artist,
		Album:      rec.Title,
		Path:       rec.Path,
		DiscogsID:  association.ExternalID(externalID),
		DiscogsURL: rec.DiscogsURL,
		Year:       rec.Year,
		Genres:     split(rec.Genres),
		Formats:    split(rec.Formats),
		Labels:     split(rec.Labels),
		Country:    rec.Country,
		Catno:      rec.Catalog,
		Timestamp:  rec.Created,
	}
}

func (r *Reconciler) build(rec albums.Record) albums.Record {
	rec.Artist = albums.PrimaryArtist(rec.Artist)
	if rec.Artist == "" {
		rec.Artist = UnknownArtist
	}
	rec.Title = strings.TrimSpace(rec.Title)
	if rec.Title == "" {
		rec.Title = UnknownAlbum
	}
	if strings.TrimSpace(string(rec.Year)) == "" {
		rec.Year = UnknownYear
	}
	rec.Created = r.now().Format(TimestampLayout)
	return rec
}

func parseYear(value string) albums.Year {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return albums.YearOf(n)
	}
	return albums.Year(value)
}

func join(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}

func split(joined string) []string {
	out := []string{}
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
