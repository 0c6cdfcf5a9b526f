package dump

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"crate/internal/barcode"
)

// Release is one vendor release as extracted from the dump. Labels and
// CatalogNumbers are paired positionally; a label without a catalog number
// keeps an empty string in its slot.
type Release struct {
	ID             int64
	Title          string
	Artists        []string
	Year           *int
	Country        string
	Formats        []string
	Labels         []string
	CatalogNumbers []string
	Genres         []string
	Barcodes       []string
}

// Pair binds one normalized barcode to the release it was found on.
type Pair struct {
	Barcode string
	Release Release
}

// PrimaryArtist returns the first credited artist, or "".
func (r Release) PrimaryArtist() string {
	if len(r.Artists) == 0 {
		return ""
	}
	return r.Artists[0]
}

// Pairs returns one pair per barcode in encounter order. A release without
// valid barcodes yields nothing.
func (r Release) Pairs() []Pair {
	if len(r.Barcodes) == 0 {
		return nil
	}
	pairs := make([]Pair, 0, len(r.Barcodes))
	for _, code := range r.Barcodes {
		pairs = append(pairs, Pair{Barcode: code, Release: r})
	}
	return pairs
}

type xmlRelease struct {
	ID          string          `xml:"id,attr"`
	Title       string          `xml:"title"`
	Released    string          `xml:"released"`
	Country     string          `xml:"country"`
	Artists     []xmlArtist     `xml:"artists>artist"`
	Formats     []xmlFormat     `xml:"formats>format"`
	Labels      []xmlLabel      `xml:"labels>label"`
	Genres      []string        `xml:"genres>genre"`
	Identifiers []xmlIdentifier `xml:"identifiers>identifier"`
}

type xmlArtist struct {
	Name string `xml:"name"`
}

type xmlFormat struct {
	Name string `xml:"name,attr"`
}

type xmlLabel struct {
	Name  string `xml:"name,attr"`
	Catno string `xml:"catno,attr"`
}

type xmlIdentifier struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

// errMissingID marks a release element without a usable id attribute.
type errMissingID struct{ raw string }

func (e errMissingID) Error() string {
	if e.raw == "" {
		return "release has no id attribute"
	}
	return "release id " + strconv.Quote(e.raw) + " is not numeric"
}

func (x *xmlRelease) toRelease() (Release, error) {
	rawID := strings.TrimSpace(x.ID)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return Release{}, errMissingID{raw: rawID}
	}

	rel := Release{
		ID:      id,
		Title:   clean(x.Title),
		Year:    parseYear(x.Released),
		Country: clean(x.Country),
	}
	for _, artist := range x.Artists {
		if name := clean(artist.Name); name != "" {
			rel.Artists = append(rel.Artists, name)
		}
	}
	for _, format := range x.Formats {
		if name := clean(format.Name); name != "" {
			rel.Formats = append(rel.Formats, name)
		}
	}
	for _, label := range x.Labels {
		name := clean(label.Name)
		if name == "" {
			continue
		}
		rel.Labels = append(rel.Labels, name)
		rel.CatalogNumbers = append(rel.CatalogNumbers, clean(label.Catno))
	}
	for _, genre := range x.Genres {
		if name := clean(genre); name != "" {
			rel.Genres = append(rel.Genres, name)
		}
	}

	seen := make(map[string]struct{}, len(x.Identifiers))
	for _, ident := range x.Identifiers {
		if ident.Type != "Barcode" {
			continue
		}
		code := barcode.Normalize(ident.Value)
		if !barcode.Valid(code) {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		rel.Barcodes = append(rel.Barcodes, code)
	}
	return rel, nil
}

// parseYear keeps the leading four digits of a release date such as "1992"
// or "1992-03-10". Anything else yields nil.
func parseYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return nil
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil || year <= 0 {
		return nil
	}
	if len(raw) > 4 && raw[4] >= '0' && raw[4] <= '9' {
		return nil
	}
	return &year
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
