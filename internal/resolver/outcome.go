package resolver

import (
	"crate/internal/albums"
)

// Kind classifies a resolution.
type Kind int

const (
	KindNotFound Kind = iota
	KindNew
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "NEW"
	case KindDuplicate:
		return "DUPLICATE"
	default:
		return "NOT_FOUND"
	}
}

// NoSelection marks a duplicate where the chooser declined every match.
const NoSelection = -1

// Reasons attached to NOT_FOUND and unselected outcomes.
const (
	ReasonInvalidBarcode   = "invalid barcode"
	ReasonNotIndexed       = "barcode not in index"
	ReasonIndexUnavailable = "index unavailable"
	ReasonNoSelection      = "no selection"
)

// LocalMatch is an existing local record for the scanned barcode.
type LocalMatch struct {
	Source string
	Path   string
	Record albums.Record
}

// Candidate is a release found in the index for a barcode with no local record.
type Candidate struct {
	ExternalID int64
	Barcode    string
	Title      string
	Artist     string
	Year       *int
	Country    string
	Formats    []string
	Labels     []string
	Genres     []string
	Catno      string
	SourceURL  string
}

// Outcome is the result of resolving one barcode.
type Outcome struct {
	Kind      Kind
	Barcode   string
	Matches   []LocalMatch
	Selected  int
	Candidate *Candidate
	Reason    string
}

// Record returns the selected local record of a duplicate.
func (o Outcome) Record() (LocalMatch, bool) {
	if o.Kind != KindDuplicate || o.Selected < 0 || o.Selected >= len(o.Matches) {
		return LocalMatch{}, false
	}
	return o.Matches[o.Selected], true
}
