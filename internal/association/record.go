package association

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"crate/internal/albums"
)

// Record is one barcode association.
type Record struct {
	Barcode    string      `json:"barcode"`
	Artist     string      `json:"artist"`
	Album      string      `json:"album"`
	Path       string      `json:"path,omitempty"`
	DiscogsID  ExternalID  `json:"discogs_id"`
	DiscogsURL string      `json:"discogs_url"`
	Year       albums.Year `json:"year"`
	Genres     []string    `json:"genres"`
	Formats    []string    `json:"formats"`
	Labels     []string    `json:"labels"`
	Country    string      `json:"country"`
	Catno      string      `json:"catno"`
	Timestamp  string      `json:"timestamp"`
}

// AlbumRecord converts the association into the canonical album shape.
func (r Record) AlbumRecord() albums.Record {
	return albums.Record{
		Artist:     r.Artist,
		Title:      r.Album,
		Year:       r.Year,
		Country:    r.Country,
		Genres:     strings.Join(r.Genres, ", "),
		Labels:     strings.Join(r.Labels, ", "),
		Catalog:    r.Catno,
		Formats:    strings.Join(r.Formats, ", "),
		DiscogsURL: r.DiscogsURL,
		Barcode:    r.Barcode,
		Path:       r.Path,
		Created:    r.Timestamp,
	}
}

// ExternalID is a vendor release id. Manually associated records have none
// and store an empty string.
type ExternalID int64

func (id ExternalID) MarshalJSON() ([]byte, error) {
	if id == 0 {
		return []byte(`""`), nil
	}
	return []byte(strconv.FormatInt(int64(id), 10)), nil
}

func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*id = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("discogs_id: %w", err)
	}
	*id = ExternalID(n)
	return nil
}
