package albums

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a canonical album record as persisted on disk.
type Record struct {
	Artist     string `json:"Artist"`
	Title      string `json:"Title"`
	Year       Year   `json:"Year"`
	Country    string `json:"Country"`
	Genres     string `json:"Genres"`
	Labels     string `json:"Labels"`
	Catalog    string `json:"Catalog #"`
	Formats    string `json:"Formats"`
	DiscogsURL string `json:"Discogs URL"`
	Barcode    string `json:"Barcode"`
	Path       string `json:"Path"`
	Created    string `json:"Created"`
}

// Summary renders "Artist - Title (Year)".
func (r Record) Summary() string {
	return fmt.Sprintf("%s - %s (%s)", r.Artist, r.Title, r.Year)
}

// Year holds a release year that older files store either as a JSON number or
// as free text such as "Unknown Year". Numeric years are written back as numbers.
type Year string

// YearOf formats a numeric year.
func YearOf(y int) Year {
	return Year(strconv.Itoa(y))
}

// Int returns the numeric year, if the value is one.
func (y Year) Int() (int, bool) {
	n, err := strconv.Atoi(string(y))
	if err != nil || strconv.Itoa(n) != string(y) {
		return 0, false
	}
	return n, true
}

func (y Year) MarshalJSON() ([]byte, error) {
	if n, ok := y.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(y))
}

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*y = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("year: %w", err)
		}
		if i, err := n.Int64(); err == nil {
			*y = Year(strconv.FormatInt(i, 10))
			return nil
		}
		*y = Year(n.String())
		return nil
	}
}

const maxFileNameRunes = 100

var filenameReplacer = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_", ":", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename replaces characters that are unsafe in file names with
// underscores, trims leading and trailing spaces and periods, and truncates
// the result to 100 characters.
func SanitizeFilename(name string) string {
	sanitized := filenameReplacer.Replace(name)
	sanitized = strings.Trim(sanitized, ". ")
	if runes := []rune(sanitized); len(runes) > maxFileNameRunes {
		sanitized = string(runes[:maxFileNameRunes])
	}
	return sanitized
}

// FileName returns the JSON file name used for rec.
func FileName(rec Record) string {
	return SanitizeFilename(rec.Summary()) + ".json"
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PrimaryArtist keeps the first credited artist of a comma-separated credit.
func PrimaryArtist(artist string) string {
	if i := strings.Index(artist, ","); i >= 0 {
		artist = artist[:i]
	}
	return strings.TrimSpace(artist)
}
