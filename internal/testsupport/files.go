package testsupport

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// Release describes a dump release fixture.
type Release struct {
	ID       int64
	Title    string
	Artists  []string
	Released string
	Country  string
	Formats  []string
	Labels   [][2]string
	Genres   []string
	Barcodes []string
}

// XML renders the release as a Discogs <release> element.
func (r Release) XML() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<release id="%d" status="Accepted">`, r.ID)
	if len(r.Artists) > 0 {
		b.WriteString("<artists>")
		for i, name := range r.Artists {
			fmt.Fprintf(&b, "<artist><id>%d</id><name>%s</name><anv></anv><join></join></artist>", i+1, html.EscapeString(name))
		}
		b.WriteString("</artists>")
	}
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(r.Title))
	if len(r.Labels) > 0 {
		b.WriteString("<labels>")
		for _, label := range r.Labels {
			fmt.Fprintf(&b, `<label name="%s" catno="%s" id="1"/>`, html.EscapeString(label[0]), html.EscapeString(label[1]))
		}
		b.WriteString("</labels>")
	}
	if len(r.Formats) > 0 {
		b.WriteString("<formats>")
		for _, format := range r.Formats {
			fmt.Fprintf(&b, `<format name="%s" qty="1" text=""><descriptions><description>Album</description></descriptions></format>`, html.EscapeString(format))
		}
		b.WriteString("</formats>")
	}
	if len(r.Genres) > 0 {
		b.WriteString("<genres>")
		for _, genre := range r.Genres {
			fmt.Fprintf(&b, "<genre>%s</genre>", html.EscapeString(genre))
		}
		b.WriteString("</genres>")
	}
	if r.Country != "" {
		fmt.Fprintf(&b, "<country>%s</country>", html.EscapeString(r.Country))
	}
	if r.Released != "" {
		fmt.Fprintf(&b, "<released>%s</released>", html.EscapeString(r.Released))
	}
	if len(r.Barcodes) > 0 {
		b.WriteString("<identifiers>")
		for _, code := range r.Barcodes {
			fmt.Fprintf(&b, `<identifier type="Barcode" value="%s"/>`, html.EscapeString(code))
		}
		b.WriteString(`<identifier type="Matrix / Runout" value="9 45024-2 SRC01"/>`)
		b.WriteString("</identifiers>")
	}
	b.WriteString("</release>")
	return b.String()
}

// Unplugged is the reference release used across package tests.
func Unplugged() Release {
	return Release{
		ID:       1234567,
		Title:    "Unplugged",
		Artists:  []string{"Eric Clapton"},
		Released: "1992",
		Country:  "US",
		Formats:  []string{"CD"},
		Labels:   [][2]string{{"Reprise Records", "9 45024-2"}, {"Warner Bros. Records", ""}},
		Genres:   []string{"Rock", "Blues"},
		Barcodes: []string{"0 75596-08292 1"},
	}
}

// WriteDump writes a gzip-compressed releases document containing the given
// elements and returns its path. Elements are written verbatim, so callers can
// inject malformed markup.
func WriteDump(t testing.TB, path string, elements ...string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<releases>\n")
	for _, element := range elements {
		b.WriteString(element)
		b.WriteByte('\n')
	}
	b.WriteString("</releases>\n")
	if _, err := gz.Write([]byte(b.String())); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return path
}

// WriteReleases renders releases and writes them as a dump.
func WriteReleases(t testing.TB, path string, releases ...Release) string {
	t.Helper()
	elements := make([]string, len(releases))
	for i, rel := range releases {
		elements[i] = rel.XML()
	}
	return WriteDump(t, path, elements...)
}
