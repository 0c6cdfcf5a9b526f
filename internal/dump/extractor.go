package dump

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"

	"crate/internal/logging"
	"crate/internal/services"
)

const stage = "extract"

// Stats summarizes an extraction pass.
type Stats struct {
	Releases  int64
	Malformed int64
	Barcodes  int64
}

// Extractor yields releases from a compressed dump one at a time. It is not
// safe for concurrent use and cannot be rewound.
type Extractor struct {
	path    string
	file    *os.File
	size    int64
	read    *byteCounter
	gz      *gzip.Reader
	decoder *xml.Decoder
	logger  *slog.Logger
	stats   Stats
	done    bool
}

// Open prepares an Extractor over the gzip dump at path.
func Open(path string, logger *slog.Logger) (*Extractor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stage, "open dump", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, services.Wrap(services.ErrTransient, stage, "stat dump", path, err)
	}
	counter := &byteCounter{r: file}
	gz, err := gzip.NewReader(counter)
	if err != nil {
		_ = file.Close()
		return nil, services.Wrap(services.ErrTransient, stage, "open gzip stream", path, err)
	}
	return &Extractor{
		path:    path,
		file:    file,
		size:    info.Size(),
		read:    counter,
		gz:      gz,
		decoder: xml.NewDecoder(gz),
		logger:  logging.NewComponentLogger(logger, "dump"),
	}, nil
}

// Next returns the next well-formed release, or io.EOF once the dump is exhausted.
func (e *Extractor) Next() (Release, error) {
	if e.done {
		return Release{}, io.EOF
	}
	for {
		tok, err := e.decoder.Token()
		if err != nil {
			e.done = true
			if errors.Is(err, io.EOF) {
				return Release{}, io.EOF
			}
			return Release{}, services.Wrap(services.ErrTransient, stage, "read dump", e.path, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "release" {
			continue
		}

		var raw xmlRelease
		if err := e.decoder.DecodeElement(&raw, &start); err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				e.done = true
				return Release{}, services.Wrap(services.ErrTransient, stage, "read dump", e.path, err)
			}
			e.skip(attrValue(start, "id"), err)
			continue
		}
		rel, err := raw.toRelease()
		if err != nil {
			e.skip(raw.ID, err)
			continue
		}
		e.stats.Releases++
		e.stats.Barcodes += int64(len(rel.Barcodes))
		return rel, nil
	}
}

func (e *Extractor) skip(id string, err error) {
	e.stats.Malformed++
	e.logger.Debug("skipping malformed release",
		logging.String("release_id", id),
		logging.Error(fmt.Errorf("%w: %w", services.ErrMalformedInput, err)),
		logging.String(logging.FieldEventType, "release_malformed"),
	)
}

// Progress reports the fraction of the compressed file consumed so far.
func (e *Extractor) Progress() float64 {
	if e.size <= 0 {
		return 0
	}
	fraction := float64(e.read.n.Load()) / float64(e.size)
	if fraction > 1 {
		return 1
	}
	return fraction
}

// Stats returns counters for the releases read so far.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// Close releases the underlying file.
func (e *Extractor) Close() error {
	e.done = true
	gzErr := e.gz.Close()
	fileErr := e.file.Close()
	return errors.Join(gzErr, fileErr)
}

func attrValue(start xml.StartElement, name string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

type byteCounter struct {
	r io.Reader
	n atomic.Int64
}

func (c *byteCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
