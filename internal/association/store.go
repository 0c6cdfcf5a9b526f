package association

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"crate/internal/barcode"
	"crate/internal/fileutil"
	"crate/internal/logging"
	"crate/internal/services"
)

const stage = "association"

// ErrEmptyBarcode is returned when a record has no usable barcode.
var ErrEmptyBarcode = errors.New("barcode cannot be empty")

// Store provides thread-safe access to the association document.
type Store struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	keys    []string
	records map[string]Record
}

// Open loads the document at path. A missing file yields an empty store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "association"),
		records: make(map[string]Record),
	}
	keys, records, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	s.keys, s.records = keys, records
	s.logger.Debug("association store loaded",
		logging.String("path", path),
		logging.Int("count", len(keys)),
	)
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the association stored under the exact normalized barcode.
func (s *Store) Lookup(code string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[barcode.Normalize(code)]
	return rec, ok
}

// Search returns the exact match followed by every association whose barcode
// contains, or is contained in, the normalized code. Results are unique by
// value and follow document order.
func (s *Store) Search(code string) []Record {
	code = barcode.Normalize(code)
	if code == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		results []Record
		seen    = make(map[string]struct{})
	)
	add := func(rec Record) {
		key := valueKey(rec)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		results = append(results, rec)
	}
	if rec, ok := s.records[code]; ok {
		add(rec)
	}
	for _, key := range s.keys {
		if key != code && barcode.Related(key, code) {
			add(s.records[key])
		}
	}
	return results
}

// List returns every association in document order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.records[key])
	}
	return out
}

// Count returns the number of associations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Associate stores rec under its normalized barcode, replacing any existing
// association in place, and rewrites the document.
func (s *Store) Associate(rec Record) error {
	code := barcode.Normalize(rec.Barcode)
	if !barcode.Valid(code) {
		return services.Wrap(services.ErrValidation, stage, "associate", rec.Barcode, ErrEmptyBarcode)
	}
	rec.Barcode = code

	return s.mutate(func(keys []string, records map[string]Record) ([]string, bool) {
		if _, exists := records[code]; !exists {
			keys = append(keys, code)
		}
		records[code] = rec
		return keys, true
	}, func() {
		s.logger.Info("barcode associated",
			logging.String(logging.FieldBarcode, code),
			logging.String("artist", rec.Artist),
			logging.String("album", rec.Album),
			logging.String(logging.FieldEventType, "association_saved"),
		)
	})
}

// Remove deletes the association for the normalized barcode.
func (s *Store) Remove(code string) error {
	code = barcode.Normalize(code)
	var found bool
	err := s.mutate(func(keys []string, records map[string]Record) ([]string, bool) {
		if _, found = records[code]; !found {
			return keys, false
		}
		delete(records, code)
		filtered := keys[:0]
		for _, key := range keys {
			if key != code {
				filtered = append(filtered, key)
			}
		}
		return filtered, true
	}, func() {
		s.logger.Info("association removed", logging.String(logging.FieldBarcode, code))
	})
	if err != nil {
		return err
	}
	if !found {
		return services.Wrap(services.ErrNotFound, stage, "remove", fmt.Sprintf("barcode %q has no association", code), nil)
	}
	return nil
}

// mutate re-reads the document, applies change, and writes it back. The
// in-memory view is only replaced once the write succeeded.
func (s *Store) mutate(change func([]string, map[string]Record) ([]string, bool), done func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, records, err := readDocument(s.path)
	if err != nil {
		return err
	}
	keys, changed := change(keys, records)
	if !changed {
		s.keys, s.records = keys, records
		return nil
	}

	data, err := encodeDocument(keys, records)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage, "encode", s.path, err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrPersistence, stage, "write", s.path, err)
	}
	s.keys, s.records = keys, records
	done()
	return nil
}

func readDocument(path string) ([]string, map[string]Record, error) {
	records := make(map[string]Record)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, records, nil
		}
		return nil, nil, services.Wrap(services.ErrPersistence, stage, "read", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, records, nil
	}
	keys, err := decodeDocument(data, records)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrPersistence, stage, "read",
			"association document is not valid JSON; fix or move it aside", err)
	}
	return keys, records, nil
}

// decodeDocument reads a JSON object keyed by barcode, preserving key order.
func decodeDocument(data []byte, records map[string]Record) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		raw, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("entry %q: %w", raw, err)
		}
		key := barcode.Normalize(raw)
		if key == "" {
			key = barcode.Normalize(rec.Barcode)
		}
		if key == "" {
			continue
		}
		if rec.Barcode == "" {
			rec.Barcode = key
		}
		if _, dup := records[key]; !dup {
			keys = append(keys, key)
		}
		records[key] = rec
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}
	return keys, nil
}

func encodeDocument(keys []string, records map[string]Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteString(": ")

		var entry bytes.Buffer
		enc := json.NewEncoder(&entry)
		enc.SetEscapeHTML(false)
		enc.SetIndent("  ", "  ")
		if err := enc.Encode(records[key]); err != nil {
			return nil, err
		}
		buf.Write(bytes.TrimRight(entry.Bytes(), "\n"))
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func valueKey(rec Record) string {
	data, _ := json.Marshal(rec)
	return string(data)
}
