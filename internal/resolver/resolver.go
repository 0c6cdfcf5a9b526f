package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crate/internal/albums"
	"crate/internal/barcode"
	"crate/internal/index"
	"crate/internal/logging"
	"crate/internal/services"
)

const stage = "resolve"

const releaseURLFormat = "https://www.discogs.com/release/%d"

// ReleaseURL returns the public page for a vendor release id.
func ReleaseURL(id int64) string {
	return fmt.Sprintf(releaseURLFormat, id)
}

// Resolver resolves scanned barcodes against local stores and the index.
type Resolver struct {
	index   Index
	chooser Chooser
	sources []LocalSource
	logger  *slog.Logger
}

// New constructs a Resolver. A nil chooser selects the first match.
func New(idx Index, chooser Chooser, logger *slog.Logger, sources ...LocalSource) *Resolver {
	if chooser == nil {
		chooser = FirstMatch{}
	}
	return &Resolver{
		index:   idx,
		chooser: chooser,
		sources: sources,
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve normalizes raw and classifies it. Invalid barcodes are NOT_FOUND
// without touching any store.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Outcome, error) {
	code := barcode.Normalize(raw)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldBarcode, code))

	if !barcode.Valid(code) {
		logger.Debug("rejected invalid barcode", logging.String("raw", raw))
		return Outcome{Kind: KindNotFound, Barcode: code, Selected: NoSelection, Reason: ReasonInvalidBarcode}, nil
	}

	matches, err := r.searchLocal(ctx, code)
	if err != nil {
		return Outcome{}, err
	}
	if len(matches) > 0 {
		selected, err := r.choose(ctx, logger, code, matches)
		if err != nil {
			return Outcome{}, err
		}
		outcome := Outcome{Kind: KindDuplicate, Barcode: code, Matches: matches, Selected: selected}
		if selected == NoSelection {
			outcome.Reason = ReasonNoSelection
		}
		logger.Debug("barcode resolved",
			logging.String("outcome", outcome.Kind.String()),
			logging.Int("matches", len(matches)),
			logging.Int("selected", selected),
		)
		return outcome, nil
	}

	if r.index == nil {
		return Outcome{Kind: KindNotFound, Barcode: code, Selected: NoSelection, Reason: ReasonIndexUnavailable}, nil
	}
	entry, ok, err := r.index.Lookup(ctx, code)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		logger.Debug("barcode resolved", logging.String("outcome", KindNotFound.String()))
		return Outcome{Kind: KindNotFound, Barcode: code, Selected: NoSelection, Reason: ReasonNotIndexed}, nil
	}

	candidate := candidateFromEntry(entry)
	logger.Debug("barcode resolved",
		logging.String("outcome", KindNew.String()),
		logging.Int64("release_id", entry.ID),
	)
	return Outcome{Kind: KindNew, Barcode: code, Selected: NoSelection, Candidate: &candidate}, nil
}

func (r *Resolver) searchLocal(ctx context.Context, code string) ([]LocalMatch, error) {
	var (
		matches []LocalMatch
		seen    = make(map[string]struct{})
	)
	for _, src := range r.sources {
		found, err := src.Search(ctx, code)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, stage, "search local records", code, err)
		}
		for _, m := range found {
			key := matchKey(m)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (r *Resolver) choose(ctx context.Context, logger *slog.Logger, code string, matches []LocalMatch) (int, error) {
	if len(matches) == 1 {
		return 0, nil
	}
	selected, err := r.chooser.ChooseOne(ctx, code, matches)
	if errors.Is(err, ErrChooserUnavailable) {
		logging.WarnWithContext(logger, "interactive selection unavailable; using first match", "selection_fallback",
			logging.Int("matches", len(matches)),
			logging.String(logging.FieldErrorHint, "run interactively to pick a specific record"),
			logging.String(logging.FieldImpact, "first local record in encounter order was selected"),
		)
		return 0, nil
	}
	if err != nil {
		return NoSelection, err
	}
	if selected < 0 {
		return NoSelection, nil
	}
	if selected >= len(matches) {
		return NoSelection, services.Wrap(services.ErrValidation, stage, "choose", fmt.Sprintf("selection %d out of range (%d matches)", selected, len(matches)), nil)
	}
	return selected, nil
}

func candidateFromEntry(entry index.Entry) Candidate {
	c := Candidate{
		ExternalID: entry.ID,
		Barcode:    entry.Barcode,
		Title:      entry.Title,
		Artist:     albums.PrimaryArtist(entry.Artist),
		Country:    entry.Country,
		Formats:    splitList(entry.Format),
		Labels:     splitList(entry.Label),
		Genres:     splitList(entry.Genre),
		Catno:      entry.Catno,
		SourceURL:  ReleaseURL(entry.ID),
	}
	if entry.Year != nil {
		year := *entry.Year
		c.Year = &year
	}
	return c
}

func splitList(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ", ")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func matchKey(m LocalMatch) string {
	data, _ := json.Marshal(m.Record)
	return string(data)
}
