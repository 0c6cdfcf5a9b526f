package scan

import (
	"context"

	"crate/internal/albums"
	"crate/internal/reconcile"
	"crate/internal/resolver"
)

// Decider supplies the human decisions a session needs.
type Decider interface {
	// ReviewNew shows a drafted record for a NEW outcome. It returns whether to
	// keep it and optional corrections to apply first.
	ReviewNew(ctx context.Context, outcome resolver.Outcome, draft albums.Record) (bool, *reconcile.Manual, error)
	// ManualEntry is asked for a NOT_FOUND barcode. A nil entry skips it.
	ManualEntry(ctx context.Context, outcome resolver.Outcome) (*reconcile.Manual, error)
}

// AutoDecider accepts every NEW candidate unchanged and skips NOT_FOUND codes.
type AutoDecider struct{}

func (AutoDecider) ReviewNew(context.Context, resolver.Outcome, albums.Record) (bool, *reconcile.Manual, error) {
	return true, nil, nil
}

func (AutoDecider) ManualEntry(context.Context, resolver.Outcome) (*reconcile.Manual, error) {
	return nil, nil
}
