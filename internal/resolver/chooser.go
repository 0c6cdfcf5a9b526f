package resolver

import (
	"context"
	"errors"
)

// ErrChooserUnavailable is returned by interactive choosers that cannot prompt,
// for example when stdin is not a terminal.
var ErrChooserUnavailable = errors.New("interactive chooser unavailable")

// Chooser picks one of several local matches. It returns the match index or
// NoSelection when the user cancels.
type Chooser interface {
	ChooseOne(ctx context.Context, code string, matches []LocalMatch) (int, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, code string, matches []LocalMatch) (int, error)

func (f ChooserFunc) ChooseOne(ctx context.Context, code string, matches []LocalMatch) (int, error) {
	return f(ctx, code, matches)
}

// FirstMatch always selects the first match in encounter order.
type FirstMatch struct{}

func (FirstMatch) ChooseOne(context.Context, string, []LocalMatch) (int, error) {
	return 0, nil
}
