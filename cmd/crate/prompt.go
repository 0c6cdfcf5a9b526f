package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crate/internal/albums"
	"crate/internal/reconcile"
	"crate/internal/resolver"
)

// manualField is one prompt of a manual entry or correction form.
type manualField struct {
	label   string
	current func(albums.Record) string
	set     func(*reconcile.Manual, string)
}

var albumFields = []manualField{
	{"Artist", func(r albums.Record) string { return r.Artist }, func(m *reconcile.Manual, v string) { m.Artist = v }},
	{"Title", func(r albums.Record) string { return r.Title }, func(m *reconcile.Manual, v string) { m.Title = v }},
	{"Year", func(r albums.Record) string { return string(r.Year) }, func(m *reconcile.Manual, v string) { m.Year = v }},
	{"Country", func(r albums.Record) string { return r.Country }, func(m *reconcile.Manual, v string) { m.Country = v }},
	{"Genres", func(r albums.Record) string { return r.Genres }, func(m *reconcile.Manual, v string) { m.Genres = splitInput(v) }},
	{"Labels", func(r albums.Record) string { return r.Labels }, func(m *reconcile.Manual, v string) { m.Labels = splitInput(v) }},
	{"Catalog #", func(r albums.Record) string { return r.Catalog }, func(m *reconcile.Manual, v string) { m.Catno = v }},
	{"Formats", func(r albums.Record) string { return r.Formats }, func(m *reconcile.Manual, v string) { m.Formats = splitInput(v) }},
	{"Discogs URL", func(r albums.Record) string { return r.DiscogsURL }, func(m *reconcile.Manual, v string) { m.DiscogsURL = v }},
	{"Path", func(r albums.Record) string { return r.Path }, func(m *reconcile.Manual, v string) { m.Path = v }},
}

var associationFields = []manualField{
	{"Artist", func(r albums.Record) string { return r.Artist }, func(m *reconcile.Manual, v string) { m.Artist = v }},
	{"Album", func(r albums.Record) string { return r.Title }, func(m *reconcile.Manual, v string) { m.Title = v }},
}

// prompter asks the terminal for decisions. It implements resolver.Chooser
// and scan.Decider.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fields []manualField
}

func newPrompter(cmd *cobra.Command, fields []manualField) *prompter {
	return &prompter{
		in:     bufio.NewReader(cmd.InOrStdin()),
		out:    cmd.OutOrStdout(),
		fields: fields,
	}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) confirm(label string) (bool, error) {
	answer, err := p.ask(label + " (y/n): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *prompter) ChooseOne(ctx context.Context, code string, matches []resolver.LocalMatch) (int, error) {
	fmt.Fprintf(p.out, "\nFound %d records for barcode %s:\n", len(matches), code)
	fmt.Fprintln(p.out, renderMatches(matches))
	for {
		if err := ctx.Err(); err != nil {
			return resolver.NoSelection, err
		}
		answer, err := p.ask(fmt.Sprintf("Select record [1-%d, 0 to cancel]: ", len(matches)))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return resolver.NoSelection, resolver.ErrChooserUnavailable
			}
			return resolver.NoSelection, err
		}
		n, convErr := strconv.Atoi(answer)
		switch {
		case convErr != nil || n < 0 || n > len(matches):
			fmt.Fprintln(p.out, "Invalid selection.")
		case n == 0:
			return resolver.NoSelection, nil
		default:
			return n - 1, nil
		}
	}
}

func (p *prompter) ReviewNew(ctx context.Context, outcome resolver.Outcome, draft albums.Record) (bool, *reconcile.Manual, error) {
	fmt.Fprintln(p.out, "\nFound in the release index:")
	printRecord(p.out, draft)
	for {
		if err := ctx.Err(); err != nil {
			return false, nil, err
		}
		answer, err := p.ask("Is this information correct? [y]es / [e]dit / [s]kip: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil, nil
			}
			return false, nil, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil, nil
		case "s", "skip", "n", "no":
			return false, nil, nil
		case "e", "edit":
			fmt.Fprintln(p.out, "Enter corrections (leave blank to keep the current value):")
			manual, err := p.fill(&draft)
			if err != nil {
				return false, nil, err
			}
			return true, manual, nil
		default:
			fmt.Fprintln(p.out, "Please answer y, e or s.")
		}
	}
}

func (p *prompter) ManualEntry(ctx context.Context, outcome resolver.Outcome) (*reconcile.Manual, error) {
	fmt.Fprintf(p.out, "\nBarcode %s not found (%s).\n", outcome.Barcode, outcome.Reason)
	create, err := p.confirm("Enter the album manually?")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if !create {
		return nil, nil
	}
	return p.fill(nil)
}

// fill prompts every field. With a current record, the prompt shows the
// existing value and a blank answer keeps it.
func (p *prompter) fill(current *albums.Record) (*reconcile.Manual, error) {
	manual := &reconcile.Manual{}
	for _, field := range p.fields {
		label := field.label + ": "
		if current != nil {
			label = fmt.Sprintf("%s [%s]: ", field.label, field.current(*current))
		}
		value, err := p.ask(label)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		field.set(manual, value)
	}
	return manual, nil
}

func printRecord(out io.Writer, rec albums.Record) {
	rows := [][2]string{
		{"Artist", rec.Artist},
		{"Title", rec.Title},
		{"Year", string(rec.Year)},
		{"Country", rec.Country},
		{"Genres", rec.Genres},
		{"Labels", rec.Labels},
		{"Catalog #", rec.Catalog},
		{"Formats", rec.Formats},
		{"Discogs URL", rec.DiscogsURL},
		{"Barcode", rec.Barcode},
	}
	if rec.Path != "" {
		rows = append(rows, [2]string{"Path", rec.Path})
	}
	for _, row := range rows {
		fmt.Fprintf(out, "  %-12s %s\n", row[0]+":", row[1])
	}
}

func splitInput(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
