package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crate/internal/albums"
	"crate/internal/reconcile"
	"crate/internal/resolver"
	"crate/internal/scan"
	"crate/internal/services"
)

type matchView struct {
	Source string        `json:"source"`
	Path   string        `json:"path,omitempty"`
	Record albums.Record `json:"record"`
}

type resultView struct {
	Input    string         `json:"input"`
	Barcode  string         `json:"barcode"`
	Outcome  string         `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
	Action   string         `json:"action,omitempty"`
	Path     string         `json:"path,omitempty"`
	Record   *albums.Record `json:"record,omitempty"`
	Matches  []matchView    `json:"matches,omitempty"`
	Selected *int           `json:"selected,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func newResultView(raw string, result scan.Result, err error) resultView {
	view := resultView{
		Input:   raw,
		Barcode: result.Outcome.Barcode,
		Outcome: result.Outcome.Kind.String(),
		Reason:  result.Outcome.Reason,
		Path:    result.Path,
	}
	if err != nil {
		view.Error = services.Summary(err)
		return view
	}
	view.Action = result.Action.String()
	if result.Action != reconcile.ActionSkip {
		rec := result.Record
		view.Record = &rec
	}
	for _, m := range result.Outcome.Matches {
		view.Matches = append(view.Matches, matchView{Source: m.Source, Path: m.Path, Record: m.Record})
	}
	if result.Outcome.Kind == resolver.KindDuplicate {
		selected := result.Outcome.Selected
		view.Selected = &selected
	}
	return view
}

// sessionRunner drives a scan.Session from the command line.
type sessionRunner struct {
	cmd      *cobra.Command
	ctx      *commandContext
	session  *scan.Session
	decider  scan.Decider
	prompter *prompter
	noun     string
}

// codes returns the barcodes to process in batch: args, then --file, then
// piped stdin when nothing else was given.
func (r *sessionRunner) codes(args []string, file string) ([]string, bool, error) {
	codes := append([]string(nil), args...)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, false, fmt.Errorf("open barcode file: %w", err)
		}
		defer f.Close()
		fromFile, err := scan.ReadBarcodes(f)
		if err != nil {
			return nil, false, err
		}
		codes = append(codes, fromFile...)
	}
	if len(codes) > 0 {
		return codes, true, nil
	}
	if r.ctx.interactive(r.cmd) {
		return nil, false, nil
	}
	fromStdin, err := scan.ReadBarcodes(r.cmd.InOrStdin())
	if err != nil {
		return nil, false, err
	}
	return fromStdin, true, nil
}

func (r *sessionRunner) runBatch(codes []string) error {
	out := r.cmd.OutOrStdout()
	var views []resultView
	summary := r.session.RunBatch(r.cmd.Context(), codes, r.decider, func(raw string, result scan.Result, err error) {
		if r.ctx.jsonOutput() {
			views = append(views, newResultView(raw, result, err))
			return
		}
		printResult(out, raw, result, err)
	})

	if r.ctx.jsonOutput() {
		return writeJSON(r.cmd, map[string]any{
			"correlation_id": summary.CorrelationID,
			"results":        views,
			"summary": map[string]int{
				"scanned":   summary.Scanned,
				"new":       summary.New,
				"created":   summary.Created,
				"duplicate": summary.Duplicate,
				"not_found": summary.NotFound,
				"skipped":   summary.Skipped,
				"failed":    summary.Failed,
			},
		})
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Scanned", "New", "Created", "Duplicate", "Not found", "Skipped", "Failed"},
		[][]string{{
			fmt.Sprint(summary.Scanned),
			fmt.Sprint(summary.New),
			fmt.Sprint(summary.Created),
			fmt.Sprint(summary.Duplicate),
			fmt.Sprint(summary.NotFound),
			fmt.Sprint(summary.Skipped),
			fmt.Sprint(summary.Failed),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	for _, msg := range summary.Errors {
		fmt.Fprintf(out, "  ! %s\n", msg)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d barcodes failed", summary.Failed, summary.Scanned)
	}
	return nil
}

func (r *sessionRunner) runLoop() error {
	out := r.cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s. Enter q to quit.\n", r.noun)
	for {
		if err := r.cmd.Context().Err(); err != nil {
			return err
		}
		raw, err := r.prompter.ask("\nScan or enter barcode [or q for quit]: ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if scan.IsQuit(raw) {
			return nil
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		result, err := r.session.Process(r.cmd.Context(), raw, r.decider)
		printResult(out, raw, result, err)
		if services.Fatal(err) {
			return err
		}
	}
}

func printResult(out io.Writer, raw string, result scan.Result, err error) {
	if err != nil {
		fmt.Fprintf(out, "%s: error: %s\n", raw, services.Summary(err))
		return
	}
	code := result.Outcome.Barcode
	switch result.Action {
	case reconcile.ActionDuplicate:
		fmt.Fprintf(out, "%s: already cataloged: %s\n", code, result.Record.Summary())
		if result.Path != "" {
			fmt.Fprintf(out, "  %s\n", result.Path)
		}
	case reconcile.ActionCreate:
		fmt.Fprintf(out, "%s: saved %s\n", code, result.Record.Summary())
		fmt.Fprintf(out, "  %s\n", result.Path)
	default:
		reason := result.Outcome.Reason
		if reason == "" {
			reason = "skipped"
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", displayCode(raw, code), strings.ToLower(result.Outcome.Kind.String()), reason)
	}
}

func displayCode(raw, code string) string {
	if code == "" {
		return fmt.Sprintf("%q", raw)
	}
	return code
}
