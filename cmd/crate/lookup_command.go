package main

import (
	"github.com/spf13/cobra"

	"crate/internal/reconcile"
	"crate/internal/resolver"
	"crate/internal/scan"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "lookup [barcode...]",
		Short: "Resolve barcodes and associate them in the association store",
		Long: "Resolve barcodes against the association store and the release index.\n\n" +
			"Confirmed releases are associated with their barcode; artist and album can be\n" +
			"overridden before associating. With --json the barcodes are only resolved and\n" +
			"nothing is written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := ctx.openWorkspace(cmd.Context(), ctx.jsonOutput())
			if err != nil {
				return err
			}
			defer ws.Close()

			p := newPrompter(cmd, associationFields)
			res := ws.resolver(ctx.chooser(cmd, p), resolver.AssociationSource(ws.associations))

			if ctx.jsonOutput() {
				return resolveOnly(cmd, res, args)
			}

			runner := &sessionRunner{
				cmd:      cmd,
				ctx:      ctx,
				session:  scan.NewSession(res, reconcile.New(nil), scan.AssociationSink(ws.associations), ws.logger),
				decider:  scan.AutoDecider{},
				prompter: p,
				noun:     "barcodes into " + ws.associations.Path(),
			}
			codes, batch, err := runner.codes(args, file)
			if err != nil {
				return err
			}
			if batch {
				if ctx.interactive(cmd) {
					runner.decider = p
				}
				return runner.runBatch(codes)
			}
			runner.decider = p
			return runner.runLoop()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read barcodes from a file, one per line")
	return cmd
}

// resolveOnly prints outcomes without committing anything.
func resolveOnly(cmd *cobra.Command, res *resolver.Resolver, args []string) error {
	codes := args
	if len(codes) == 0 {
		var err error
		if codes, err = scan.ReadBarcodes(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	rec := reconcile.New(nil)
	views := make([]resultView, 0, len(codes))
	for _, raw := range codes {
		outcome, err := res.Resolve(cmd.Context(), raw)
		result := scan.Result{Outcome: outcome}
		if err == nil {
			result.Record, result.Action = rec.Reconcile(outcome, nil)
			if m, ok := outcome.Record(); ok {
				result.Path = m.Path
			}
		}
		views = append(views, newResultView(raw, result, err))
	}
	return writeJSON(cmd, views)
}
