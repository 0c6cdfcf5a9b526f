package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crate/internal/reconcile"
	"crate/internal/resolver"
	"crate/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var file string
	var skipInventory bool

	cmd := &cobra.Command{
		Use:   "scan [barcode...]",
		Short: "Scan barcodes into album JSON records",
		Long: "Scan barcodes into album JSON records.\n\n" +
			"With barcodes as arguments, --file or piped input the scan runs in batch mode:\n" +
			"index candidates are accepted and unknown barcodes are skipped. Without them an\n" +
			"interactive session prompts for each barcode until q is entered. The inventory\n" +
			"digest is refreshed when the session ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := ctx.openWorkspace(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ws.Close()

			p := newPrompter(cmd, albumFields)
			res := ws.resolver(ctx.chooser(cmd, p),
				resolver.AlbumSource(ws.library),
				resolver.AssociationSource(ws.associations),
			)
			runner := &sessionRunner{
				cmd:      cmd,
				ctx:      ctx,
				session:  scan.NewSession(res, reconcile.New(nil), scan.LibrarySink(ws.library), ws.logger),
				decider:  scan.AutoDecider{},
				prompter: p,
				noun:     "albums into " + ws.library.Dir(),
			}

			codes, batch, err := runner.codes(args, file)
			if err != nil {
				return err
			}
			var runErr error
			if batch {
				runErr = runner.runBatch(codes)
			} else {
				runner.decider = p
				runErr = runner.runLoop()
			}

			if skipInventory {
				return runErr
			}
			added, total, err := ws.library.UpdateInventory(cmd.Context())
			if err != nil {
				if runErr != nil {
					return runErr
				}
				return err
			}
			if !ctx.jsonOutput() {
				fmt.Fprintf(cmd.OutOrStdout(), "Inventory updated: %d added, %d total\n", added, total)
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read barcodes from a file, one per line")
	cmd.Flags().BoolVar(&skipInventory, "no-inventory", false, "Do not refresh the inventory digest afterwards")
	return cmd
}
