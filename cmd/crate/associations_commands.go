package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"crate/internal/association"
	"crate/internal/barcode"
)

func newAssociationsCommand(ctx *commandContext) *cobra.Command {
	assocCmd := &cobra.Command{
		Use:     "associations",
		Aliases: []string{"assoc"},
		Short:   "Inspect the barcode association store",
	}
	assocCmd.AddCommand(newAssociationsListCommand(ctx))
	assocCmd.AddCommand(newAssociationsRemoveCommand(ctx))
	return assocCmd
}

func (c *commandContext) openAssociations() (*association.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return association.Open(cfg.Paths.AssociationsPath, logger)
}

func newAssociationsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List associated barcodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openAssociations()
			if err != nil {
				return err
			}
			records := store.List()
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No associations")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				id := ""
				if rec.DiscogsID != 0 {
					id = strconv.FormatInt(int64(rec.DiscogsID), 10)
				}
				rows = append(rows, []string{rec.Barcode, rec.Artist, rec.Album, string(rec.Year), id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Barcode", "Artist", "Album", "Year", "Release"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newAssociationsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <barcode>",
		Short: "Remove an association",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openAssociations()
			if err != nil {
				return err
			}
			code := barcode.Normalize(args[0])
			if err := store.Remove(code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed association for %s\n", code)
			return nil
		},
	}
}
