package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crate/internal/albums"
)

func newInventoryCommand(ctx *commandContext) *cobra.Command {
	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Maintain the album inventory digest",
	}
	inventoryCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Merge every album record into the inventory digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			lib := albums.NewLibrary(cfg.Paths.AlbumsDir, logger)
			added, total, err := lib.UpdateInventory(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"added": added, "total": total, "path": lib.InventoryPath()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inventory updated: %d added, %d total (%s)\n", added, total, lib.InventoryPath())
			return nil
		},
	})
	return inventoryCmd
}
