package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"crate/internal/barcode"
	"crate/internal/index"
	"crate/internal/preflight"
	"crate/internal/resolver"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect and seed the barcode index",
	}
	indexCmd.AddCommand(newIndexSampleCommand(ctx))
	indexCmd.AddCommand(newIndexStatsCommand(ctx))
	indexCmd.AddCommand(newIndexLookupCommand(ctx))
	return indexCmd
}

func (c *commandContext) openIndex() (*index.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return index.Open(cfg.Paths.IndexPath, logger)
}

func newIndexSampleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Seed the index with a few well-known releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			entries := index.SampleEntries()
			if err := store.Insert(cmd.Context(), entries...); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"inserted": len(entries), "index": store.Path()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d sample releases into %s\n", len(entries), store.Path())
			return nil
		},
	}
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index size and the last rebuild",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status := preflight.ProbeIndex(cmd.Context(), cfg.Paths.IndexPath)
			if status.Err != nil {
				return status.Err
			}

			if ctx.jsonOutput() {
				payload := map[string]any{
					"path":   status.Path,
					"exists": status.Exists,
					"bytes":  status.Size,
					"rows":   status.Rows,
				}
				if info := status.LastRebuild; info != nil {
					payload["last_rebuild"] = map[string]any{
						"run_id":       info.RunID,
						"source":       info.Source,
						"releases":     info.Releases,
						"rows":         info.Rows,
						"started_at":   info.StartedAt,
						"completed_at": info.CompletedAt,
					}
				}
				return writeJSON(cmd, payload)
			}

			rows := [][]string{
				{"Path", status.Path},
				{"Built", yesNo(status.Exists)},
				{"Barcodes", humanize.Comma(status.Rows)},
				{"Size", humanize.Bytes(uint64(status.Size))},
			}
			if info := status.LastRebuild; info != nil {
				rows = append(rows,
					[]string{"Last rebuild", info.CompletedAt.Local().Format("2006-01-02 15:04:05")},
					[]string{"Run ID", info.RunID},
					[]string{"Releases read", humanize.Comma(info.Releases)},
					[]string{"Source", info.Source},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Index", "Value"}, rows, nil))
			return nil
		},
	}
}

func newIndexLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Look a barcode up in the index only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := barcode.Normalize(args[0])
			if !barcode.Valid(code) {
				return fmt.Errorf("invalid barcode %q", args[0])
			}
			store, err := ctx.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, ok, err := store.Lookup(cmd.Context(), code)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if !ok {
					return writeJSON(cmd, map[string]any{"barcode": code, "found": false})
				}
				return writeJSON(cmd, map[string]any{
					"barcode":     entry.Barcode,
					"found":       true,
					"id":          entry.ID,
					"title":       entry.Title,
					"artist":      entry.Artist,
					"year":        entry.Year,
					"country":     entry.Country,
					"format":      entry.Format,
					"label":       entry.Label,
					"genre":       entry.Genre,
					"catno":       entry.Catno,
					"discogs_url": resolver.ReleaseURL(entry.ID),
				})
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Barcode %s not in index\n", code)
				return nil
			}
			rows := [][]string{
				{"Release ID", strconv.FormatInt(entry.ID, 10)},
				{"Artist", entry.Artist},
				{"Title", entry.Title},
				{"Year", formatYear(entry.Year)},
				{"Country", entry.Country},
				{"Format", entry.Format},
				{"Label", entry.Label},
				{"Genre", entry.Genre},
				{"Catalog #", entry.Catno},
				{"URL", resolver.ReleaseURL(entry.ID)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", code}, rows, nil))
			return nil
		},
	}
}
