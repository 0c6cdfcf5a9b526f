package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crate/internal/preflight"
)

// warnOnly are checks whose failure does not make status fail.
var warnOnly = map[string]bool{
	"Dump free space": true,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, the index and the association store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if remote {
				results = append(results, preflight.CheckDumpSource(cmd.Context(), cfg.DumpURL()))
			}

			failed := 0
			for _, r := range preflight.Failed(results) {
				if !warnOnly[r.Name] {
					failed++
				}
			}

			if ctx.jsonOutput() {
				checks := make([]map[string]any, 0, len(results))
				for _, r := range results {
					checks = append(checks, map[string]any{"name": r.Name, "passed": r.Passed, "detail": r.Detail})
				}
				if err := writeJSON(cmd, map[string]any{"checks": checks, "healthy": failed == 0}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "crate status (%s)\n", cfg.Paths.DataDir)
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r.Name, statusKindOf(r, warnOnly[r.Name]), r.Detail, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Selection", statusInfo, cfg.Resolver.Selection, colorize))
			}

			if failed > 0 {
				return fmt.Errorf("%d status checks failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Also check that the dump URL is reachable")
	return cmd
}
