package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"crate/internal/fetch"
	"crate/internal/ingest"
	"crate/internal/preflight"
	"crate/internal/services"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var skipSpaceCheck bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the release dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, bars, err := ctx.newPipeline(cmd)
			if err != nil {
				return err
			}
			if !skipSpaceCheck {
				if err := ctx.checkDumpSpace(); err != nil {
					return err
				}
			}
			result, err := pipeline.Download(cmd.Context())
			bars.download.finish()
			if err != nil {
				return err
			}
			return ctx.printDownload(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&skipSpaceCheck, "skip-space-check", false, "Download even when the dump directory looks too small")
	return cmd
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the barcode index from the release dump",
		Long: "Rebuild the barcode index from the downloaded release dump.\n\n" +
			"The index is cleared first and committed in batches; readers running during a\n" +
			"rebuild may see a partial index, and an interrupted rebuild leaves one behind.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, bars, err := ctx.newPipeline(cmd)
			if err != nil {
				return err
			}
			if download {
				if err := ctx.checkDumpSpace(); err != nil {
					return err
				}
				result, err := pipeline.Download(cmd.Context())
				bars.download.finish()
				if err != nil {
					return err
				}
				if !ctx.jsonOutput() {
					if err := ctx.printDownload(cmd, result); err != nil {
						return err
					}
				}
			}

			report, err := pipeline.Build(cmd.Context())
			bars.build.finish()
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"run_id":      report.RunID,
					"source":      report.Source,
					"releases":    report.Releases,
					"malformed":   report.Malformed,
					"barcodes":    report.Barcodes,
					"rows":        report.Rows,
					"batches":     report.Batches,
					"duration_ms": report.Duration.Milliseconds(),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %s releases (%s barcodes) in %s\n",
				humanize.Comma(report.Releases), humanize.Comma(report.Rows), report.Duration.Round(time.Second))
			if report.Malformed > 0 {
				fmt.Fprintf(out, "Skipped %s malformed releases\n", humanize.Comma(report.Malformed))
			}
			fmt.Fprintf(out, "Run ID: %s\n", report.RunID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "Download the dump before indexing")
	return cmd
}

type pipelineBars struct {
	download *progressDisplay
	build    *progressDisplay
}

// newPipeline builds an ingest pipeline whose progress is drawn on stderr.
func (c *commandContext) newPipeline(cmd *cobra.Command) (*ingest.Pipeline, pipelineBars, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, pipelineBars{}, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, pipelineBars{}, err
	}
	showBar := !c.jsonOutput() && isTerminal(os.Stderr)
	bars := pipelineBars{
		download: newByteProgress(cmd.ErrOrStderr(), showBar, "Downloading"),
		build:    newPercentProgress(cmd.ErrOrStderr(), showBar, "Indexing"),
	}
	pipeline := ingest.New(cfg, ingest.Options{
		Logger:     logger,
		OnDownload: bars.download.bytes,
		OnBuild:    func(fraction float64, _ int64) { bars.build.fraction(fraction) },
	})
	return pipeline, bars, nil
}

func (c *commandContext) checkDumpSpace() error {
	result := preflight.CheckFreeSpace("Dump free space", c.config.Paths.DumpDir, preflight.MinDumpFreeBytes)
	if result.Passed {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "download", "check free space", result.Detail+" (use --skip-space-check to override)", nil)
}

func (c *commandContext) printDownload(cmd *cobra.Command, result fetch.Result) error {
	if c.jsonOutput() {
		return writeJSON(cmd, map[string]any{
			"path":     result.Path,
			"bytes":    result.Bytes,
			"segments": result.Segments,
			"skipped":  result.Skipped,
		})
	}
	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintf(out, "Dump already complete at %s (%s)\n", result.Path, humanize.Bytes(uint64(result.Bytes)))
		return nil
	}
	fmt.Fprintf(out, "Downloaded %s to %s in %d segments\n", humanize.Bytes(uint64(result.Bytes)), result.Path, result.Segments)
	return nil
}
