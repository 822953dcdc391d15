package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"carvelens/internal/config"
	"carvelens/internal/extraction"
	"carvelens/internal/pipeline"
	"carvelens/internal/store"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [output-dir]",
		Short: "Process a carver output directory",
		Long: "Parse the carver's audit manifest, extract metadata from every " +
			"recovered file, detect duplicate content, and write a report into " +
			"the output directory. With no argument the configured output " +
			"directory is scanned.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				outputDir := cfg.Paths.OutputDir
				if len(args) == 1 {
					expanded, err := config.ExpandPath(args[0])
					if err != nil {
						return err
					}
					outputDir = expanded
				}

				primary := extraction.NewExifTool(
					cfg.ExifToolBinary(),
					time.Duration(cfg.Extraction.ToolTimeout)*time.Second,
				)
				if version, err := primary.Version(cmd.Context()); err == nil {
					logger.Info("exiftool available", "version", version)
				} else {
					logger.Warn("exiftool unavailable, per-file fallback will be used", "error", err)
				}

				// When a batch fails wholesale, each of its files retries
				// through single-file exiftool before the in-process prober.
				fallback := extraction.NewChain(primary, extraction.NewFallback())
				runner := pipeline.NewRunner(cfg, st, primary, fallback, logger)
				outcome, err := runner.Run(cmd.Context(), outputDir)
				if err != nil {
					if errors.Is(err, pipeline.ErrAlreadyRunning) {
						return errors.New("another carvelens run is active; wait for it to finish")
					}
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, scanView(outcome))
				}
				printScanOutcome(cmd, outcome)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run outcome as JSON")
	return cmd
}

type scanOutcomeView struct {
	SessionID         string  `json:"session_id"`
	ReportPath        string  `json:"report_path"`
	FileCount         int     `json:"file_count"`
	DuplicateGroups   int     `json:"duplicate_groups"`
	FailedExtractions int     `json:"failed_extractions"`
	ImagesCopied      int     `json:"images_copied"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
}

func scanView(outcome *pipeline.Outcome) scanOutcomeView {
	return scanOutcomeView{
		SessionID:         outcome.SessionID,
		ReportPath:        outcome.ReportPath,
		FileCount:         outcome.FileCount,
		DuplicateGroups:   outcome.DuplicateGroups,
		FailedExtractions: outcome.FailedExtractions,
		ImagesCopied:      outcome.ImagesCopied,
		ElapsedSeconds:    outcome.Elapsed.Seconds(),
	}
}

func printScanOutcome(cmd *cobra.Command, outcome *pipeline.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s completed in %s\n", outcome.SessionID, outcome.Elapsed.Round(time.Millisecond))

	rows := [][]string{
		{"Files processed", fmt.Sprintf("%d", outcome.FileCount)},
		{"Duplicate groups", fmt.Sprintf("%d", outcome.DuplicateGroups)},
		{"Failed extractions", fmt.Sprintf("%d", outcome.FailedExtractions)},
		{"Images copied", fmt.Sprintf("%d", outcome.ImagesCopied)},
	}
	if stdoutIsTerminal() {
		fmt.Fprintln(out, renderTable([]column{{title: "Metric"}, {title: "Value", numeric: true}}, rows))
	} else {
		for _, row := range rows {
			fmt.Fprintf(out, "%s: %s\n", row[0], row[1])
		}
	}
	fmt.Fprintf(out, "Report written to %s\n", outcome.ReportPath)
}
