package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"carvelens/internal/config"
	"carvelens/internal/report"
	"carvelens/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Generate a report for a completed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := strings.TrimSpace(args[0])

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				model, err := report.NewAssembler(st).Assemble(cmd.Context(), sessionID)
				if err != nil {
					return err
				}

				if summaryOnly {
					printReportSummary(cmd, model)
					return nil
				}

				if outputPath != "" {
					expanded, err := config.ExpandPath(outputPath)
					if err != nil {
						return err
					}
					if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
						return fmt.Errorf("create report directory: %w", err)
					}
					file, err := os.Create(expanded)
					if err != nil {
						return fmt.Errorf("create report file: %w", err)
					}
					defer file.Close()
					if err := report.WriteJSON(file, model); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", expanded)
					return nil
				}

				return report.WriteJSON(cmd.OutOrStdout(), model)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Print a human-readable summary instead of JSON")
	return cmd
}

func printReportSummary(cmd *cobra.Command, model *report.Model) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Image: %s (%s)\n", model.Session.ImageName, humanBytes(model.Session.ImageSizeBytes))
	if model.Session.CarverVersion != "" {
		fmt.Fprintf(out, "Carver: foremost %s\n", model.Session.CarverVersion)
	}
	fmt.Fprintf(out, "Files: %d (%s total), duplicates: %d in %d groups, failed extractions: %d\n",
		model.Summary.FileCount,
		humanBytes(model.Summary.TotalMeasuredBytes),
		model.Summary.DuplicateFileCount,
		model.Summary.DuplicateGroupCount,
		model.Summary.FailedExtractionCount,
	)

	if len(model.Summary.TypeCounts) > 0 {
		rows := make([][]string, 0, len(model.Summary.TypeCounts))
		for _, typeCount := range model.Summary.TypeCounts {
			rows = append(rows, []string{typeCount.Label, fmt.Sprintf("%d", typeCount.Count)})
		}
		fmt.Fprintln(out, renderTable([]column{{title: "Type"}, {title: "Count", numeric: true}}, rows))
	}

	if len(model.Summary.LargestFiles) > 0 {
		rows := make([][]string, 0, len(model.Summary.LargestFiles))
		for _, largest := range model.Summary.LargestFiles {
			rows = append(rows, []string{
				fmt.Sprintf("%d", largest.Seq),
				largest.Name,
				largest.Type,
				humanBytes(largest.MeasuredSize),
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{title: "Seq", numeric: true},
			{title: "Name"},
			{title: "Type"},
			{title: "Size", numeric: true},
		}, rows))
	}
}
