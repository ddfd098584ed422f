package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/daysupplynational/daysupply/internal/extractor"
	"github.com/daysupplynational/daysupply/internal/report"
)

func newBatchCommand() *cobra.Command {
	var outputPath string
	var asPDF bool

	command := &cobra.Command{
		Use:   "batch <input.json>",
		Short: "Extract day supplies for a batch of prescriptions and write a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ex, err := newExtractor(cfg)
			if err != nil {
				return err
			}

			inputs, err := readBatchFile(args[0])
			if err != nil {
				return err
			}

			items := make([]report.Item, 0, len(inputs))
			for _, input := range inputs {
				items = append(items, report.Item{
					Input:  input,
					Result: ex.Extract(cmd.Context(), input),
				})
			}

			writtenPath, err := report.Write(outputPath, items, time.Now(), asPDF)
			if err != nil {
				return fmt.Errorf("report.Write > %w", err)
			}

			summary := report.Summarize(items)
			color.Green("Processed %d prescriptions (%d matched, %d not in database)",
				summary.Total, summary.Matched, summary.Unmatched)
			if summary.WarningCount > 0 {
				color.Yellow("%d warnings, see the report for details", summary.WarningCount)
			}
			fmt.Printf("Report written to %s\n", writtenPath)
			return nil
		},
	}

	command.Flags().StringVar(&outputPath, "output", "daysupply-report.md", "Report output path")
	command.Flags().BoolVar(&asPDF, "pdf", false, "Also render the report as a PDF")
	return command
}

// readBatchFile reads prescriptions from a JSON file, accepting either a bare
// array or an object with a prescriptions field.
func readBatchFile(path string) ([]extractor.PrescriptionInput, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}

	var inputs []extractor.PrescriptionInput
	if err := json.Unmarshal(contents, &inputs); err == nil {
		return inputs, nil
	}

	var wrapped struct {
		Prescriptions []extractor.PrescriptionInput `json:"prescriptions"`
	}
	if err := json.Unmarshal(contents, &wrapped); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}
	if len(wrapped.Prescriptions) == 0 {
		return nil, fmt.Errorf("no prescriptions found in %s", path)
	}
	return wrapped.Prescriptions, nil
}
