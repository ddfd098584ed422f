package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/daysupplynational/daysupply/internal/extractor"
)

func newExtractCommand() *cobra.Command {
	var asJSON bool

	command := &cobra.Command{
		Use:   "extract <drug name> <quantity> <directions>",
		Short: "Extract the day supply for a single prescription",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ex, err := newExtractor(cfg)
			if err != nil {
				return err
			}

			input := extractor.PrescriptionInput{
				DrugName:   args[0],
				Quantity:   parseQuantity(args[1]),
				Directions: args[2],
			}
			result := ex.Extract(cmd.Context(), input)

			if asJSON {
				return printJSON(cmd, result)
			}
			printResult(result)
			return nil
		},
	}

	command.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return command
}

func printResult(result extractor.ExtractedData) {
	if result.MatchedName == nil {
		color.Red("No match: %s", result.OriginalName)
	} else {
		color.Green("Matched: %s -> %s (%s, confidence %.2f)",
			result.OriginalName, *result.MatchedName, result.Category, result.Confidence)
	}

	fmt.Printf("Day supply: %d\n", result.DaySupply)
	fmt.Printf("Corrected quantity: %.4g\n", result.CorrectedQuantity)
	fmt.Printf("Directions: %s\n", result.StandardizedDirections)

	for _, warning := range result.Warnings {
		color.Yellow("Warning: %s", warning)
	}
}

func printJSON(cmd *cobra.Command, body any) error {
	encoder := newIndentEncoder(cmd)
	if err := encoder.Encode(body); err != nil {
		return fmt.Errorf("encoder.Encode > %w", err)
	}
	return nil
}
