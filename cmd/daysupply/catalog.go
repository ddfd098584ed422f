package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/matcher"
	"github.com/daysupplynational/daysupply/internal/rxnav"
)

type categoryFlag catalog.Category

func (c *categoryFlag) Set(val string) error {
	for _, category := range allCategories {
		if val == string(category) {
			*c = categoryFlag(category)
			return nil
		}
	}
	return fmt.Errorf("invalid category: %s", val)
}

func (c categoryFlag) String() string {
	return string(c)
}

func (c *categoryFlag) Type() string {
	return "category"
}

var (
	_             pflag.Value = (*categoryFlag)(nil)
	allCategories             = []catalog.Category{
		catalog.CategoryNasalSpray,
		catalog.CategoryOralInhaler,
		catalog.CategoryInsulin,
		catalog.CategoryBiologicInjectable,
		catalog.CategoryNonbiologicInjectable,
		catalog.CategoryDiabeticInjectable,
		catalog.CategoryEyedrop,
		catalog.CategoryTopical,
	}
)

func newCatalogCommand() *cobra.Command {
	catalogCommand := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the PAAS National drug catalog",
	}

	catalogCommand.AddCommand(newCatalogListCommand())
	catalogCommand.AddCommand(newCatalogLookupCommand())

	return catalogCommand
}

func newCatalogListCommand() *cobra.Command {
	var categoryFilter categoryFlag

	command := &cobra.Command{
		Use:   "list",
		Short: "List all drugs in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load()
			if err != nil {
				return fmt.Errorf("catalog.Load > %w", err)
			}

			names := cat.Names()
			sort.Strings(names)
			count := 0
			for _, name := range names {
				record, ok := cat.Lookup(name)
				if !ok {
					continue
				}
				if categoryFilter != "" && record.Category != catalog.Category(categoryFilter) {
					continue
				}
				fmt.Printf("%-40s %s\n", name, record.Category)
				count++
			}
			fmt.Printf("\n%d drugs\n", count)
			return nil
		},
	}

	command.Flags().Var(&categoryFilter, "category",
		fmt.Sprintf("Only list drugs in this category. Possible values are %v", allCategories))
	return command
}

func newCatalogLookupCommand() *cobra.Command {
	var withRxNav bool

	command := &cobra.Command{
		Use:   "lookup <drug name>",
		Short: "Look up a drug by fuzzy name match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drugName := args[0]

			cat, err := catalog.Load()
			if err != nil {
				return fmt.Errorf("catalog.Load > %w", err)
			}

			matchedName, confidence := matcher.New(cat).Match(drugName)
			if matchedName == "" || confidence < matcher.AcceptThreshold {
				color.Red("No catalog match for %q (best confidence %.2f)", drugName, confidence)
			} else {
				record, _ := cat.Lookup(matchedName)
				color.Green("Matched: %s (%s, confidence %.2f)", matchedName, record.Category, confidence)

				keys := make([]string, 0, len(record.Attributes))
				for key := range record.Attributes {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Printf("  %s: %s\n", key, record.Attributes[key])
				}
			}

			if !withRxNav {
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := rxnav.NewClient(cfg.RxNav.BaseURL, cfg.RxNav.CacheDirectory)
			candidates, err := client.ApproximateMatch(cmd.Context(), drugName)
			if err != nil {
				return fmt.Errorf("client.ApproximateMatch > %w", err)
			}

			fmt.Println("\nRxNorm candidates:")
			if len(candidates) == 0 {
				fmt.Println("  none")
			}
			for _, candidate := range candidates {
				fmt.Printf("  %-10s score %3.0f  %s\n", candidate.RxCUI, candidate.ScoreValue(), candidate.Name)
			}
			return nil
		},
	}

	command.Flags().BoolVar(&withRxNav, "rxnav", false, "Also query RxNorm for name candidates")
	return command
}
