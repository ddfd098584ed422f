// Package report renders batch extraction results as markdown and PDF.
package report

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/daysupplynational/daysupply/internal/extractor"
)

// Item pairs a submitted prescription with its extraction result.
type Item struct {
	Input  extractor.PrescriptionInput
	Result extractor.ExtractedData
}

// Summary holds aggregate counts for a batch.
type Summary struct {
	Total        int
	Matched      int
	Unmatched    int
	Degraded     int
	WarningCount int
	ByCategory   map[string]int
}

// Summarize aggregates batch results.
func Summarize(items []Item) Summary {
	summary := Summary{
		Total:      len(items),
		ByCategory: make(map[string]int),
	}
	for _, item := range items {
		if item.Result.MatchedName == nil {
			summary.Unmatched++
		} else {
			summary.Matched++
		}
		if slices.Contains(item.Result.Warnings, extractor.DegradedCalculationWarning) {
			summary.Degraded++
		}
		summary.WarningCount += len(item.Result.Warnings)
		summary.ByCategory[string(item.Result.Category)]++
	}
	return summary
}

// Render produces a markdown report for a batch of extractions.
func Render(items []Item, generatedAt time.Time) string {
	summary := Summarize(items)

	var builder strings.Builder
	builder.WriteString("# Day Supply Extraction Report\n\n")
	builder.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format("2006-01-02 15:04 MST")))

	builder.WriteString("## Summary\n\n")
	builder.WriteString(fmt.Sprintf("- Prescriptions processed: %d\n", summary.Total))
	builder.WriteString(fmt.Sprintf("- Matched: %d\n", summary.Matched))
	builder.WriteString(fmt.Sprintf("- Not in database: %d\n", summary.Unmatched))
	builder.WriteString(fmt.Sprintf("- Degraded calculations: %d\n", summary.Degraded))
	builder.WriteString(fmt.Sprintf("- Warnings: %d\n\n", summary.WarningCount))

	builder.WriteString("### By category\n\n")
	categories := make([]string, 0, len(summary.ByCategory))
	for category := range summary.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		builder.WriteString(fmt.Sprintf("- %s: %d\n", category, summary.ByCategory[category]))
	}
	builder.WriteString("\n")

	builder.WriteString("## Results\n\n")
	builder.WriteString("| Drug | Matched | Category | Quantity | Day Supply | Confidence |\n")
	builder.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, item := range items {
		matched := "-"
		if item.Result.MatchedName != nil {
			matched = *item.Result.MatchedName
		}
		builder.WriteString(fmt.Sprintf("| %s | %s | %s | %.4g | %d | %.2f |\n",
			item.Input.DrugName, matched, item.Result.Category,
			item.Result.CorrectedQuantity, item.Result.DaySupply, item.Result.Confidence))
	}
	builder.WriteString("\n")

	warned := false
	for _, item := range items {
		if len(item.Result.Warnings) == 0 {
			continue
		}
		if !warned {
			builder.WriteString("## Warnings\n\n")
			warned = true
		}
		for _, warning := range item.Result.Warnings {
			builder.WriteString(fmt.Sprintf("- **%s**: %s\n", item.Input.DrugName, warning))
		}
	}

	return builder.String()
}

// Write renders the report and writes it to a markdown file. When asPDF is
// set, the markdown is additionally converted to a PDF next to it, and the
// PDF path is returned.
func Write(markdownPath string, items []Item, generatedAt time.Time, asPDF bool) (string, error) {
	contents := Render(items, generatedAt)
	if err := os.WriteFile(markdownPath, []byte(contents), 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", markdownPath, err)
	}
	if !asPDF {
		return markdownPath, nil
	}

	pdfPath, err := convertMarkdownToPDF(markdownPath)
	if err != nil {
		return "", fmt.Errorf("convertMarkdownToPDF > %w", err)
	}
	return pdfPath, nil
}
