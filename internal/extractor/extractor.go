// Package extractor ties matching, directions parsing and day-supply
// calculation together into one request pipeline.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daysupplynational/daysupply/internal/calculator"
	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/enrich"
	"github.com/daysupplynational/daysupply/internal/matcher"
)

// UnsupportedDirectionsMarker is the fixed standardized-directions value for
// drugs that cannot be matched to the catalog.
const UnsupportedDirectionsMarker = "MEDICATION NOT IN PAAS DATABASE"

// hoisted from the matched-name retry heuristic: label names carrying these
// words routinely fail exact matching even when the product is on file.
var qualifierWords = []string{
	"ml",
	"gm",
	"bottle",
	"container",
	"children",
	"nasal",
	"spray",
}

// retryConfidenceCeiling triggers the enrichment-assisted alternative-name
// search even when a candidate was found.
const retryConfidenceCeiling = 0.9

// PrescriptionInput is one extraction request.
type PrescriptionInput struct {
	DrugName   string   `json:"drugName"`
	Quantity   Quantity `json:"quantity"`
	Directions string   `json:"directions"`
}

// ExtractedData is the normalized prescription record returned per request.
type ExtractedData struct {
	OriginalName           string            `json:"originalName"`
	MatchedName            *string           `json:"matchedName"`
	Category               catalog.Category  `json:"category"`
	CorrectedQuantity      float64           `json:"correctedQuantity"`
	DaySupply              int               `json:"daySupply"`
	StandardizedDirections string            `json:"standardizedDirections"`
	Confidence             float64           `json:"confidence"`
	Warnings               []string          `json:"warnings"`
	PackagingAttributes    map[string]string `json:"packagingAttributes"`
}

// Extractor is safe for concurrent use: the catalog and registry are
// read-only after construction.
type Extractor struct {
	catalog  *catalog.Catalog
	matcher  *matcher.Matcher
	registry *calculator.Registry
	enricher enrich.Client
	logger   *slog.Logger
}

// New builds an extractor. enricher may be nil to run rule-based only.
func New(cat *catalog.Catalog, registry *calculator.Registry, enricher enrich.Client, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		catalog:  cat,
		matcher:  matcher.New(cat),
		registry: registry,
		enricher: enricher,
		logger:   logger,
	}
}

// Extract never returns an error: every failure path degrades into a
// well-formed result.
func (e *Extractor) Extract(ctx context.Context, input PrescriptionInput) ExtractedData {
	matchedName, confidence := e.matcher.Match(input.DrugName)

	if e.enricher != nil && e.shouldRetryMatch(input.DrugName, matchedName, confidence) {
		matchedName, confidence = e.retryMatch(ctx, input.DrugName, matchedName, confidence)
	}

	if matchedName == "" || confidence < matcher.AcceptThreshold {
		e.logger.Warn("drug not matched",
			"drugName", input.DrugName,
			"confidence", confidence,
		)
		return e.unsupportedResult(input)
	}

	record, _ := e.catalog.Lookup(matchedName)

	var enriched *enrich.ParsedDirections
	if e.enricher != nil {
		enriched = e.tryEnrich(ctx, input, record)
	}

	result, err := e.compute(record, matchedName, input, enriched)
	if err != nil {
		e.logger.Error("calculator fault, degrading to defaults",
			"drugName", input.DrugName,
			"category", record.Category,
			"error", err,
		)
		result = degradedResult(input)
	}

	return ExtractedData{
		OriginalName:           input.DrugName,
		MatchedName:            &matchedName,
		Category:               record.Category,
		CorrectedQuantity:      result.CorrectedQuantity,
		DaySupply:              result.DaySupply,
		StandardizedDirections: result.StandardizedDirections,
		Confidence:             confidence,
		Warnings:               result.Warnings,
		PackagingAttributes:    record.Attributes,
	}
}

func (e *Extractor) shouldRetryMatch(drugName, matchedName string, confidence float64) bool {
	if matchedName == "" || confidence < retryConfidenceCeiling {
		return true
	}
	lower := strings.ToLower(drugName)
	for _, word := range qualifierWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// retryMatch asks the enrichment service for alternative spellings and keeps
// the first candidate that matches better than the original.
func (e *Extractor) retryMatch(ctx context.Context, drugName, matchedName string, confidence float64) (string, float64) {
	response, err := e.enricher.SuggestAlternativeNames(ctx, enrich.SuggestNamesRequest{DrugName: drugName})
	if err != nil {
		e.logger.Debug("alternative name suggestion failed", "drugName", drugName, "error", err)
		return matchedName, confidence
	}
	for _, alternative := range response.Names {
		altName, altConfidence := e.matcher.Match(alternative)
		if altName != "" && altConfidence > confidence {
			e.logger.Info("matched through alternative name",
				"drugName", drugName,
				"alternative", alternative,
				"matched", altName,
				"confidence", altConfidence,
			)
			return altName, altConfidence
		}
	}
	return matchedName, confidence
}

func (e *Extractor) tryEnrich(ctx context.Context, input PrescriptionInput, record catalog.Record) *enrich.ParsedDirections {
	response, err := e.enricher.ParseDirections(ctx, enrich.ParseDirectionsRequest{
		DrugName:   input.DrugName,
		Directions: input.Directions,
		Quantity:   input.Quantity.Value,
		Category:   string(record.Category),
	})
	if err != nil {
		e.logger.Debug("directions enrichment unavailable, using rule-based parsing",
			"drugName", input.DrugName,
			"error", err,
		)
		return nil
	}
	return &response.Parsed
}

// compute dispatches to the category strategy, converting panics into errors
// so a formula fault can never escape the request.
func (e *Extractor) compute(record catalog.Record, matchedName string, input PrescriptionInput, enriched *enrich.ParsedDirections) (result calculator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("calculator panic: %v", r)
		}
	}()

	strategy, ok := e.registry.Strategy(record.Category)
	if !ok {
		return calculator.Result{}, fmt.Errorf("no strategy for category %q", record.Category)
	}
	return strategy.Compute(calculator.Input{
		Record:      record,
		Guidelines:  e.catalog.Guidelines(),
		MatchedName: matchedName,
		Quantity:    input.Quantity.Value,
		RawQuantity: input.Quantity.Raw,
		Directions:  input.Directions,
		Enriched:    enriched,
	})
}

func (e *Extractor) unsupportedResult(input PrescriptionInput) ExtractedData {
	return ExtractedData{
		OriginalName:           input.DrugName,
		MatchedName:            nil,
		Category:               catalog.CategoryUnknown,
		CorrectedQuantity:      0,
		DaySupply:              0,
		StandardizedDirections: UnsupportedDirectionsMarker,
		Confidence:             0,
		Warnings: []string{
			fmt.Sprintf("medication %q is not in the PAAS National database and cannot be processed", input.DrugName),
		},
		PackagingAttributes: map[string]string{},
	}
}

// DegradedCalculationWarning marks results that fell back to the default
// day supply after a calculation fault.
const DegradedCalculationWarning = "calculation failed, defaulted to a 30 day supply"

func degradedResult(input PrescriptionInput) calculator.Result {
	quantity := input.Quantity.Value
	if quantity <= 0 {
		quantity = 1
	}
	return calculator.Result{
		CorrectedQuantity:      quantity,
		DaySupply:              30,
		StandardizedDirections: input.Directions,
		Warnings:               []string{DegradedCalculationWarning},
	}
}
