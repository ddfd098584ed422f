// Package enrich defines the model-assisted directions interpretation
// contract. Implementations are best-effort: callers must tolerate errors and
// fall back to rule-based parsing.
package enrich

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/enrich/mock_client.go -package=mock_enrich

// Client interface defines the methods for model-assisted enrichment operations
type Client interface {
	ParseDirections(ctx context.Context, params ParseDirectionsRequest) (ParseDirectionsResponse, error)
	SuggestAlternativeNames(ctx context.Context, params SuggestNamesRequest) (SuggestNamesResponse, error)
}

// ParseDirectionsRequest holds the prescription fields submitted for
// interpretation.
type ParseDirectionsRequest struct {
	DrugName    string  `json:"drug_name"`
	Directions  string  `json:"directions"`
	Quantity    float64 `json:"quantity"`
	Category    string  `json:"category,omitempty"`
	PackageSize string  `json:"package_size,omitempty"`
}

// ParsedDirections is the structured interpretation of free-text directions.
// SuggestedDaySupply is nil when the model declined to propose one.
type ParsedDirections struct {
	DailyFrequency         float64 `json:"daily_frequency"`
	DosePerAdministration  float64 `json:"dose_per_administration"`
	Route                  string  `json:"route"`
	IsPRN                  bool    `json:"is_prn"`
	StandardizedDirections string  `json:"standardized_directions"`
	Confidence             float64 `json:"confidence"`
	SuggestedDaySupply     *int    `json:"suggested_day_supply,omitempty"`
	CalculationNotes       string  `json:"calculation_notes,omitempty"`
}

type ParseDirectionsResponse struct {
	Parsed ParsedDirections
}

// SuggestNamesRequest asks for alternative spellings or brand/generic
// equivalents of a drug name that failed catalog matching.
type SuggestNamesRequest struct {
	DrugName string `json:"drug_name"`
}

type SuggestNamesResponse struct {
	Names []string `json:"names"`
}

const (
	// DefaultMaxRetryAttempts bounds the adapter to a single retry after the
	// initial call.
	DefaultMaxRetryAttempts = 1

	// MinUsableConfidence is the floor below which a parse result is treated
	// as no result at all.
	MinUsableConfidence = 0.5
)
