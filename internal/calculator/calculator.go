// Package calculator holds one day-supply strategy per medication category.
// Every strategy consumes the same Input and produces a Result whose day
// supply is clamped into [MinDaySupply, MaxDaySupply].
package calculator

import (
	"fmt"
	"log/slog"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/enrich"
	"github.com/daysupplynational/daysupply/internal/sig"
)

const (
	MinDaySupply = 7
	MaxDaySupply = 365

	// fallbackDaySupply is used when a formula has no usable denominator.
	fallbackDaySupply = 30
)

// Input carries everything a strategy needs for one prescription.
// Enriched is nil when model-assisted parsing is disabled or failed.
type Input struct {
	Record      catalog.Record
	Guidelines  catalog.Guidelines
	MatchedName string
	Quantity    float64
	RawQuantity string
	Directions  string
	Enriched    *enrich.ParsedDirections
}

type Result struct {
	CorrectedQuantity      float64
	DaySupply              int
	StandardizedDirections string
	Warnings               []string
}

// Strategy computes a day supply for one medication category.
type Strategy interface {
	Compute(in Input) (Result, error)
}

// Registry maps categories to strategies. Built once, read-only afterwards.
type Registry struct {
	strategies map[catalog.Category]Strategy
	logger     *slog.Logger
}

func NewRegistry(logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	families, err := loadFamilyTable()
	if err != nil {
		return nil, fmt.Errorf("loadFamilyTable > %w", err)
	}

	return &Registry{
		logger: logger,
		strategies: map[catalog.Category]Strategy{
			catalog.CategoryNasalSpray:            &nasalSprayStrategy{families: families.NasalSpray, logger: logger},
			catalog.CategoryOralInhaler:           &inhalerStrategy{families: families.OralInhaler, logger: logger},
			catalog.CategoryInsulin:               &insulinStrategy{logger: logger},
			catalog.CategoryBiologicInjectable:    &injectableStrategy{biologic: true},
			catalog.CategoryNonbiologicInjectable: &injectableStrategy{biologic: false},
			catalog.CategoryDiabeticInjectable:    &diabeticStrategy{families: families.DiabeticInjectable, logger: logger},
			catalog.CategoryEyedrop:               &eyedropStrategy{},
			catalog.CategoryTopical:               &topicalStrategy{},
		},
	}, nil
}

// Strategy returns the strategy registered for the category, if any.
func (r *Registry) Strategy(category catalog.Category) (Strategy, bool) {
	s, ok := r.strategies[category]
	return s, ok
}

// clampDays bounds days into [MinDaySupply, MaxDaySupply], appending a
// warning when the bound actually changed the value.
func clampDays(days int, warnings *[]string) int {
	if days < MinDaySupply {
		*warnings = append(*warnings, fmt.Sprintf("day supply raised from %d to the %d day minimum", days, MinDaySupply))
		return MinDaySupply
	}
	if days > MaxDaySupply {
		*warnings = append(*warnings, fmt.Sprintf("day supply reduced from %d to the %d day maximum", days, MaxDaySupply))
		return MaxDaySupply
	}
	return days
}

// applyOverride replaces computed with the enrichment-suggested day supply
// when one is present, then reapplies the hard ceiling so the suggestion can
// never escape a regulatory window. ceiling <= 0 means no ceiling applies.
func applyOverride(in Input, computed int, ceiling int, warnings *[]string) int {
	days := computed
	if in.Enriched != nil && in.Enriched.SuggestedDaySupply != nil {
		days = *in.Enriched.SuggestedDaySupply
	}
	if ceiling > 0 && days > ceiling {
		*warnings = append(*warnings, fmt.Sprintf("day supply capped at the %d day product limit", ceiling))
		days = ceiling
	}
	return days
}

// dosing resolves frequency and per-administration dose, preferring an
// enrichment result over the rule-based parser.
func dosing(in Input, unit sig.Unit, defaultDose float64) (frequency, dose float64) {
	if in.Enriched != nil {
		return in.Enriched.DailyFrequency, in.Enriched.DosePerAdministration
	}
	frequency = sig.ParseFrequency(in.Directions)
	dose = defaultDose
	if amounts, ok := sig.ExtractQuantities(in.Directions)[unit]; ok {
		dose = amounts[0]
	}
	return frequency, dose
}

// standardized returns the enrichment wording when available, else fallback.
func standardized(in Input, fallback string) string {
	if in.Enriched != nil && in.Enriched.StandardizedDirections != "" {
		return in.Enriched.StandardizedDirections
	}
	return fallback
}
