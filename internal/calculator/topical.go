package calculator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/daysupplynational/daysupply/internal/sig"
)

const (
	defaultGramsPerApplication = 2.0
	defaultTubeGrams           = 30.0
)

var gramQuantityPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:g|gm|gram)`)

// topicalStrategy estimates grams used per day from the fingertip-unit
// dosing table, summed over every body area the directions mention.
type topicalStrategy struct{}

func (s *topicalStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	var frequency float64
	if in.Enriched != nil {
		frequency = in.Enriched.DailyFrequency
	} else {
		frequency = sig.ParseFrequency(in.Directions)
	}
	standardizedSig := standardized(in, fmt.Sprintf("Apply topically %s", sig.FrequencyText(frequency)))

	lower := strings.ToLower(in.Directions)
	var gramsPerDay float64
	for _, entry := range in.Guidelines.FTUDosing {
		if !strings.Contains(lower, strings.ToLower(entry.TreatmentArea)) {
			continue
		}
		switch frequency {
		case 1:
			gramsPerDay += entry.GramsPerDayQD
		case 2:
			gramsPerDay += entry.GramsPerDayBID
		case 3:
			gramsPerDay += entry.GramsPerDayTID
		default:
			gramsPerDay += entry.GramsPerDayQD * frequency
		}
	}
	if gramsPerDay == 0 {
		gramsPerDay = defaultGramsPerApplication * frequency
	}

	quantityGrams := s.quantityGrams(in)

	days := fallbackDaySupply
	if gramsPerDay > 0 {
		days = int(quantityGrams / gramsPerDay)
	}

	days = applyOverride(in, days, 0, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      quantityGrams,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}

// quantityGrams prefers an explicit gram amount embedded in the raw quantity
// string, e.g. "30gm tube".
func (s *topicalStrategy) quantityGrams(in Input) float64 {
	if in.RawQuantity != "" {
		if match := gramQuantityPattern.FindStringSubmatch(strings.ToLower(in.RawQuantity)); match != nil {
			if grams, err := strconv.ParseFloat(match[1], 64); err == nil {
				return grams
			}
		}
	}
	if in.Quantity > 0 {
		return in.Quantity
	}
	return defaultTubeGrams
}
