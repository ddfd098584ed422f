package calculator

import (
	"fmt"
	"strings"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/sig"
)

const (
	defaultDropsPerML = 20
	defaultBottleML   = 5

	// Prescribed quantities at or below this are bottle counts; larger
	// values are already milliliters.
	bottleCountCeiling = 10
)

type eyedropStrategy struct{}

func (s *eyedropStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	dropsPerML := in.Guidelines.DropsPerMLSolution
	if s.isSuspension(in) {
		dropsPerML = in.Guidelines.DropsPerMLSuspension
	}
	if dropsPerML <= 0 {
		dropsPerML = defaultDropsPerML
	}

	frequency, dropsPerDose := dosing(in, sig.UnitDrops, 1)
	standardizedSig := standardized(in, fmt.Sprintf("Instill %d drop(s) %s", int(dropsPerDose), sig.FrequencyText(frequency)))

	totalML := in.Quantity
	if in.Quantity <= bottleCountCeiling {
		totalML = in.Quantity * defaultBottleML
	}

	totalDrops := totalML * dropsPerML
	dailyDrops := dropsPerDose * frequency
	days := fallbackDaySupply
	if dailyDrops > 0 {
		days = int(totalDrops / dailyDrops)
	}

	beyondUseDays := s.beyondUseDays(in)
	days = applyOverride(in, days, beyondUseDays, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      in.Quantity,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}

func (s *eyedropStrategy) isSuspension(in Input) bool {
	if form := strings.ToLower(in.Record.Attributes[catalog.AttrForm]); form != "" {
		return strings.Contains(form, "suspension")
	}
	return strings.Contains(strings.ToLower(in.MatchedName), "suspension")
}

// beyondUseDays looks up a product-specific beyond-use window by matching the
// first word of the product name against the guideline table.
func (s *eyedropStrategy) beyondUseDays(in Input) int {
	fields := strings.Fields(strings.ToLower(in.MatchedName))
	if len(fields) == 0 {
		return 0
	}
	firstWord := fields[0]
	for _, entry := range in.Guidelines.EyedropBeyondUse {
		if strings.Contains(strings.ToLower(entry.ProductName), firstWord) {
			return entry.Days
		}
	}
	return 0
}
