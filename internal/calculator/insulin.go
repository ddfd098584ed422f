package calculator

import (
	"fmt"
	"log/slog"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/sig"
)

const (
	defaultUnitsPerDose    = 10
	defaultUnitsPerPackage = 500
	defaultBeyondUseDays   = 28
)

type insulinStrategy struct {
	logger *slog.Logger
}

func (s *insulinStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	totalUnits := in.Record.Float(catalog.AttrTotalUnits)
	if totalUnits <= 0 {
		totalUnits = defaultUnitsPerPackage
	}
	beyondUseDays := in.Record.Int(catalog.AttrBeyondUseDays)
	if beyondUseDays <= 0 {
		beyondUseDays = defaultBeyondUseDays
	}

	frequency, unitsPerDose := dosing(in, sig.UnitUnits, defaultUnitsPerDose)
	standardizedSig := standardized(in, fmt.Sprintf("Inject %d units %s", int(unitsPerDose), sig.FrequencyText(frequency)))

	totalAvailable := in.Quantity * totalUnits
	days := fallbackDaySupply
	if frequency > 0 && unitsPerDose > 0 {
		days = int(totalAvailable / (unitsPerDose * frequency))
	}

	// The beyond-use window only lowers the result, it never raises a short
	// calculation up to the window.
	if beyondUseDays > 0 && days > beyondUseDays {
		s.logger.Debug("insulin day supply limited by beyond use date",
			"calculated", days,
			"beyondUseDays", beyondUseDays,
		)
	}
	days = applyOverride(in, days, beyondUseDays, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      in.Quantity,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}
