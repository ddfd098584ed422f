package calculator

import (
	"fmt"
	"strings"

	"github.com/daysupplynational/daysupply/internal/sig"
)

// injectableStrategy derives a day supply from explicit schedule keywords in
// the directions. Biologics check weekly wording first; non-biologics check
// interval frequency from the slow end because depot products are commonly
// written without a schedule keyword.
type injectableStrategy struct {
	biologic bool
}

func (s *injectableStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	var frequency float64
	if in.Enriched != nil {
		frequency = in.Enriched.DailyFrequency
	} else {
		frequency = sig.ParseFrequency(in.Directions)
	}
	standardizedSig := standardized(in, fmt.Sprintf("Inject as directed %s", sig.FrequencyText(frequency)))

	lower := strings.ToLower(in.Directions)
	days := fallbackDaySupply
	if s.biologic {
		switch {
		case strings.Contains(lower, "weekly") && !strings.Contains(lower, "biweekly"):
			days = int(in.Quantity * 7)
		case strings.Contains(lower, "biweekly") || strings.Contains(lower, "every 2 weeks"):
			days = int(in.Quantity * 14)
		case strings.Contains(lower, "monthly"):
			days = int(in.Quantity * 30)
		case frequency > 0:
			days = int(in.Quantity / frequency)
		}
	} else {
		switch {
		case strings.Contains(lower, "monthly") || (frequency > 0 && frequency <= 1.0/30.0):
			days = int(in.Quantity * 30)
		case strings.Contains(lower, "weekly") || (frequency > 0 && frequency <= 1.0/7.0):
			days = int(in.Quantity * 7)
		case frequency > 0:
			days = int(in.Quantity / frequency)
		}
	}

	days = applyOverride(in, days, 0, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      in.Quantity,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}
