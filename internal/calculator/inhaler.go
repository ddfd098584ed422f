package calculator

import (
	"fmt"
	"log/slog"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/sig"
)

const (
	defaultPuffsPerPackage = 200
	defaultPuffsPerDose    = 2
)

type inhalerStrategy struct {
	families []familyRule
	logger   *slog.Logger
}

func (s *inhalerStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	puffsPerPackage := in.Record.Float(catalog.AttrPuffsPerPackage)
	if puffsPerPackage <= 0 {
		puffsPerPackage = defaultPuffsPerPackage
	}
	discardDays := in.Record.Int(catalog.AttrDiscardDays)

	frequency, puffsPerDose := dosing(in, sig.UnitSprays, defaultPuffsPerDose)

	rule, hasFamily := matchFamily(s.families, in.MatchedName)
	if hasFamily && in.Enriched == nil {
		switch rule.Policy {
		case policyOnceDailyDevice:
			puffsPerDose = 1
			if frequency > 1 {
				frequency = 1
			}
		case policyCappedDose:
			if puffsPerDose > 2 {
				puffsPerDose = 2
			}
			if frequency > 2 {
				frequency = 2
			}
		}
	}
	standardizedSig := standardized(in, fmt.Sprintf("Inhale %d puff(s) %s", int(puffsPerDose), sig.FrequencyText(frequency)))

	totalPuffs := in.Quantity * puffsPerPackage
	dailyPuffs := puffsPerDose * frequency
	scenarios := in.Record.Scenarios()

	days := fallbackDaySupply
	if dailyPuffs > 0 {
		if scenarioDays, ok := scenarios[int(dailyPuffs)]; ok {
			days = scenarioDays
		} else {
			days = int(totalPuffs / dailyPuffs)
		}
	}

	if hasFamily {
		switch rule.Policy {
		case policyOnceDailyDevice:
			limit := discardDays
			if limit <= 0 {
				limit = rule.DefaultDays
			}
			if int(totalPuffs) < limit {
				days = int(totalPuffs)
			} else {
				days = limit
			}
		case policyRescue:
			days = s.rescueDays(scenarios, totalPuffs, dailyPuffs)
		}
	}

	days = applyOverride(in, days, discardDays, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      in.Quantity,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}

// rescueDays keys the published scenario table by the actually prescribed
// usage, then the common 2 puffs/day entry, then a conservative estimate of
// at least 4 puffs/day.
func (s *inhalerStrategy) rescueDays(scenarios map[int]int, totalPuffs, dailyPuffs float64) int {
	if scenarioDays, ok := scenarios[int(dailyPuffs)]; ok {
		return scenarioDays
	}
	if scenarioDays, ok := scenarios[2]; ok {
		s.logger.Debug("rescue inhaler fell back to the 2 puffs/day scenario", "dailyPuffs", dailyPuffs)
		return scenarioDays
	}
	estimated := dailyPuffs
	if estimated < 4 {
		estimated = 4
	}
	return int(totalPuffs / estimated)
}
