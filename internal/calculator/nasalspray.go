package calculator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/sig"
)

const (
	defaultSpraysPerPackage = 120
	defaultPackageSizeML    = 15

	// Prescribed quantities above this are treated as a volume in mL rather
	// than a package count.
	packageCountCeiling = 10
)

type nasalSprayStrategy struct {
	families []familyRule
	logger   *slog.Logger
}

func (s *nasalSprayStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	maxSprays := in.Record.Float(catalog.AttrMaxTotalSprays)
	if maxSprays <= 0 {
		maxSprays = defaultSpraysPerPackage
	}

	frequency, spraysPerDose := dosing(in, sig.UnitSprays, 1)
	if in.Enriched == nil && sig.MentionsBothNostrils(in.Directions) {
		spraysPerDose *= 2
	}
	standardizedSig := standardized(in, fmt.Sprintf("Use %d spray(s) %s", int(spraysPerDose), sig.FrequencyText(frequency)))

	// Large quantities are a fill volume in mL; convert to package count.
	correctedQuantity := in.Quantity
	if in.Quantity > packageCountCeiling {
		packageSize := in.Record.Float(catalog.AttrPackageSizeValue)
		if packageSize <= 0 {
			packageSize = defaultPackageSizeML
		}
		correctedQuantity = in.Quantity / packageSize
		warnings = append(warnings, fmt.Sprintf("quantity %.0f interpreted as mL and converted to %.1f packages of %.0f mL", in.Quantity, correctedQuantity, packageSize))
		s.logger.Debug("converted volume quantity to packages",
			"quantityML", in.Quantity,
			"packages", correctedQuantity,
			"packageSizeML", packageSize,
		)
	}

	totalSprays := correctedQuantity * maxSprays
	dailySprays := spraysPerDose * frequency
	scenarios := in.Record.Scenarios()

	days := fallbackDaySupply
	switch {
	case len(scenarios) > 0 && dailySprays > 0:
		if scenarioDays, ok := scenarios[int(dailySprays)]; ok {
			days = scenarioDays
		} else if usage := rederivedSprayUsage(in.Directions); usage > 0 {
			if scenarioDays, ok := scenarios[usage]; ok {
				days = scenarioDays
			} else {
				days = int(totalSprays / float64(usage))
			}
		} else {
			days = int(totalSprays / dailySprays)
		}
	case dailySprays > 0:
		days = int(totalSprays / dailySprays)
	}

	if rule, ok := matchFamily(s.families, in.MatchedName); ok {
		days = s.applyFamily(rule, int(maxSprays))
	}

	days = applyOverride(in, days, 0, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      correctedQuantity,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}

// applyFamily replaces the economics formula outright for products whose
// clinical usage limits dominate package contents.
func (s *nasalSprayStrategy) applyFamily(rule familyRule, packageSprays int) int {
	switch rule.Policy {
	case policyPackageUnits:
		return packageSprays
	case policyBand:
		return boundInt(packageSprays, rule.MinDays, rule.MaxDays)
	case policyEmergency:
		if packageSprays <= 2 {
			return rule.DefaultDays
		}
		return boundInt(packageSprays, rule.MinDays, rule.MaxDays)
	case policySplitBand:
		if packageSprays <= 8 {
			return boundInt(packageSprays, rule.MinDays, rule.MaxDays)
		}
		return boundInt(packageSprays/2, rule.AltMinDays, rule.AltMaxDays)
	}
	s.logger.Warn("unknown nasal spray family policy", "family", rule.Family, "policy", rule.Policy)
	return packageSprays
}

// rederivedSprayUsage corrects the common sig shapes where the nostril
// doubling is implied by wording not caught by the extraction pass.
func rederivedSprayUsage(directions string) int {
	lower := strings.ToLower(directions)

	perNostrilSingle := strings.Contains(lower, "1 spray each nostril") || strings.Contains(lower, "one spray each nostril")
	perNostrilDouble := strings.Contains(lower, "2 spray") || strings.Contains(lower, "two spray")

	switch {
	case containsTID(lower):
		if perNostrilSingle {
			return 6
		}
		if perNostrilDouble {
			return 12
		}
	case containsQID(lower):
		if perNostrilSingle {
			return 8
		}
		if perNostrilDouble {
			return 16
		}
	}
	return 0
}

func containsTID(lower string) bool {
	return strings.Contains(lower, "three times daily") || strings.Contains(lower, "3 times daily") || strings.Contains(lower, "tid")
}

func containsQID(lower string) bool {
	return strings.Contains(lower, "four times daily") || strings.Contains(lower, "4 times daily") || strings.Contains(lower, "qid")
}
