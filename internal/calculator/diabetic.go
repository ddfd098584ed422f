package calculator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/sig"
)

type diabeticStrategy struct {
	families []familyRule
	logger   *slog.Logger
}

func (s *diabeticStrategy) Compute(in Input) (Result, error) {
	var warnings []string

	var frequency float64
	if in.Enriched != nil {
		frequency = in.Enriched.DailyFrequency
	} else {
		frequency = sig.ParseFrequency(in.Directions)
	}
	standardizedSig := standardized(in, fmt.Sprintf("Inject as directed %s", sig.FrequencyText(frequency)))

	expirationDays := in.Record.Int(catalog.AttrExpirationDays)
	packageCount := in.Record.Int(catalog.AttrPackageCount)
	if packageCount <= 0 {
		packageCount = 1
	}

	var days int
	if rule, ok := matchFamily(s.families, in.MatchedName); ok {
		days = s.applyFamily(rule, in.Quantity, packageCount, expirationDays)
	} else {
		days = genericDiabeticDays(in.Quantity, packageCount, frequency, expirationDays, in.Directions)
	}

	days = applyOverride(in, days, expirationDays, &warnings)
	days = clampDays(days, &warnings)

	return Result{
		CorrectedQuantity:      in.Quantity,
		DaySupply:              days,
		StandardizedDirections: standardizedSig,
		Warnings:               warnings,
	}, nil
}

// applyFamily prefers the product's expiration-after-opening window; the
// fallbacks differ per family when no window is known.
func (s *diabeticStrategy) applyFamily(rule familyRule, quantity float64, packageCount, expirationDays int) int {
	if expirationDays > 0 {
		return expirationDays
	}
	switch rule.Policy {
	case policyExpirationOrWeekly:
		days := int(quantity * float64(packageCount) * 7)
		if days < rule.MinDays {
			days = rule.MinDays
		}
		return days
	case policyExpirationOrDaily:
		return int(quantity * float64(packageCount) * float64(rule.DefaultDays))
	case policyExpirationOrDefault:
		return rule.DefaultDays
	}
	s.logger.Warn("unknown diabetic injectable family policy", "family", rule.Family, "policy", rule.Policy)
	return fallbackDaySupply
}

func genericDiabeticDays(quantity float64, packageCount int, frequency float64, expirationDays int, directions string) int {
	if strings.Contains(strings.ToLower(directions), "weekly") || (frequency > 0 && frequency <= 1.0/7.0) {
		days := int(quantity * float64(packageCount) * 7)
		if expirationDays > 0 && days > expirationDays {
			return expirationDays
		}
		return days
	}
	if expirationDays > 0 {
		return expirationDays
	}
	if frequency > 0 {
		return int(quantity * float64(packageCount) / frequency)
	}
	return fallbackDaySupply
}
