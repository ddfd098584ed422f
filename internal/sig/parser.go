// Package sig extracts dosing amounts and daily frequency from free-text
// prescriber directions. It is the rule-based source of truth of last resort
// when no enrichment result is available.
package sig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Unit identifies a dosing unit recognized by ExtractQuantities.
type Unit string

const (
	UnitSprays     Unit = "sprays"
	UnitUnits      Unit = "units"
	UnitMg         Unit = "mg"
	UnitML         Unit = "ml"
	UnitDrops      Unit = "drops"
	UnitPatches    Unit = "patches"
	UnitTablets    Unit = "tablets"
	UnitCapsules   Unit = "capsules"
	UnitTimesDaily Unit = "times_daily"
)

// unitPattern pairs a unit with its numeric-prefix pattern. Order matters
// only for deterministic iteration in tests; each unit is matched
// independently.
type unitPattern struct {
	unit    Unit
	pattern *regexp.Regexp
}

var unitPatterns = []unitPattern{
	{UnitSprays, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:spray|sprays|puff|puffs)`)},
	{UnitUnits, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:unit|units|u\b)`)},
	{UnitMg, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:mg|milligram|milligrams)`)},
	{UnitML, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ml|milliliter|milliliters|cc)`)},
	{UnitDrops, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:drop|drops|gtt)`)},
	{UnitPatches, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:patch|patches)`)},
	{UnitTablets, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:tablet|tablets|tab|tabs)`)},
	{UnitCapsules, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:capsule|capsules|cap|caps)`)},
	{UnitTimesDaily, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:times?\s*(?:per\s*)?(?:day|daily)|x\s*(?:per\s*)?(?:day|daily))`)},
}

var timesPerDayPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*times?\s*(?:per\s*)?(?:day|daily)`)

// ExtractQuantities returns every numeric amount found per unit, preserving
// text order within each unit.
func ExtractQuantities(text string) map[Unit][]float64 {
	lower := strings.ToLower(text)
	extracted := map[Unit][]float64{}
	for _, up := range unitPatterns {
		matches := up.pattern.FindAllStringSubmatch(lower, -1)
		if len(matches) == 0 {
			continue
		}
		amounts := make([]float64, 0, len(matches))
		for _, match := range matches {
			amount, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			amounts = append(amounts, amount)
		}
		if len(amounts) > 0 {
			extracted[up.unit] = amounts
		}
	}
	return extracted
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// ParseFrequency resolves the daily administration frequency from directions
// text. The rule order is load-bearing: interval-style schedules are checked
// before generic daily wording would shadow them, and specific multi-dose
// keywords are checked before "daily"/"once".
func ParseFrequency(text string) float64 {
	lower := strings.ToLower(text)

	// Weekly and slower schedules come first: "once weekly" must not fall
	// through to the "once" rule below.
	switch {
	case containsAny(lower, "every other week", "biweekly", "every 2 weeks"):
		return 1.0 / 14.0
	case containsAny(lower, "weekly", "once a week", "every week"):
		return 1.0 / 7.0
	case containsAny(lower, "monthly", "once a month", "every month"):
		return 1.0 / 30.0
	}

	// PRN usage estimation. The multipliers are deliberately higher than half
	// of the nominal max frequency; downstream day-supply math relies on the
	// safety margin.
	if containsAny(lower, "prn", "as needed") {
		switch {
		case containsAny(lower, "q4h", "every 4 hours"):
			return 4.5
		case containsAny(lower, "q6h", "every 6 hours", "q6-8h"):
			return 6.0
		case containsAny(lower, "q8h", "every 8 hours"):
			return 2.5
		case containsAny(lower, "bid", "b.i.d", "twice"):
			return 1.5
		}
		return 1.0
	}

	// Specific multi-dose keywords before generic daily wording.
	switch {
	case containsAny(lower, "qid", "q.i.d", "four times"):
		return 4.0
	case containsAny(lower, "thrice", "tid", "t.i.d", "three times"):
		return 3.0
	case containsAny(lower, "twice", "bid", "b.i.d"):
		return 2.0
	case containsAny(lower, "once", "daily", "qd", "q.d", "sid"):
		return 1.0
	case containsAny(lower, "q6h", "every 6 hours"):
		return 4.0
	case containsAny(lower, "q8h", "every 8 hours"):
		return 3.0
	case containsAny(lower, "q12h", "every 12 hours"):
		return 2.0
	case containsAny(lower, "q24h", "every 24 hours"):
		return 1.0
	case containsAny(lower, "q4h", "every 4 hours"):
		return 6.0
	}

	if match := timesPerDayPattern.FindStringSubmatch(lower); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			return value
		}
	}

	return 1.0
}

// nostrilPhrases double the per-dose spray amount when present.
var nostrilPhrases = []string{
	"per nostril",
	"each nostril",
	"in each nostril",
	"both nostrils",
	"bilat nares",
}

// MentionsBothNostrils reports whether the directions dose applies to each
// nostril, doubling the per-administration amount.
func MentionsBothNostrils(text string) bool {
	return containsAny(strings.ToLower(text), nostrilPhrases...)
}

// FrequencyText renders a frequency as standardized direction wording.
func FrequencyText(frequency float64) string {
	switch frequency {
	case 1:
		return "once daily"
	case 2:
		return "twice daily"
	case 3:
		return "three times daily"
	case 4:
		return "four times daily"
	case 1.0 / 7.0:
		return "once weekly"
	case 1.0 / 14.0:
		return "every other week"
	case 1.0 / 30.0:
		return "once monthly"
	}
	if frequency < 1 && frequency > 0 {
		return fmt.Sprintf("every %d days", int(1/frequency))
	}
	return fmt.Sprintf("%.1f times daily", frequency)
}
