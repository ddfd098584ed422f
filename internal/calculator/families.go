package calculator

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// familyPolicy selects how a medication family overrides the package
// economics formula.
type familyPolicy string

const (
	// policyPackageUnits: day supply equals the package spray count, for
	// products dosed once per day per spray.
	policyPackageUnits familyPolicy = "package_units"
	// policyBand: day supply is the package spray count bounded into
	// [min_days, max_days].
	policyBand familyPolicy = "band"
	// policyEmergency: single-episode products yield default_days; larger
	// packages fall back to a band.
	policyEmergency familyPolicy = "emergency"
	// policySplitBand: small packages use [min_days, max_days] on the spray
	// count, larger ones use [alt_min_days, alt_max_days] on half of it.
	policySplitBand familyPolicy = "split_band"

	// policyOnceDailyDevice: force one dose once daily, cap by discard days.
	policyOnceDailyDevice familyPolicy = "once_daily_device"
	// policyCappedDose: dry powder devices limited to 2 doses of at most 2.
	policyCappedDose familyPolicy = "capped_dose"
	// policyRescue: rescue inhalers re-derive the scenario key from actual
	// prescribed usage with conservative fallbacks.
	policyRescue familyPolicy = "rescue"

	// policyExpirationOrWeekly / Daily / Default: diabetic injectable
	// families preferring the expiration window, with a family fallback.
	policyExpirationOrWeekly  familyPolicy = "expiration_or_weekly"
	policyExpirationOrDaily   familyPolicy = "expiration_or_daily"
	policyExpirationOrDefault familyPolicy = "expiration_or_default"
)

// familyRule is one row of the declarative medication-family table.
type familyRule struct {
	Family      string       `yaml:"family"`
	Keywords    []string     `yaml:"keywords"`
	Policy      familyPolicy `yaml:"policy"`
	MinDays     int          `yaml:"min_days"`
	MaxDays     int          `yaml:"max_days"`
	AltMinDays  int          `yaml:"alt_min_days"`
	AltMaxDays  int          `yaml:"alt_max_days"`
	DefaultDays int          `yaml:"default_days"`
}

type familyTable struct {
	NasalSpray         []familyRule `yaml:"nasal_spray"`
	OralInhaler        []familyRule `yaml:"oral_inhaler"`
	DiabeticInjectable []familyRule `yaml:"diabetic_injectable"`
}

//go:embed families.yaml
var familiesYAML []byte

func loadFamilyTable() (familyTable, error) {
	var table familyTable
	if err := yaml.Unmarshal(familiesYAML, &table); err != nil {
		return familyTable{}, fmt.Errorf("yaml.Unmarshal > %w", err)
	}
	for _, rules := range [][]familyRule{table.NasalSpray, table.OralInhaler, table.DiabeticInjectable} {
		for _, rule := range rules {
			if rule.Family == "" || len(rule.Keywords) == 0 || rule.Policy == "" {
				return familyTable{}, fmt.Errorf("incomplete family rule: %+v", rule)
			}
		}
	}
	return table, nil
}

// matchFamily returns the first rule whose keyword appears in the drug name.
func matchFamily(rules []familyRule, drugName string) (familyRule, bool) {
	lower := strings.ToLower(drugName)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule, true
			}
		}
	}
	return familyRule{}, false
}

func boundInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
