// Package catalog holds the read-only drug reference catalog. The catalog is
// built once at startup from embedded tabular sources and is safe to share
// across concurrent requests without locking.
package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Category tags a drug record with the medication category that selects its
// day-supply formula.
type Category string

const (
	CategoryNasalSpray             Category = "nasal_spray"
	CategoryOralInhaler            Category = "oral_inhaler"
	CategoryInsulin                Category = "insulin"
	CategoryBiologicInjectable     Category = "biologic_injectable"
	CategoryNonbiologicInjectable  Category = "nonbiologic_injectable"
	CategoryDiabeticInjectable     Category = "diabetic_injectable"
	CategoryEyedrop                Category = "eyedrop"
	CategoryTopical                Category = "topical"
	CategoryUnknown                Category = "unknown"
)

// Attribute keys shared with the tabular source schema.
const (
	AttrMaxTotalSprays      = "Max_Total_Sprays"
	AttrPackageSizeValue    = "Package_Size_Value"
	AttrPackageSizeUnit     = "Package_Size_Unit"
	AttrScenarios           = "Example_Days_Supply_Scenarios"
	AttrPuffsPerPackage     = "Retail_Puffs_per_Package"
	AttrDiscardDays         = "Discard_After_Opening_Days"
	AttrUnitsPerML          = "Units_per_mL"
	AttrTotalUnits          = "Total_Units_per_Package"
	AttrBeyondUseDays       = "Beyond_Use_Date_Days"
	AttrExpirationDays      = "Expiration_After_Opening_Days"
	AttrPackageCount        = "Package_Count"
	AttrDosageForm          = "Dosage_Form"
	AttrStrengthValue       = "Strength_Value"
	AttrStrengthUnit        = "Strength_Unit"
	AttrClass               = "Class"
	AttrForm                = "Form"
	AttrBottleSizeML        = "Bottle_Size_mL"
	AttrActiveIngredient    = "Active_Ingredient"
	AttrGenericName         = "Generic_Name"
	AttrProperName          = "Proper_Name"
	AttrAnalogName          = "Analog_Name"
)

// Record is a single catalog entry. Records are created during Load and never
// mutated afterwards.
type Record struct {
	Name       string
	Category   Category
	Attributes map[string]string
}

// Float returns a numeric attribute, or 0 when absent or unparsable.
func (r Record) Float(key string) float64 {
	raw, ok := r.Attributes[key]
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// Int returns an integer attribute, or 0 when absent or unparsable.
func (r Record) Int(key string) int {
	return int(r.Float(key))
}

// Scenarios parses the embedded usage→day-supply lookup table, keyed by the
// integer count of daily administrations. Returns an empty map when the cell
// is absent or malformed.
func (r Record) Scenarios() map[int]int {
	raw, ok := r.Attributes[AttrScenarios]
	scenarios := map[int]int{}
	if !ok || strings.TrimSpace(raw) == "" {
		return scenarios
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(strings.ReplaceAll(raw, "'", `"`)), &decoded); err != nil {
		return scenarios
	}
	for key, days := range decoded {
		usage, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		scenarios[usage] = days
	}
	return scenarios
}

// Catalog maps normalized drug names (brands, generics, known aliases) to
// records. Iteration over Names is deterministic in load order so matching
// ties resolve the same way on every call.
type Catalog struct {
	records    map[string]Record
	names      []string
	guidelines Guidelines
}

// Normalize lowercases and trims a free-text drug name the same way catalog
// keys are normalized.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the record registered under a name, normalizing first.
func (c *Catalog) Lookup(name string) (Record, bool) {
	record, ok := c.records[Normalize(name)]
	return record, ok
}

// Names returns all registered names in load order. The returned slice must
// not be modified.
func (c *Catalog) Names() []string {
	return c.names
}

// Len returns the number of registered names, aliases included.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Guidelines returns the category-independent dosing guideline tables.
func (c *Catalog) Guidelines() Guidelines {
	return c.guidelines
}

func (c *Catalog) add(name string, record Record) {
	key := Normalize(name)
	if key == "" {
		return
	}
	if _, exists := c.records[key]; exists {
		return
	}
	c.records[key] = record
	c.names = append(c.names, key)
}

// Guidelines holds the eyedrop and topical dosing tables that apply across
// products rather than to a single record.
type Guidelines struct {
	// DropsPerMLSolution and DropsPerMLSuspension are the minimum drops per
	// milliliter used for eyedrop day-supply math.
	DropsPerMLSolution   float64
	DropsPerMLSuspension float64
	// EyedropBeyondUse lists products with a hard beyond-use window.
	EyedropBeyondUse []BeyondUseEntry
	// FTUDosing is the fingertip-unit table for topical grams-per-day.
	FTUDosing []FTUEntry
}

// BeyondUseEntry is one row of the eyedrop beyond-use table.
type BeyondUseEntry struct {
	ProductName string
	Days        int
}

// FTUEntry is one row of the fingertip-unit dosing guide.
type FTUEntry struct {
	TreatmentArea  string
	GramsPerDayQD  float64
	GramsPerDayBID float64
	GramsPerDayTID float64
}
