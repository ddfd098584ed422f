package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/enrich"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(nil)
	require.NoError(t, err)
	return registry
}

func strategyFor(t *testing.T, category catalog.Category) Strategy {
	t.Helper()
	strategy, ok := testRegistry(t).Strategy(category)
	require.True(t, ok)
	return strategy
}

func nasalRecord(name string, attrs map[string]string) catalog.Record {
	return catalog.Record{Name: name, Category: catalog.CategoryNasalSpray, Attributes: attrs}
}

func TestNasalSprayStrategy(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryNasalSpray)

	flonase := nasalRecord("Flonase", map[string]string{
		catalog.AttrMaxTotalSprays:   "120",
		catalog.AttrPackageSizeValue: "15",
		catalog.AttrScenarios:        `{"1": 120, "2": 60, "4": 30}`,
	})

	tests := []struct {
		name  string
		input Input

		wantQuantity float64
		wantDays     int
		wantWarnings int
	}{
		{
			name: "scenario table hit",
			input: Input{
				Record:      flonase,
				MatchedName: "Flonase",
				Quantity:    1,
				Directions:  "1 spray each nostril once daily",
			},
			wantQuantity: 1,
			wantDays:     60,
		},
		{
			name: "single nostril uses base dose",
			input: Input{
				Record:      flonase,
				MatchedName: "Flonase",
				Quantity:    1,
				Directions:  "1 spray once daily",
			},
			wantQuantity: 1,
			wantDays:     120,
		},
		{
			name: "tid each nostril rederives six sprays per day",
			input: Input{
				Record:      flonase,
				MatchedName: "Flonase",
				Quantity:    1,
				Directions:  "1 spray each nostril three times daily",
			},
			wantQuantity: 1,
			wantDays:     20,
		},
		{
			name: "volume quantity converted to packages",
			input: Input{
				Record:      flonase,
				MatchedName: "Flonase",
				Quantity:    30,
				Directions:  "1 spray each nostril once daily",
			},
			wantQuantity: 2,
			wantDays:     60,
			wantWarnings: 1,
		},
		{
			name: "emergency family yields a week for a two spray package",
			input: Input{
				Record: nasalRecord("Nayzilam", map[string]string{
					catalog.AttrMaxTotalSprays: "2",
				}),
				MatchedName: "Nayzilam",
				Quantity:    1,
				Directions:  "1 spray as needed for seizure cluster",
			},
			wantQuantity: 1,
			wantDays:     7,
		},
		{
			name: "migraine family band",
			input: Input{
				Record: nasalRecord("Migranal", map[string]string{
					catalog.AttrMaxTotalSprays: "64",
				}),
				MatchedName: "Migranal",
				Quantity:    1,
				Directions:  "1 spray each nostril at onset of migraine",
			},
			wantQuantity: 1,
			wantDays:     64,
		},
		{
			name: "small package product clamped up to the minimum",
			input: Input{
				Record: nasalRecord("Zavzpret", map[string]string{
					catalog.AttrMaxTotalSprays: "6",
				}),
				MatchedName: "Zavzpret",
				Quantity:    1,
				Directions:  "1 spray as needed for migraine",
			},
			wantQuantity: 1,
			wantDays:     MinDaySupply,
			wantWarnings: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Compute(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuantity, got.CorrectedQuantity)
			assert.Equal(t, tt.wantDays, got.DaySupply)
			assert.Len(t, got.Warnings, tt.wantWarnings)
		})
	}
}

func TestNasalSprayStrategy_NostrilDoubling(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryNasalSpray)
	record := nasalRecord("Nasacort", map[string]string{
		catalog.AttrMaxTotalSprays: "120",
	})

	single, err := strategy.Compute(Input{
		Record: record, MatchedName: "Nasacort", Quantity: 1,
		Directions: "2 puffs daily",
	})
	require.NoError(t, err)
	doubled, err := strategy.Compute(Input{
		Record: record, MatchedName: "Nasacort", Quantity: 1,
		Directions: "2 puffs per nostril daily",
	})
	require.NoError(t, err)

	assert.Equal(t, 60, single.DaySupply)
	assert.Equal(t, 30, doubled.DaySupply)
}

func TestInhalerStrategy(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryOralInhaler)

	tests := []struct {
		name  string
		input Input

		wantDays     int
		wantWarnings int
	}{
		{
			name: "economic calculation",
			input: Input{
				Record: catalog.Record{Name: "Symbicort", Category: catalog.CategoryOralInhaler, Attributes: map[string]string{
					catalog.AttrPuffsPerPackage: "120",
					catalog.AttrDiscardDays:     "90",
				}},
				MatchedName: "Symbicort",
				Quantity:    1,
				Directions:  "2 puffs twice daily",
			},
			wantDays: 30,
		},
		{
			name: "discard window caps a long calculation",
			input: Input{
				Record: catalog.Record{Name: "Symbicort", Category: catalog.CategoryOralInhaler, Attributes: map[string]string{
					catalog.AttrPuffsPerPackage: "120",
					catalog.AttrDiscardDays:     "90",
				}},
				MatchedName: "Symbicort",
				Quantity:    3,
				Directions:  "1 puff daily",
			},
			wantDays:     90,
			wantWarnings: 1,
		},
		{
			name: "ellipta forced to one puff once daily",
			input: Input{
				Record: catalog.Record{Name: "Breo Ellipta", Category: catalog.CategoryOralInhaler, Attributes: map[string]string{
					catalog.AttrPuffsPerPackage: "30",
					catalog.AttrDiscardDays:     "42",
				}},
				MatchedName: "Breo Ellipta",
				Quantity:    1,
				Directions:  "2 puffs twice daily",
			},
			wantDays: 30,
		},
		{
			name: "rescue inhaler falls back to the two puff scenario",
			input: Input{
				Record: catalog.Record{Name: "Albuterol HFA", Category: catalog.CategoryOralInhaler, Attributes: map[string]string{
					catalog.AttrPuffsPerPackage: "200",
					catalog.AttrScenarios:       `{"2": 90, "4": 50, "8": 25}`,
				}},
				MatchedName: "Albuterol HFA",
				Quantity:    1,
				Directions:  "2 puffs every 4 hours as needed",
			},
			// PRN q4h estimates 9 puffs per day, no scenario entry, so the
			// 2 puffs/day entry applies.
			wantDays: 90,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Compute(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, got.DaySupply)
			assert.Len(t, got.Warnings, tt.wantWarnings)
		})
	}
}

func TestInsulinStrategy(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryInsulin)
	humalog := catalog.Record{Name: "Humalog KwikPen", Category: catalog.CategoryInsulin, Attributes: map[string]string{
		catalog.AttrTotalUnits:    "300",
		catalog.AttrBeyondUseDays: "28",
	}}

	t.Run("beyond use window caps a long calculation", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Record:      humalog,
			MatchedName: "Humalog KwikPen",
			Quantity:    5,
			Directions:  "15 units tid",
		})
		require.NoError(t, err)
		// 1500 units / 45 per day = 33 days, capped at the 28 day window.
		assert.Equal(t, 28, got.DaySupply)
		assert.Equal(t, 5.0, got.CorrectedQuantity)
		assert.NotEmpty(t, got.Warnings)
	})

	t.Run("missing window falls back to 28 days", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Record: catalog.Record{Name: "Lantus Vial", Category: catalog.CategoryInsulin, Attributes: map[string]string{
				catalog.AttrTotalUnits: "1000",
			}},
			MatchedName: "Lantus Vial",
			Quantity:    2,
			Directions:  "20 units once daily",
		})
		require.NoError(t, err)
		// 2000 units / 20 per day = 100 days, capped at the default window.
		assert.Equal(t, 28, got.DaySupply)
		assert.NotEmpty(t, got.Warnings)
	})

	t.Run("window never raises a short calculation", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Record:      humalog,
			MatchedName: "Humalog KwikPen",
			Quantity:    1,
			Directions:  "30 units once daily",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, got.DaySupply)
	})
}

func TestInjectableStrategy(t *testing.T) {
	biologic := strategyFor(t, catalog.CategoryBiologicInjectable)
	nonbiologic := strategyFor(t, catalog.CategoryNonbiologicInjectable)

	t.Run("biologic weekly", func(t *testing.T) {
		got, err := biologic.Compute(Input{
			MatchedName: "Humira",
			Quantity:    2,
			Directions:  "Inject 40 mg weekly",
		})
		require.NoError(t, err)
		assert.Equal(t, 14, got.DaySupply)
	})

	t.Run("biologic every other week", func(t *testing.T) {
		got, err := biologic.Compute(Input{
			MatchedName: "Humira",
			Quantity:    2,
			Directions:  "Inject 40 mg biweekly",
		})
		require.NoError(t, err)
		assert.Equal(t, 28, got.DaySupply)
	})

	t.Run("nonbiologic monthly by frequency", func(t *testing.T) {
		got, err := nonbiologic.Compute(Input{
			MatchedName: "Depo-Provera",
			Quantity:    1,
			Directions:  "Inject 150 mg once a month",
		})
		require.NoError(t, err)
		assert.Equal(t, 30, got.DaySupply)
	})
}

func TestDiabeticStrategy(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryDiabeticInjectable)

	tests := []struct {
		name     string
		input    Input
		wantDays int
	}{
		{
			name: "weekly glp1 uses expiration window",
			input: Input{
				Record: catalog.Record{Name: "Ozempic", Category: catalog.CategoryDiabeticInjectable, Attributes: map[string]string{
					catalog.AttrExpirationDays: "56",
				}},
				MatchedName: "Ozempic",
				Quantity:    1,
				Directions:  "Inject 0.5 mg once weekly",
			},
			wantDays: 56,
		},
		{
			name: "weekly glp1 without expiration gets at least four weeks",
			input: Input{
				Record: catalog.Record{Name: "Trulicity", Category: catalog.CategoryDiabeticInjectable, Attributes: map[string]string{
					catalog.AttrPackageCount: "4",
				}},
				MatchedName: "Trulicity",
				Quantity:    1,
				Directions:  "Inject 0.75 mg once weekly",
			},
			wantDays: 28,
		},
		{
			name: "combination product default",
			input: Input{
				Record:      catalog.Record{Name: "Soliqua", Category: catalog.CategoryDiabeticInjectable, Attributes: map[string]string{}},
				MatchedName: "Soliqua",
				Quantity:    1,
				Directions:  "Inject 15 units once daily",
			},
			wantDays: 28,
		},
		{
			name: "generic weekly capped by expiration",
			input: Input{
				Record: catalog.Record{Name: "Some Pen", Category: catalog.CategoryDiabeticInjectable, Attributes: map[string]string{
					catalog.AttrExpirationDays: "14",
					catalog.AttrPackageCount:   "5",
				}},
				MatchedName: "Some Pen",
				Quantity:    1,
				Directions:  "Inject once weekly",
			},
			wantDays: 14,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Compute(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, got.DaySupply)
		})
	}
}

func TestEyedropStrategy(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryEyedrop)
	guidelines := catalog.Guidelines{
		DropsPerMLSolution:   20,
		DropsPerMLSuspension: 16,
		EyedropBeyondUse: []catalog.BeyondUseEntry{
			{ProductName: "Xalatan", Days: 42},
		},
	}

	t.Run("solution bottles", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Record:      catalog.Record{Name: "Timoptic", Category: catalog.CategoryEyedrop, Attributes: map[string]string{catalog.AttrForm: "solution"}},
			Guidelines:  guidelines,
			MatchedName: "Timoptic",
			Quantity:    1,
			Directions:  "1 drop in each eye twice daily",
		})
		require.NoError(t, err)
		// 5 mL x 20 drops = 100 drops at 2 per day.
		assert.Equal(t, 50, got.DaySupply)
	})

	t.Run("suspension uses fewer drops per mL", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Record:      catalog.Record{Name: "Pred Forte", Category: catalog.CategoryEyedrop, Attributes: map[string]string{catalog.AttrForm: "suspension"}},
			Guidelines:  guidelines,
			MatchedName: "Pred Forte",
			Quantity:    1,
			Directions:  "1 drop four times daily",
		})
		require.NoError(t, err)
		assert.Equal(t, 20, got.DaySupply)
	})

	t.Run("beyond use window caps the result", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Record:      catalog.Record{Name: "Xalatan", Category: catalog.CategoryEyedrop, Attributes: map[string]string{catalog.AttrForm: "solution"}},
			Guidelines:  guidelines,
			MatchedName: "Xalatan",
			Quantity:    1,
			Directions:  "1 drop once daily",
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got.DaySupply)
		assert.NotEmpty(t, got.Warnings)
	})
}

func TestTopicalStrategy(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryTopical)
	guidelines := catalog.Guidelines{
		FTUDosing: []catalog.FTUEntry{
			{TreatmentArea: "face and neck", GramsPerDayQD: 1.25, GramsPerDayBID: 2.5, GramsPerDayTID: 3.75},
			{TreatmentArea: "leg", GramsPerDayQD: 3, GramsPerDayBID: 6, GramsPerDayTID: 9},
		},
	}

	t.Run("area table by frequency column", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Guidelines:  guidelines,
			MatchedName: "Kenalog",
			Quantity:    60,
			Directions:  "Apply to leg twice daily",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, got.DaySupply)
	})

	t.Run("gram amount parsed from raw quantity", func(t *testing.T) {
		got, err := strategy.Compute(Input{
			Guidelines:  guidelines,
			MatchedName: "Kenalog",
			Quantity:    0,
			RawQuantity: "30gm tube",
			Directions:  "Apply to affected area twice daily",
		})
		require.NoError(t, err)
		assert.Equal(t, 30.0, got.CorrectedQuantity)
		// No recognized area: 2 g per application, twice daily.
		assert.Equal(t, MinDaySupply, got.DaySupply)
	})
}

func TestApplyOverrideThenReclamp(t *testing.T) {
	strategy := strategyFor(t, catalog.CategoryInsulin)
	ninety := 90

	got, err := strategy.Compute(Input{
		Record: catalog.Record{Name: "Humalog KwikPen", Category: catalog.CategoryInsulin, Attributes: map[string]string{
			catalog.AttrTotalUnits:    "300",
			catalog.AttrBeyondUseDays: "28",
		}},
		MatchedName: "Humalog KwikPen",
		Quantity:    1,
		Directions:  "10 units once daily",
		Enriched: &enrich.ParsedDirections{
			DailyFrequency:         1,
			DosePerAdministration:  10,
			StandardizedDirections: "Inject 10 units once daily",
			Confidence:             0.95,
			SuggestedDaySupply:     &ninety,
		},
	})
	require.NoError(t, err)
	// The suggestion replaces the economics formula but cannot escape the
	// beyond-use window.
	assert.Equal(t, 28, got.DaySupply)
	assert.Equal(t, "Inject 10 units once daily", got.StandardizedDirections)
	assert.NotEmpty(t, got.Warnings)
}
