package extractor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/daysupplynational/daysupply/internal/calculator"
	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/enrich"
	mock_enrich "github.com/daysupplynational/daysupply/internal/mocks/enrich"
)

func newTestExtractor(t *testing.T, enricher enrich.Client) *Extractor {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	registry, err := calculator.NewRegistry(nil)
	require.NoError(t, err)
	return New(cat, registry, enricher, nil)
}

func TestExtractor_Extract(t *testing.T) {
	e := newTestExtractor(t, nil)
	ctx := context.Background()

	t.Run("insulin scenario", func(t *testing.T) {
		got := e.Extract(ctx, PrescriptionInput{
			DrugName:   "Humalog",
			Quantity:   NewQuantity(5),
			Directions: "15 units tid",
		})

		require.NotNil(t, got.MatchedName)
		assert.Equal(t, "humalog", *got.MatchedName)
		assert.Equal(t, catalog.CategoryInsulin, got.Category)
		assert.Equal(t, 1.0, got.Confidence)
		assert.Equal(t, 5.0, got.CorrectedQuantity)
		// 5 pens x 300 units / 45 units per day = 33 days, capped by the
		// 28 day beyond-use window.
		assert.Equal(t, 28, got.DaySupply)
		assert.GreaterOrEqual(t, got.DaySupply, 7)
		assert.LessOrEqual(t, got.DaySupply, 365)
	})

	t.Run("unmatched drug", func(t *testing.T) {
		got := e.Extract(ctx, PrescriptionInput{
			DrugName:   "XYZ-Not-A-Drug",
			Quantity:   NewQuantity(1),
			Directions: "take daily",
		})

		assert.Nil(t, got.MatchedName)
		assert.Equal(t, catalog.CategoryUnknown, got.Category)
		assert.Equal(t, 0.0, got.Confidence)
		assert.Equal(t, 0, got.DaySupply)
		assert.Equal(t, UnsupportedDirectionsMarker, got.StandardizedDirections)
		assert.NotEmpty(t, got.Warnings)
	})

	t.Run("deterministic", func(t *testing.T) {
		input := PrescriptionInput{
			DrugName:   "Flonase",
			Quantity:   NewQuantity(1),
			Directions: "1 spray each nostril twice daily",
		}
		first := e.Extract(ctx, input)
		second := e.Extract(ctx, input)
		assert.Equal(t, first, second)
	})
}

func TestExtractor_EnrichmentOverrideStaysWithinLimits(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mock_enrich.NewMockClient(ctrl)

	ninety := 90
	mockClient.EXPECT().
		ParseDirections(gomock.Any(), gomock.Any()).
		Return(enrich.ParseDirectionsResponse{
			Parsed: enrich.ParsedDirections{
				DailyFrequency:         1,
				DosePerAdministration:  10,
				Route:                  "subcutaneous",
				StandardizedDirections: "Inject 10 units once daily",
				Confidence:             0.95,
				SuggestedDaySupply:     &ninety,
			},
		}, nil)

	e := newTestExtractor(t, mockClient)
	got := e.Extract(context.Background(), PrescriptionInput{
		DrugName:   "Humalog",
		Quantity:   NewQuantity(1),
		Directions: "10 units once daily",
	})

	require.NotNil(t, got.MatchedName)
	// The suggested 90 days cannot escape the 28 day beyond-use window.
	assert.Equal(t, 28, got.DaySupply)
	assert.Equal(t, "Inject 10 units once daily", got.StandardizedDirections)
	assert.NotEmpty(t, got.Warnings)
}

func TestExtractor_AlternativeNameRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mock_enrich.NewMockClient(ctrl)

	mockClient.EXPECT().
		SuggestAlternativeNames(gomock.Any(), enrich.SuggestNamesRequest{
			DrugName: "Fluticasone Nose Mist 16gm Bottle",
		}).
		Return(enrich.SuggestNamesResponse{Names: []string{"Flonase"}}, nil)
	mockClient.EXPECT().
		ParseDirections(gomock.Any(), gomock.Any()).
		Return(enrich.ParseDirectionsResponse{}, assert.AnError)

	e := newTestExtractor(t, mockClient)
	got := e.Extract(context.Background(), PrescriptionInput{
		DrugName:   "Fluticasone Nose Mist 16gm Bottle",
		Quantity:   NewQuantity(1),
		Directions: "1 spray each nostril twice daily",
	})

	require.NotNil(t, got.MatchedName)
	assert.Equal(t, "flonase", *got.MatchedName)
	assert.Equal(t, catalog.CategoryNasalSpray, got.Category)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantValue float64
		wantRaw   string
		wantError bool
	}{
		{name: "number", data: `2.5`, wantValue: 2.5},
		{name: "numeric string", data: `"3"`, wantValue: 3, wantRaw: "3"},
		{name: "string with units", data: `"30gm tube"`, wantValue: 30, wantRaw: "30gm tube"},
		{name: "string without number", data: `"one tube"`, wantValue: 0, wantRaw: "one tube"},
		{name: "invalid", data: `true`, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.data), &q)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, q.Value)
			assert.Equal(t, tt.wantRaw, q.Raw)
		})
	}
}
