package enrich_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/daysupplynational/daysupply/internal/enrich"
	mock_enrich "github.com/daysupplynational/daysupply/internal/mocks/enrich"
)

func TestBreakerClient_ParseDirections(t *testing.T) {
	t.Run("passes results through while closed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockClient := mock_enrich.NewMockClient(ctrl)
		mockClient.EXPECT().
			ParseDirections(gomock.Any(), gomock.Any()).
			Return(enrich.ParseDirectionsResponse{
				Parsed: enrich.ParsedDirections{DailyFrequency: 2, Confidence: 0.9},
			}, nil)

		breaker := enrich.NewBreakerClient(mockClient, nil)
		got, err := breaker.ParseDirections(context.Background(), enrich.ParseDirectionsRequest{
			DrugName:   "Flonase",
			Directions: "2 sprays daily",
		})
		require.NoError(t, err)
		assert.Equal(t, 2.0, got.Parsed.DailyFrequency)
	})

	t.Run("opens after consecutive failures and sheds calls", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockClient := mock_enrich.NewMockClient(ctrl)
		upstreamErr := errors.New("response error 500")
		mockClient.EXPECT().
			ParseDirections(gomock.Any(), gomock.Any()).
			Return(enrich.ParseDirectionsResponse{}, upstreamErr).
			Times(5)

		breaker := enrich.NewBreakerClient(mockClient, nil)
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			_, err := breaker.ParseDirections(ctx, enrich.ParseDirectionsRequest{Directions: "x"})
			require.ErrorIs(t, err, upstreamErr)
		}

		// Breaker is open now: the upstream mock must not be called again.
		_, err := breaker.ParseDirections(ctx, enrich.ParseDirectionsRequest{Directions: "x"})
		assert.ErrorIs(t, err, enrich.ErrUnavailable)
	})
}
