package enrich

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the breaker is open and requests are being
// shed without reaching the upstream model.
var ErrUnavailable = errors.New("enrichment temporarily unavailable")

// BreakerClient decorates a Client with a circuit breaker so a degraded model
// endpoint sheds calls fast instead of stalling every extraction on retries.
type BreakerClient struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewBreakerClient(client Client, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	bc := &BreakerClient{
		client: client,
		logger: logger,
	}
	bc.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "enrichment",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("enrichment breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return bc
}

func (bc *BreakerClient) regularize(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}

func (bc *BreakerClient) ParseDirections(ctx context.Context, params ParseDirectionsRequest) (ParseDirectionsResponse, error) {
	result, err := bc.breaker.Execute(func() (any, error) {
		return bc.client.ParseDirections(ctx, params)
	})
	if err != nil {
		return ParseDirectionsResponse{}, bc.regularize(err)
	}
	return result.(ParseDirectionsResponse), nil
}

func (bc *BreakerClient) SuggestAlternativeNames(ctx context.Context, params SuggestNamesRequest) (SuggestNamesResponse, error) {
	result, err := bc.breaker.Execute(func() (any, error) {
		return bc.client.SuggestAlternativeNames(ctx, params)
	})
	if err != nil {
		return SuggestNamesResponse{}, bc.regularize(err)
	}
	return result.(SuggestNamesResponse), nil
}
