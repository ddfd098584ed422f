package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daysupplynational/daysupply/internal/calculator"
	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/config"
	"github.com/daysupplynational/daysupply/internal/enrich"
	"github.com/daysupplynational/daysupply/internal/enrich/openai"
	"github.com/daysupplynational/daysupply/internal/extractor"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load > %w", err)
	}
	return cfg, nil
}

// newExtractor wires the extraction pipeline from configuration. Model
// enrichment is enabled only when an OpenAI API key is configured.
func newExtractor(cfg *config.Config) (*extractor.Extractor, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("catalog.Load > %w", err)
	}
	registry, err := calculator.NewRegistry(slog.Default())
	if err != nil {
		return nil, fmt.Errorf("calculator.NewRegistry > %w", err)
	}

	var enricher enrich.Client
	if cfg.OpenAI.Enabled() {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.RetryAttempts)
		enricher = enrich.NewBreakerClient(client, slog.Default())
	}

	return extractor.New(cat, registry, enricher, slog.Default()), nil
}

func newIndentEncoder(cmd *cobra.Command) *json.Encoder {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder
}

// parseQuantity accepts either a bare number or a free-text quantity such as
// "30gm tube".
func parseQuantity(raw string) extractor.Quantity {
	var quantity extractor.Quantity
	if err := json.Unmarshal([]byte(strconv.Quote(raw)), &quantity); err != nil {
		return extractor.Quantity{Raw: raw}
	}
	return quantity
}
