package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/daysupplynational/daysupply/internal/calculator"
	"github.com/daysupplynational/daysupply/internal/catalog"
	"github.com/daysupplynational/daysupply/internal/config"
	"github.com/daysupplynational/daysupply/internal/database"
	"github.com/daysupplynational/daysupply/internal/enrich"
	"github.com/daysupplynational/daysupply/internal/enrich/openai"
	"github.com/daysupplynational/daysupply/internal/extractor"
	"github.com/daysupplynational/daysupply/internal/history"
	"github.com/daysupplynational/daysupply/internal/metrics"
	"github.com/daysupplynational/daysupply/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("DAYSUPPLY_CONFIG"))
	if err != nil {
		return fmt.Errorf("config.Load > %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("catalog.Load > %w", err)
	}
	registry, err := calculator.NewRegistry(logger)
	if err != nil {
		return fmt.Errorf("calculator.NewRegistry > %w", err)
	}

	var enricher enrich.Client
	if cfg.OpenAI.Enabled() {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.RetryAttempts)
		enricher = enrich.NewBreakerClient(client, logger)
		logger.Info("model enrichment enabled", slog.String("model", cfg.OpenAI.Model))
	} else {
		logger.Info("model enrichment disabled, running rule-based only")
	}

	var repo history.Repository
	if cfg.Database.DSN != "" {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("database.Open > %w", err)
		}
		defer func() {
			_ = db.Close()
		}()
		if err := history.Migrate(context.Background(), db); err != nil {
			return fmt.Errorf("history.Migrate > %w", err)
		}
		repo = history.NewDBRepository(db)
		logger.Info("extraction history enabled")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ex := extractor.New(cat, registry, enricher, logger)
	handler := server.NewExtractHandler(ex, repo, metrics.New(promRegistry), logger)
	httpServer := server.New(cfg.Server.Address, handler, promRegistry, logger)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	logger.Info("starting server", slog.String("address", cfg.Server.Address))
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe > %w", err)
	}
	<-shutdownDone

	logger.Info("server stopped")
	return nil
}
