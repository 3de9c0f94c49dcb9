package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pricelens/backend/config"
	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/llm"
	"github.com/pricelens/backend/internal/usecase"
	"github.com/pricelens/backend/internal/vocabulary"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PriceLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Stores: %v", cfg.Stores)

	policy, err := cfg.Matching.Policy()
	if err != nil {
		log.Fatalf("Invalid matching policy: %v", err)
	}

	vocab, err := vocabulary.Load(cfg.Vocabulary.Path)
	if err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}
	log.Printf("Vocabulary: version %s (%d store brands, %d brands, %d descriptors)",
		vocab.Version, len(vocab.StoreBrands), len(vocab.Brands), len(vocab.Descriptors))

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cfg.Cache.MaxEntries, 0)
	log.Printf("Cache TTL: %s (max %d results)", cfg.Cache.TTL, cfg.Cache.MaxEntries)

	var oracle domain.ConfirmationOracle
	if cfg.Oracle.Enabled {
		client := llm.NewClient(llm.Config{
			BaseURL:           cfg.Oracle.BaseURL,
			APIKey:            cfg.Oracle.APIKey,
			Model:             cfg.Oracle.Model,
			Timeout:           cfg.Oracle.Timeout,
			RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
		})

		// Enable debug mode in development environment
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
			log.Printf("Oracle client debug mode enabled")
		}

		oracle = client
		log.Printf("Oracle configured: %s model=%s min_confidence=%.2f",
			cfg.Oracle.BaseURL, cfg.Oracle.Model, cfg.Oracle.MinConfidence)
	} else {
		log.Printf("Oracle disabled: borderline pairs are rejected")
	}

	// Initialize usecase layer
	comparisonService, err := usecase.NewComparisonService(
		memoryCache,
		usecase.ComparisonServiceConfig{
			Stores:              cfg.Stores,
			Policy:              policy,
			Vocabulary:          vocab,
			FoldDiacritics:      cfg.Matching.FoldDiacritics,
			ExcludeOutOfStock:   cfg.Matching.ExcludeOutOfStock,
			MaxPlausiblePrice:   cfg.Prices.MaxPlausible,
			Oracle:              oracle,
			MinOracleConfidence: cfg.Oracle.MinConfidence,
			Workers:             cfg.Matching.Workers,
			CacheTTL:            cfg.Cache.TTL,
			EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
		},
	)
	if err != nil {
		log.Fatalf("Failed to create comparison service: %v", err)
	}

	log.Printf("Matching: preset=%s threshold=%.2f blocking=%s canonical=%s debug=%v",
		cfg.Matching.Preset,
		policy.Threshold,
		policy.Blocking,
		policy.CanonicalName,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(comparisonService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, httpServer, memoryCache.Close); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts
// it down gracefully and runs cleanup.
func serve(ctx context.Context, srv *http.Server, cleanup func()) error {
	defer cleanup()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Printf("Shutting down server gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("Server stopped")
	return nil
}
