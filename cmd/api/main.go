package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vihorki/metrics-analyzer/internal/aggregator"
	"github.com/vihorki/metrics-analyzer/internal/analyzer"
	"github.com/vihorki/metrics-analyzer/internal/api"
	"github.com/vihorki/metrics-analyzer/internal/cache"
	"github.com/vihorki/metrics-analyzer/internal/config"
	"github.com/vihorki/metrics-analyzer/internal/domain"
	"github.com/vihorki/metrics-analyzer/internal/llm"
	"github.com/vihorki/metrics-analyzer/internal/metricsapi"
	"github.com/vihorki/metrics-analyzer/internal/storage"
	"github.com/vihorki/metrics-analyzer/internal/storage/postgres"
	"github.com/vihorki/metrics-analyzer/internal/storage/sqlite"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer store.Close()

	// Initialize clients
	metricsClient := metricsapi.NewClient(cfg.MetricsAPIURL, cfg.MetricsAPIKey, cfg.RequestTimeout, log)
	llmClient := llm.NewDisabled()
	if cfg.EnableLLMAnalysis {
		llmClient, err = llm.NewClient(llm.Options{
			BaseURL:  cfg.LLMBaseURL,
			APIKey:   cfg.LLMAPIKey,
			FolderID: cfg.LLMFolderID,
			Model:    cfg.LLMModel,
			Timeout:  cfg.RequestTimeout,
			Logger:   log,
		})
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
	}

	// Initialize orchestrator
	orch := analyzer.New(metricsClient, llmClient, analyzer.Options{
		DefaultReasoningEffort: domain.ReasoningEffort(cfg.DefaultReasoningEffort),
		HealthTimeout:          cfg.HealthTimeout,
	}, log)
	defer orch.Close()

	// Initialize aggregator and cache
	agg := aggregator.NewAggregator(store, log)
	comparisonCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, log)
	defer comparisonCache.Close()

	// Initialize handler and routes
	handler := api.NewHandler(orch, agg, comparisonCache, api.Options{
		SubmitToAPI:    cfg.EnableAPISubmission,
		AnalyzeWithLLM: cfg.EnableLLMAnalysis,
	}, log)
	router := api.SetupRoutes(handler, log)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.WithFields(logrus.Fields{
		"addr":    addr,
		"storage": cfg.StorageType,
	}).Info("Starting API server")

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
