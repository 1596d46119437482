// Package main is the entry point for the hindsight retrieval server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreas-roehler/hindsight/internal/api"
	"github.com/andreas-roehler/hindsight/internal/config"
	"github.com/andreas-roehler/hindsight/internal/embed"
	"github.com/andreas-roehler/hindsight/internal/index/chromem"
	"github.com/andreas-roehler/hindsight/internal/index/inmem"
	"github.com/andreas-roehler/hindsight/internal/index/qdrant"
	"github.com/andreas-roehler/hindsight/internal/index/redis"
	"github.com/andreas-roehler/hindsight/internal/observability"
	"github.com/andreas-roehler/hindsight/internal/retrieval"
	"github.com/andreas-roehler/hindsight/internal/scoring"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
	"github.com/andreas-roehler/hindsight/rerankers"
	"github.com/andreas-roehler/hindsight/retrievers"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration; fall back to defaults when no file exists.
	var cfgManager *config.Manager
	bootLogger := observability.NewLogger(observability.LoggerConfig{
		Output: os.Stdout, JSONFormat: true,
	})
	if _, err := os.Stat(*configPath); err == nil {
		m, err := config.NewManager(*configPath, bootLogger.Slog())
		if err != nil {
			bootLogger.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		cfgManager = m
	} else {
		bootLogger.Warn("config file not found, using defaults", "path", *configPath)
		cfgManager = config.NewStaticManager(config.DefaultConfig())
	}
	cfg := cfgManager.Get()

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      observability.ParseLevel(cfg.Logging.Level),
		Output:     os.Stdout,
		JSONFormat: cfg.Logging.Format == "json",
	})

	logger.Info("starting hindsight server", "version", "0.1.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfgManager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	// Initialize tracing
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	// The in-memory store always backs the fact store, the memory
	// graph, and the lexical index; ingestion is out of scope here, so
	// facts arrive through the library API or local seeding.
	store := inmem.NewStore()
	embedder := embed.NewBagEmbedder(256)

	var semantic index.SemanticIndex
	switch cfg.Indexes.Semantic {
	case "chromem":
		semantic = chromem.NewIndex(embedder.Func())
		logger.Info("semantic index backend", "backend", "chromem")
	case "qdrant":
		qx, err := qdrant.NewIndex(qdrant.Config{
			Address:    cfg.Indexes.Qdrant.Address,
			APIKey:     cfg.Indexes.Qdrant.APIKey,
			Collection: cfg.Indexes.Qdrant.Collection,
			Timeout:    cfg.Indexes.Qdrant.Timeout,
		}, embedder)
		if err != nil {
			logger.Error("failed to create qdrant index", "error", err)
			os.Exit(1)
		}
		semantic = qx
		logger.Info("semantic index backend", "backend", "qdrant", "address", cfg.Indexes.Qdrant.Address)
	default:
		semantic = store.Semantic()
		logger.Info("semantic index backend", "backend", "inmem")
	}

	var temporal index.TemporalIndex
	if cfg.Indexes.Temporal == "redis" {
		rx := redis.New(redis.Config{
			Addr:      cfg.Indexes.Redis.Address,
			Password:  cfg.Indexes.Redis.Password,
			DB:        cfg.Indexes.Redis.DB,
			KeyPrefix: cfg.Indexes.Redis.KeyPrefix,
		})
		defer func() { _ = rx.Close() }()
		temporal = rx
		logger.Info("temporal index backend", "backend", "redis", "address", cfg.Indexes.Redis.Address)
	} else {
		temporal = store.Temporal()
		logger.Info("temporal index backend", "backend", "inmem")
	}

	// Seed the strategy registry from config.
	registry := retrieval.NewRegistry()
	gr, err := retrievers.New(retriever.Strategy(cfg.Retrieval.Strategy))
	if err != nil {
		logger.Error("invalid graph retriever strategy", "error", err)
		os.Exit(1)
	}
	registry.SetGraphRetriever(gr)

	var backend index.ScoringBackend
	if cfg.Rerank.ScoringURL != "" {
		backend, err = scoring.NewClient(scoring.Config{
			Address: cfg.Rerank.ScoringURL,
			APIKey:  cfg.Rerank.ScoringKey,
		})
		if err != nil {
			logger.Error("failed to create scoring client", "error", err)
			os.Exit(1)
		}
	}
	rr, err := buildReranker(cfg, backend)
	if err != nil {
		logger.Error("invalid reranker strategy", "error", err)
		os.Exit(1)
	}
	registry.SetReranker(rr)

	engine := retrieval.NewEngine(retrieval.EngineConfig{
		Semantic: semantic,
		Lexical:  store.Lexical(),
		Temporal: temporal,
		Graph:    store,
		Facts:    store,
		Registry: registry,
		Config:   cfgManager,
		Logger:   logger.Slog(),
	})

	handler := api.NewHandler(engine, store, logger.Slog())

	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildReranker(cfg *config.Config, backend index.ScoringBackend) (reranker.Reranker, error) {
	if cfg.Rerank.Strategy == string(reranker.StrategyCrossEncoder) {
		if backend == nil {
			return nil, fmt.Errorf("cross-encoder reranker requires rerank.scoring_url")
		}
		return rerankers.NewCrossEncoder(backend, rerankers.CrossEncoderConfig{
			BatchSize:    cfg.Rerank.BatchSize,
			BatchTimeout: cfg.Rerank.BatchTimeout,
			CacheTTL:     cfg.Rerank.CacheTTL,
		}), nil
	}
	return rerankers.NewHeuristic(), nil
}
