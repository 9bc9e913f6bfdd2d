// Package main provides the HTTP API server for linkhoard.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/llm"
	"github.com/linkhoard/linkhoard/internal/metadata"
	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/server"
	"github.com/linkhoard/linkhoard/internal/service"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	slog.Info("starting linkhoard-server", "port", cfg.ServerPort, "owner", cfg.Owner)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
		Owner:     cfg.Owner,
	}, logger, collector)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := store.InitSchema(ctx, cfg.EmbedDimension); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	if *wipeDB || os.Getenv("LINKHOARD_WIPE_DB") == "true" {
		if err := store.WipeData(ctx); err != nil {
			cancel()
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}
	cancel()
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Semantic search is optional; the server runs without it when the
	// embedding provider is unavailable.
	var queue *service.IndexQueue
	var searchSvc *service.SearchService
	if cfg.SemanticSearchEnabled {
		embedder, err := llm.NewEmbedder(cfg, collector)
		if err != nil {
			slog.Warn("embedding provider unavailable, semantic search disabled", "error", err)
			searchSvc = service.NewSearchService(store, nil)
		} else {
			cache, err := service.NewHashCache(cfg.HashCachePath)
			if err != nil {
				slog.Error("failed to open hash cache", "error", err)
				os.Exit(1)
			}
			queue = service.NewIndexQueue(store, embedder, cache, true, logger)
			searchSvc = service.NewSearchService(store, embedder)
		}
	} else {
		searchSvc = service.NewSearchService(store, nil)
	}

	fetcher := metadata.NewFetcher(cfg.MetadataTimeout, collector)
	enricher := service.NewEnricher(store, fetcher, cfg.EnrichConcurrency, logger)
	bookmarks := service.NewBookmarks(store, enricher, queue, logger)
	importer := service.NewImportService(store, cfg.ImportChunkSize, collector, logger)

	srv := server.New(cfg, server.Deps{
		Bookmarks: bookmarks,
		Importer:  importer,
		Enricher:  enricher,
		Queue:     queue,
		Search:    searchSvc,
		Collector: collector,
		Logger:    logger,
	})

	// Catch up on bookmarks left pending by a previous run.
	enricher.Kick(context.Background())

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
