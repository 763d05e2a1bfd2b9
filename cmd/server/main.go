// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package main is the entry point for the CourseCompass server.
//
// CourseCompass recommends university courses from a semantic embedding
// index of the course catalog. The server initializes components in the
// following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env vars)
//  2. Catalog: JSON catalog file loaded into the in-memory store
//  3. Embedding provider: OpenAI-compatible client with circuit breaker
//     and a Badger-backed text embedding cache
//  4. Vector index and topic clusters: restored from a snapshot when one
//     is available, otherwise built from the catalog
//  5. Recommendation engine
//  6. HTTP server and maintenance loop, run under a Suture supervisor tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
// See internal/config for the full set of keys.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests (10s timeout),
// and persists a final model snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursecompass/coursecompass/internal/api"
	"github.com/coursecompass/coursecompass/internal/catalog"
	"github.com/coursecompass/coursecompass/internal/config"
	"github.com/coursecompass/coursecompass/internal/embedding"
	"github.com/coursecompass/coursecompass/internal/logging"
	"github.com/coursecompass/coursecompass/internal/metrics"
	"github.com/coursecompass/coursecompass/internal/recommend"
	"github.com/coursecompass/coursecompass/internal/recommend/cluster"
	"github.com/coursecompass/coursecompass/internal/recommend/index"
	"github.com/coursecompass/coursecompass/internal/recommend/storage"
	"github.com/coursecompass/coursecompass/internal/supervisor"
	"github.com/coursecompass/coursecompass/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("catalog_path", cfg.Catalog.Path).
		Str("embedding_model", cfg.Embedding.Model).
		Str("mode", cfg.Recommend.Mode).
		Msg("Starting CourseCompass")

	logger := logging.Logger()

	// Catalog
	courses, err := catalog.LoadFile(cfg.Catalog.Path, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load course catalog")
	}
	store := catalog.NewStore(logger)
	skipped := store.BulkLoad(courses)
	logging.Info().
		Int("courses", store.Len()).
		Int("skipped", skipped).
		Msg("Catalog loaded")
	metrics.UpdateCatalog(store.Len(), store.Version())

	// Embedding provider with optional Badger cache
	provider, closeCache := buildEmbedder(cfg)
	defer closeCache()

	// Vector index, restored from snapshot when possible
	var snapshots *storage.Store
	if cfg.Snapshot.Dir != "" {
		snapshots, err = storage.NewStore(cfg.Snapshot.Dir, logger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open snapshot store")
		}
	}

	idx, err := index.New(cfg.Embedding.Dimension)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create vector index")
	}
	if err := seedIndex(idx, store, snapshots, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to build vector index")
	}
	logging.Info().
		Int("vectors", idx.Len()).
		Uint64("version", idx.Version()).
		Msg("Vector index ready")

	// Recommendation engine
	engine := recommend.NewEngine(recommend.Config{
		DefaultMode:     recommend.Mode(cfg.Recommend.Mode),
		DefaultLimit:    cfg.Recommend.DefaultLimit,
		MaxLimit:        cfg.Recommend.MaxLimit,
		MaxCandidates:   cfg.Recommend.MaxCandidates,
		CacheTTL:        cfg.Recommend.CacheTTL,
		MaxCacheEntries: 1000,
		Seed:            42, // Default seed for determinism
	}, store, idx, provider, logger)

	// HTTP surface
	handlers := api.NewHandlers(engine, store, logger)
	mw := api.NewMiddleware(api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         300,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handlers, mw),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	snapshotFn := snapshotFunc(snapshots, store, idx)
	clusterCfg := cluster.Config{
		Clusters:      cfg.Recommend.Clusters,
		MaxIterations: cfg.Recommend.ClusterMaxIterations,
		Seed:          42, // Default seed for determinism
	}
	tree.AddMaintenanceService(services.NewMaintenanceService(engine, snapshotFn, services.MaintenanceServiceConfig{
		ReclusterInterval: cfg.Maintenance.ReclusterInterval,
		ClusterConfig:     clusterCfg,
	}, logger))

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Final snapshot so the next start skips the full rebuild.
	if snapshotFn != nil {
		if err := snapshotFn(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Final snapshot failed")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildEmbedder constructs the embedding provider, wrapping it with the
// Badger text cache when a cache path is configured. The returned close
// function releases the cache database. A cache failure degrades to the
// bare client, so construction never fails.
func buildEmbedder(cfg *config.Config) (embedding.Provider, func()) {
	client := embedding.NewClient(embedding.ClientConfig{
		BaseURL:           cfg.Embedding.BaseURL,
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		Dimension:         cfg.Embedding.Dimension,
		Timeout:           cfg.Embedding.Timeout,
		MaxRetries:        cfg.Embedding.MaxRetries,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	}, logging.Logger())

	cached, err := embedding.NewCachedProvider(client, cfg.Embedding.Model, cfg.Embedding.CachePath, logging.Logger())
	if err != nil {
		logging.Warn().Err(err).Msg("Embedding cache unavailable, continuing without it")
		return client, func() {}
	}
	return cached, func() {
		if err := cached.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing embedding cache")
		}
	}
}

// seedIndex populates the vector index and cluster assignments, preferring
// a persisted snapshot over a full rebuild. A snapshot is only usable when
// its dimension matches the configured one; otherwise the index is rebuilt
// from catalog embeddings and clusters are recomputed.
func seedIndex(idx *index.Index, store *catalog.Store, snapshots *storage.Store, cfg *config.Config) error {
	if snapshots != nil {
		snap, err := snapshots.Load()
		switch {
		case err == nil && snap.Dimension == cfg.Embedding.Dimension:
			if err := idx.Rebuild(snap.Vectors); err != nil {
				return fmt.Errorf("restoring index from snapshot: %w", err)
			}
			store.SetClusters(snap.Clusters)
			logging.Info().
				Time("created_at", snap.CreatedAt).
				Int("vectors", len(snap.Vectors)).
				Msg("Restored model state from snapshot")
			return nil
		case errors.Is(err, storage.ErrNoSnapshot):
			logging.Info().Msg("No snapshot found, building index from catalog")
		case err != nil:
			logging.Warn().Err(err).Msg("Snapshot unusable, building index from catalog")
		default:
			logging.Warn().
				Int("snapshot_dimension", snap.Dimension).
				Int("configured_dimension", cfg.Embedding.Dimension).
				Msg("Snapshot dimension mismatch, building index from catalog")
		}
	}

	vectors := make(map[string][]float64)
	for _, course := range store.All() {
		if course.Indexable() {
			vectors[course.Code] = course.Embedding
		}
	}
	if err := idx.Rebuild(vectors); err != nil {
		return fmt.Errorf("building index from catalog: %w", err)
	}

	assignment, err := cluster.Fit(vectors, cluster.Config{
		Clusters:      cfg.Recommend.Clusters,
		MaxIterations: cfg.Recommend.ClusterMaxIterations,
		Seed:          42, // Default seed for determinism
	})
	if err != nil {
		// Small catalogs cannot support the configured cluster count.
		// Serendipity degrades to neutral without assignments.
		logging.Warn().Err(err).Msg("Topic clustering skipped")
		return nil
	}
	store.SetClusters(assignment.ByID)
	logging.Info().
		Int("clusters", cfg.Recommend.Clusters).
		Int("iterations", assignment.Iterations).
		Msg("Topic clusters computed")
	return nil
}

// snapshotFunc returns a SnapshotFunc persisting the current index and
// cluster assignments, or nil when snapshots are disabled.
func snapshotFunc(snapshots *storage.Store, store *catalog.Store, idx *index.Index) services.SnapshotFunc {
	if snapshots == nil {
		return nil
	}
	return func(_ context.Context) error {
		clusters := make(map[string]int)
		for _, course := range store.All() {
			if course.ClusterID >= 0 {
				clusters[course.Code] = course.ClusterID
			}
		}
		return snapshots.Save(&storage.Snapshot{
			Vectors:      idx.Snapshot(),
			Dimension:    idx.Dimension(),
			Clusters:     clusters,
			IndexVersion: idx.Version(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}
