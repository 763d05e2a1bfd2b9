// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/recommend/cluster"
)

// MaintenanceEngine is the slice of the recommendation engine the
// maintenance service drives. Recluster reports false when another
// maintenance operation is already running.
type MaintenanceEngine interface {
	Recluster(ctx context.Context, cfg cluster.Config) (bool, error)
}

// SnapshotFunc persists the current model state. Called after each
// successful reclustering pass; nil disables persistence.
type SnapshotFunc func(ctx context.Context) error

// MaintenanceServiceConfig holds configuration for the maintenance service.
type MaintenanceServiceConfig struct {
	// ReclusterInterval is how often topic clusters are recomputed.
	// Non-positive disables the periodic loop; the service then only
	// snapshots on shutdown.
	ReclusterInterval time.Duration

	// ClusterConfig is the clustering configuration for each pass.
	ClusterConfig cluster.Config
}

// MaintenanceService periodically reclusters the course catalog and
// persists model snapshots.
type MaintenanceService struct {
	engine   MaintenanceEngine
	snapshot SnapshotFunc
	config   MaintenanceServiceConfig
	logger   zerolog.Logger
	name     string
}

// NewMaintenanceService creates the maintenance service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewMaintenanceService(engine MaintenanceEngine, snapshot SnapshotFunc, cfg MaintenanceServiceConfig, logger zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		engine:   engine,
		snapshot: snapshot,
		config:   cfg,
		logger:   logger.With().Str("service", "maintenance").Logger(),
		name:     "maintenance-service",
	}
}

// Serve implements the suture.Service interface.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("recluster_interval", s.config.ReclusterInterval).
		Int("clusters", s.config.ClusterConfig.Clusters).
		Msg("maintenance service starting")

	if s.config.ReclusterInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.ReclusterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("maintenance service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled maintenance failed")
			}
		}
	}
}

// runOnce performs one recluster-and-snapshot cycle with a bounded context.
func (s *MaintenanceService) runOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()

	started, err := s.engine.Recluster(runCtx, s.config.ClusterConfig)
	if err != nil {
		return err
	}
	if !started {
		s.logger.Debug().Msg("maintenance already in progress, skipping cycle")
		return nil
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("reclustering complete")

	if s.snapshot != nil {
		if err := s.snapshot(runCtx); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot persistence failed")
		}
	}

	return nil
}

// String returns the service name for logging.
func (s *MaintenanceService) String() string {
	return s.name
}
