// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package config provides layered configuration for CourseCompass using Koanf v2.
//
// Configuration is loaded from three sources, later sources overriding earlier:
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (HTTP_PORT, LOG_LEVEL, EMBEDDING_API_KEY, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the application.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Snapshot    SnapshotConfig    `koanf:"snapshot"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs is the per-IP request budget per RateLimitWindow.
	// Zero disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CatalogConfig holds course catalog settings.
type CatalogConfig struct {
	// Path is the JSON catalog file loaded at startup.
	Path string `koanf:"path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// BaseURL is an OpenAI-compatible embeddings API endpoint.
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`

	// Dimension is the expected embedding vector dimension.
	Dimension int `koanf:"dimension"`

	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`

	// RequestsPerSecond caps outbound provider calls. Zero disables the limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// CachePath is the badger directory for the text embedding cache.
	// Empty disables caching.
	CachePath string `koanf:"cache_path"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// Mode selects the default weight profile: basic, advanced, super_advanced.
	Mode string `koanf:"mode"`

	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// MaxCandidates caps the candidate pool assembled per request.
	MaxCandidates int `koanf:"max_candidates"`

	// CacheTTL bounds how long a recommendation response is served from cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Clusters is the k used for topic clustering.
	Clusters int `koanf:"clusters"`

	// ClusterMaxIterations bounds the k-means refinement loop.
	ClusterMaxIterations int `koanf:"cluster_max_iterations"`
}

// SnapshotConfig holds model snapshot persistence settings.
type SnapshotConfig struct {
	// Dir is where index and cluster snapshots are written.
	// Empty disables snapshot persistence.
	Dir string `koanf:"dir"`
}

// MaintenanceConfig holds background maintenance settings.
type MaintenanceConfig struct {
	// ReclusterInterval is how often topic clusters are recomputed.
	// Zero disables periodic reclustering.
	ReclusterInterval time.Duration `koanf:"recluster_interval"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.MaxRetries < 0 {
		return fmt.Errorf("embedding.max_retries must not be negative, got %d", c.Embedding.MaxRetries)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %f", c.Embedding.RequestsPerSecond)
	}

	switch c.Recommend.Mode {
	case "basic", "advanced", "super_advanced":
	default:
		return fmt.Errorf("recommend.mode must be basic, advanced or super_advanced, got %q", c.Recommend.Mode)
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must not be below default_limit (%d)",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if c.Recommend.Clusters < 1 {
		return fmt.Errorf("recommend.clusters must be at least 1, got %d", c.Recommend.Clusters)
	}
	if c.Recommend.ClusterMaxIterations < 1 {
		return fmt.Errorf("recommend.cluster_max_iterations must be at least 1, got %d",
			c.Recommend.ClusterMaxIterations)
	}

	return nil
}
