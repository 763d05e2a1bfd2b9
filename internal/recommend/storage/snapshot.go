// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

// Package storage persists vector index and cluster snapshots for fast
// process restarts. Snapshots are gob-encoded, gzip-compressed, and
// checksummed; a reload must reproduce identical query results, so vectors
// round-trip exactly.
package storage

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/metrics"
)

// ErrChecksumMismatch indicates a snapshot file is corrupt.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// ErrNoSnapshot indicates no snapshot file exists yet.
var ErrNoSnapshot = errors.New("no snapshot found")

// snapshotMagic guards against loading unrelated files.
const snapshotMagic = "coursecompass-snapshot-v1"

// Snapshot is the persisted engine state.
type Snapshot struct {
	// Vectors holds every indexed embedding keyed by course code.
	Vectors map[string][]float64

	// Dimension is the index's fixed vector dimension.
	Dimension int

	// Clusters maps course code to topic cluster id.
	Clusters map[string]int

	// IndexVersion is the index generation the snapshot was taken from.
	IndexVersion uint64

	// CreatedAt is when the snapshot was written.
	CreatedAt time.Time
}

// envelope wraps a snapshot with integrity metadata for the gob stream.
type envelope struct {
	Magic    string
	Checksum [sha256.Size]byte
	Snapshot Snapshot
}

// Store reads and writes snapshots under a directory.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates a snapshot store rooted at dir, creating it if needed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "snapshot").Logger(),
	}, nil
}

// path is the canonical snapshot location.
func (s *Store) path() string {
	return filepath.Join(s.dir, "engine.snapshot")
}

// Save writes a snapshot atomically: encode to a temp file in the same
// directory, fsync, then rename over the previous snapshot. Readers never
// see a partial file.
func (s *Store) Save(snap *Snapshot) error {
	snap.CreatedAt = time.Now().UTC()

	tmp, err := os.CreateTemp(s.dir, "engine.snapshot.tmp-*")
	if err != nil {
		metrics.RecordSnapshot("save", 0, err)
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if err := writeSnapshot(tmp, snap); err != nil {
		tmp.Close()
		metrics.RecordSnapshot("save", 0, err)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		metrics.RecordSnapshot("save", 0, err)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		metrics.RecordSnapshot("save", 0, err)
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path()); err != nil {
		metrics.RecordSnapshot("save", 0, err)
		return fmt.Errorf("installing snapshot: %w", err)
	}

	size := int64(0)
	if info, err := os.Stat(s.path()); err == nil {
		size = info.Size()
	}
	metrics.RecordSnapshot("save", size, nil)

	s.logger.Info().
		Int("vectors", len(snap.Vectors)).
		Int("clusters", len(snap.Clusters)).
		Int64("bytes", size).
		Msg("snapshot saved")
	return nil
}

// Load reads and verifies the current snapshot.
// Returns ErrNoSnapshot when none exists and ErrChecksumMismatch when the
// file fails integrity checks.
func (s *Store) Load() (*Snapshot, error) {
	f, err := os.Open(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		metrics.RecordSnapshot("load", 0, err)
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	snap, err := readSnapshot(f)
	if err != nil {
		metrics.RecordSnapshot("load", 0, err)
		return nil, err
	}

	metrics.RecordSnapshot("load", 0, nil)
	s.logger.Info().
		Int("vectors", len(snap.Vectors)).
		Int("clusters", len(snap.Clusters)).
		Time("created_at", snap.CreatedAt).
		Msg("snapshot loaded")
	return snap, nil
}

// writeSnapshot gob-encodes the envelope through gzip.
func writeSnapshot(f *os.File, snap *Snapshot) error {
	env := envelope{
		Magic:    snapshotMagic,
		Checksum: checksum(snap),
		Snapshot: *snap,
	}

	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(&env); err != nil {
		zw.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	return nil
}

// readSnapshot decodes and verifies an envelope.
func readSnapshot(f *os.File) (*Snapshot, error) {
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	defer zr.Close()

	var env envelope
	if err := gob.NewDecoder(zr).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	if env.Magic != snapshotMagic {
		return nil, fmt.Errorf("%w: unrecognized file format", ErrChecksumMismatch)
	}
	if env.Checksum != checksum(&env.Snapshot) {
		return nil, ErrChecksumMismatch
	}
	return &env.Snapshot, nil
}

// checksum hashes the snapshot contents. Map iteration order is not
// deterministic, so keys are sorted before hashing.
func checksum(snap *Snapshot) [sha256.Size]byte {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|", snapshotMagic, snap.Dimension, snap.IndexVersion)

	codes := make([]string, 0, len(snap.Vectors))
	for code := range snap.Vectors {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprint(h, code, "=")
		for _, v := range snap.Vectors[code] {
			fmt.Fprintf(h, "%x,", math.Float64bits(v))
		}
		fmt.Fprint(h, ";")
	}

	clustered := make([]string, 0, len(snap.Clusters))
	for code := range snap.Clusters {
		clustered = append(clustered, code)
	}
	sort.Strings(clustered)
	for _, code := range clustered {
		fmt.Fprintf(h, "%s=%d;", code, snap.Clusters[code])
	}

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
