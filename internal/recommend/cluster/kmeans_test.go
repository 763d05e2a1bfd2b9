// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package cluster

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Clusters != 50 {
		t.Errorf("expected 50 clusters, got %d", cfg.Clusters)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Seed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid", modify: func(*Config) {}, wantErr: false},
		{name: "zero clusters", modify: func(c *Config) { c.Clusters = 0 }, wantErr: true},
		{name: "negative clusters", modify: func(c *Config) { c.Clusters = -1 }, wantErr: true},
		{name: "zero iterations", modify: func(c *Config) { c.MaxIterations = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFit_InsufficientData(t *testing.T) {
	t.Parallel()

	vectors := map[string][]float64{
		"CS 135": {1, 0},
		"CS 136": {0, 1},
	}
	cfg := DefaultConfig()
	cfg.Clusters = 3

	_, err := Fit(vectors, cfg)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestFit_SeparatesObviousClusters(t *testing.T) {
	t.Parallel()

	// Two tight groups far apart.
	vectors := map[string][]float64{
		"CS 135":   {0.0, 0.1},
		"CS 136":   {0.1, 0.0},
		"CS 240":   {0.05, 0.05},
		"MUSIC 140": {10.0, 10.1},
		"MUSIC 245": {10.1, 10.0},
	}
	cfg := DefaultConfig()
	cfg.Clusters = 2

	a, err := Fit(vectors, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if a.ByID["CS 135"] != a.ByID["CS 136"] || a.ByID["CS 135"] != a.ByID["CS 240"] {
		t.Error("expected all CS vectors in one cluster")
	}
	if a.ByID["MUSIC 140"] != a.ByID["MUSIC 245"] {
		t.Error("expected both MUSIC vectors in one cluster")
	}
	if a.ByID["CS 135"] == a.ByID["MUSIC 140"] {
		t.Error("expected CS and MUSIC groups in different clusters")
	}
}

func TestFit_Deterministic(t *testing.T) {
	t.Parallel()

	vectors := make(map[string][]float64, 60)
	for i := 0; i < 60; i++ {
		vectors[fmt.Sprintf("CS %03d", i+100)] = []float64{float64(i % 7), float64(i % 11), float64(i % 13)}
	}
	cfg := DefaultConfig()
	cfg.Clusters = 5

	a1, err := Fit(vectors, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	a2, err := Fit(vectors, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if !reflect.DeepEqual(a1.ByID, a2.ByID) {
		t.Error("expected identical assignments for identical input and seed")
	}
	if !reflect.DeepEqual(a1.Centroids, a2.Centroids) {
		t.Error("expected identical centroids for identical input and seed")
	}
}

func TestFit_RespectsIterationCap(t *testing.T) {
	t.Parallel()

	vectors := make(map[string][]float64, 30)
	for i := 0; i < 30; i++ {
		vectors[fmt.Sprintf("CS %03d", i+100)] = []float64{float64(i), float64(30 - i)}
	}
	cfg := DefaultConfig()
	cfg.Clusters = 4
	cfg.MaxIterations = 2

	a, err := Fit(vectors, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if a.Iterations > cfg.MaxIterations {
		t.Errorf("iterations %d exceeded cap %d", a.Iterations, cfg.MaxIterations)
	}
}

func TestFit_InconsistentDimensions(t *testing.T) {
	t.Parallel()

	vectors := map[string][]float64{
		"CS 135": {1, 0},
		"CS 136": {0, 1, 2},
	}
	cfg := DefaultConfig()
	cfg.Clusters = 1

	if _, err := Fit(vectors, cfg); err == nil {
		t.Fatal("expected error for inconsistent vector dimensions")
	}
}

func TestFit_LabelsInRange(t *testing.T) {
	t.Parallel()

	vectors := make(map[string][]float64, 20)
	for i := 0; i < 20; i++ {
		vectors[fmt.Sprintf("STAT %03d", i+200)] = []float64{float64(i * i), float64(i)}
	}
	cfg := DefaultConfig()
	cfg.Clusters = 6

	a, err := Fit(vectors, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(a.ByID) != len(vectors) {
		t.Fatalf("expected %d assignments, got %d", len(vectors), len(a.ByID))
	}
	for id, l := range a.ByID {
		if l < 0 || l >= cfg.Clusters {
			t.Errorf("item %s has out-of-range label %d", id, l)
		}
	}
	if a.Size() != cfg.Clusters {
		t.Errorf("expected %d centroids, got %d", cfg.Clusters, a.Size())
	}
}

func TestAssignment_ClusterMembersSorted(t *testing.T) {
	t.Parallel()

	a := &Assignment{
		ByID: map[string]int{
			"STAT 230": 0,
			"CS 135":   0,
			"MATH 137": 1,
		},
		Centroids: [][]float64{{0}, {1}},
	}

	members := a.Cluster(0)
	want := []string{"CS 135", "STAT 230"}
	if !reflect.DeepEqual(members, want) {
		t.Errorf("expected %v, got %v", want, members)
	}

	if got := a.Cluster(1); !reflect.DeepEqual(got, []string{"MATH 137"}) {
		t.Errorf("expected [MATH 137], got %v", got)
	}
}
