// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/coursecompass/coursecompass/internal/catalog"
	"github.com/coursecompass/coursecompass/internal/metrics"
	"github.com/coursecompass/coursecompass/internal/recommend/cluster"
	"github.com/coursecompass/coursecompass/internal/recommend/index"
	"github.com/coursecompass/coursecompass/internal/recommend/prereq"
)

// Embedder turns free text into a fixed-length vector. Satisfied by the
// embedding provider; kept as a local interface so the engine can be tested
// without network access.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Config tunes the recommendation engine.
type Config struct {
	// DefaultMode is used when a request does not name a mode.
	DefaultMode Mode `json:"default_mode"`

	// DefaultLimit is the ranked output length when a request omits one.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps the ranked output length regardless of the request.
	MaxLimit int `json:"max_limit"`

	// MaxCandidates caps the candidate pool size before ranking.
	MaxCandidates int `json:"max_candidates"`

	// CacheTTL is how long a computed response stays servable.
	CacheTTL time.Duration `json:"cache_ttl"`

	// MaxCacheEntries bounds the response cache.
	MaxCacheEntries int `json:"max_cache_entries"`

	// Seed drives serendipity sampling for reproducible runs.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultMode:     ModeAdvanced,
		DefaultLimit:    10,
		MaxLimit:        50,
		MaxCandidates:   200,
		CacheTTL:        5 * time.Minute,
		MaxCacheEntries: 1000,
		Seed:            42, // Default seed for determinism
	}
}

// Candidate pool quotas by source, fractions of MaxCandidates.
const (
	favoriteShare    = 0.40
	interestShare    = 0.30
	levelShare       = 0.20
	serendipityShare = 0.10
)

// cacheEntry is one cached response with its expiry.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// parsedPrereq is a cached prerequisite parse keyed by the raw text it was
// built from, so ingestion refreshes invalidate naturally.
type parsedPrereq struct {
	raw  string
	expr *prereq.Expression
}

// Engine orchestrates candidate generation, prerequisite evaluation,
// multi-factor scoring, and diversity-aware ranking.
type Engine struct {
	cfg      Config
	catalog  *catalog.Store
	index    *index.Index
	embedder Embedder
	logger   zerolog.Logger

	// prereqCache memoizes parsed prerequisite expressions per course.
	prereqMu    sync.RWMutex
	prereqCache map[string]parsedPrereq

	// cache holds computed responses keyed by request fingerprint.
	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	// maintMu serializes index rebuilds and reclustering.
	maintMu sync.Mutex

	// rng drives serendipity sampling.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates a recommendation engine over the given catalog, index,
// and embedding provider.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg Config, store *catalog.Store, idx *index.Index, embedder Embedder, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		catalog:     store,
		index:       idx,
		embedder:    embedder,
		logger:      logger.With().Str("component", "recommend").Logger(),
		prereqCache: make(map[string]parsedPrereq),
		cache:       make(map[string]cacheEntry),
		rng:         rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // sampling, not crypto
	}
}

// Recommend produces a ranked, explained course list for a profile.
// Returns ErrEmptyProfile when the profile has nothing to seed a query with,
// ErrInvalidWeights for bad weight configuration, and ErrNoEligibleCandidates
// only when the index itself is empty.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	req = e.normalizeRequest(req)
	mode := req.Mode

	weights, err := e.resolveWeights(req)
	if err != nil {
		metrics.RecordRecommendation(string(mode), "error", time.Since(start))
		return nil, err
	}

	if req.Profile.IsEmpty() {
		metrics.RecordRecommendation(string(mode), "empty_profile", time.Since(start))
		return nil, ErrEmptyProfile
	}
	if e.index.Len() == 0 {
		metrics.RecordRecommendation(string(mode), "no_candidates", time.Since(start))
		return nil, ErrNoEligibleCandidates
	}

	key := e.cacheKey(req, weights)
	if resp, ok := e.checkCache(key); ok {
		metrics.RecommendCacheHits.Inc()
		metrics.RecordRecommendation(string(mode), "success", time.Since(start))
		return resp, nil
	}
	metrics.RecommendCacheMisses.Inc()

	resp, err := e.compute(ctx, req, weights, start)
	if err != nil {
		metrics.RecordRecommendation(string(mode), "error", time.Since(start))
		return nil, err
	}

	e.storeCache(key, resp)
	metrics.RecordRecommendation(string(mode), "success", time.Since(start))
	return resp, nil
}

// compute runs the full pipeline for a cache miss.
func (e *Engine) compute(ctx context.Context, req Request, weights FactorWeights, start time.Time) (*Response, error) {
	completed := make(map[string]bool, len(req.Profile.Completed))
	for _, code := range req.Profile.Completed {
		completed[code] = true
	}

	pool, warnings, err := e.generateCandidates(ctx, &req.Profile, completed)
	if err != nil {
		return nil, err
	}
	metrics.RecommendCandidatePoolSize.Observe(float64(len(pool)))

	pool = e.evaluateCandidates(pool, completed, req.IncludeMissingPrereqs)

	sctx := e.buildScoringContext(&req.Profile, completed)
	ranked := e.rank(sctx, pool, weights, req.Limit)

	e.logger.Debug().
		Str("mode", string(req.Mode)).
		Int("pool", len(pool)).
		Int("ranked", len(ranked)).
		Dur("took", time.Since(start)).
		Msg("recommendation computed")

	resp := &Response{
		Courses: ranked,
		Metadata: ResponseMetadata{
			Mode:           req.Mode,
			Weights:        weights.ToMap(),
			IndexVersion:   e.index.Version(),
			CandidateCount: len(pool),
			Took:           time.Since(start),
		},
		Warnings: warnings,
	}
	return resp, nil
}

// normalizeRequest fills defaults and canonicalizes profile course codes.
func (e *Engine) normalizeRequest(req Request) Request {
	if req.Mode == "" {
		req.Mode = e.cfg.DefaultMode
	}
	if req.Limit <= 0 {
		req.Limit = e.cfg.DefaultLimit
	}
	if req.Limit > e.cfg.MaxLimit {
		req.Limit = e.cfg.MaxLimit
	}
	req.Profile.Completed = catalog.NormalizeCodes(req.Profile.Completed)
	req.Profile.Favorites = catalog.NormalizeCodes(req.Profile.Favorites)
	return req
}

// resolveWeights picks the weight table for the request's mode, applies
// overrides when the mode allows them, validates, and normalizes.
func (e *Engine) resolveWeights(req Request) (FactorWeights, error) {
	weights, err := WeightsForMode(req.Mode)
	if err != nil {
		return FactorWeights{}, err
	}

	if len(req.WeightOverrides) > 0 {
		if req.Mode != ModeSuperAdvanced {
			return FactorWeights{}, fmt.Errorf("%w: weight overrides require super_advanced mode", ErrInvalidWeights)
		}
		weights, err = weights.WithOverrides(req.WeightOverrides)
		if err != nil {
			return FactorWeights{}, err
		}
	}

	if err := weights.Validate(); err != nil {
		return FactorWeights{}, err
	}
	return weights.Normalize(), nil
}

// generateCandidates builds the candidate pool from four sources with fixed
// quotas: favorite similarity, interest matches, level matches, and
// serendipity picks. Completed courses are excluded, duplicates keep their
// first source.
func (e *Engine) generateCandidates(ctx context.Context, profile *Profile, completed map[string]bool) ([]*candidate, []string, error) {
	var warnings []string

	seeds, seedWarnings := e.collectSeedVectors(ctx, profile)
	warnings = append(warnings, seedWarnings...)

	centroid := meanVector(seeds, e.index.Dimension())
	if centroid == nil {
		warnings = append(warnings, "no usable query seeds, similarity scoring is neutral")
	}

	pool := make([]*candidate, 0, e.cfg.MaxCandidates)
	byCode := make(map[string]*candidate, e.cfg.MaxCandidates)

	add := func(course *catalog.Course, source string) {
		if course == nil || completed[course.Code] {
			return
		}
		if _, ok := byCode[course.Code]; ok {
			return
		}
		if len(pool) >= e.cfg.MaxCandidates {
			return
		}
		c := &candidate{course: course, source: source}
		if centroid != nil && course.Indexable() {
			c.similarity = index.Cosine(centroid, course.Embedding)
		}
		byCode[course.Code] = c
		pool = append(pool, c)
	}

	if centroid != nil {
		quota := int(float64(e.cfg.MaxCandidates) * (favoriteShare + interestShare))
		hits, err := e.queryIndex(centroid, quota+len(completed))
		if err != nil {
			return nil, nil, err
		}
		source := SourceFavorite
		if len(profile.Favorites) == 0 && len(profile.Completed) == 0 {
			source = SourceInterest
		}
		for _, hit := range hits {
			add(e.catalog.Get(hit.ID), source)
		}
	}

	e.addLevelCandidates(profile, add)
	e.addSerendipityCandidates(profile, completed, add)

	return pool, warnings, nil
}

// collectSeedVectors gathers query seeds: embeddings of favorite and
// completed courses when available, otherwise embedded interest text.
// Interests that fail to embed degrade to warnings.
func (e *Engine) collectSeedVectors(ctx context.Context, profile *Profile) ([][]float64, []string) {
	var seeds [][]float64
	var warnings []string

	for _, code := range profile.Favorites {
		if course := e.catalog.Get(code); course != nil && course.Indexable() {
			seeds = append(seeds, course.Embedding)
		} else {
			warnings = append(warnings, fmt.Sprintf("favorite %s has no embedding, skipped as a seed", code))
		}
	}

	if len(seeds) == 0 {
		for _, code := range profile.Completed {
			if course := e.catalog.Get(code); course != nil && course.Indexable() {
				seeds = append(seeds, course.Embedding)
			}
		}
	}

	for _, interest := range profile.Interests {
		if e.embedder == nil {
			warnings = append(warnings, "no embedding provider configured, interests ignored")
			break
		}
		vec, err := e.embedder.Embed(ctx, interest)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("interest %q could not be embedded: %v", interest, err))
			continue
		}
		if len(vec) == e.index.Dimension() {
			seeds = append(seeds, vec)
		}
	}

	return seeds, warnings
}

// queryIndex runs a timed index query.
func (e *Engine) queryIndex(vector []float64, k int) ([]index.Result, error) {
	qStart := time.Now()
	hits, err := e.index.Query(vector, k)
	metrics.RecordIndexQuery(time.Since(qStart))
	return hits, err
}

// addLevelCandidates pulls catalog courses at the profile's year tier.
func (e *Engine) addLevelCandidates(profile *Profile, add func(*catalog.Course, string)) {
	tier := clampInt(profile.Year, 1, 5)
	quota := int(float64(e.cfg.MaxCandidates) * levelShare)

	added := 0
	for _, course := range e.catalog.All() {
		if added >= quota {
			break
		}
		if course.YearTier() == tier && course.Indexable() {
			add(course, SourceLevel)
			added++
		}
	}
}

// addSerendipityCandidates samples courses from topic clusters the profile
// has not touched yet.
func (e *Engine) addSerendipityCandidates(profile *Profile, completed map[string]bool, add func(*catalog.Course, string)) {
	quota := int(float64(e.cfg.MaxCandidates) * serendipityShare)
	if quota == 0 {
		return
	}

	seenClusters := make(map[int]bool)
	for _, code := range profile.Favorites {
		if course := e.catalog.Get(code); course != nil && course.ClusterID >= 0 {
			seenClusters[course.ClusterID] = true
		}
	}
	for code := range completed {
		if course := e.catalog.Get(code); course != nil && course.ClusterID >= 0 {
			seenClusters[course.ClusterID] = true
		}
	}

	var novel []*catalog.Course
	for _, course := range e.catalog.All() {
		if course.Indexable() && course.ClusterID >= 0 && !seenClusters[course.ClusterID] && !completed[course.Code] {
			novel = append(novel, course)
		}
	}
	if len(novel) == 0 {
		return
	}

	e.rngMu.Lock()
	perm := e.rng.Perm(len(novel))
	e.rngMu.Unlock()

	for i := 0; i < len(perm) && i < quota; i++ {
		add(novel[perm[i]], SourceSerendipity)
	}
}

// evaluateCandidates runs the prerequisite evaluator over the pool and drops
// ineligible courses unless the request asked to keep them. A failed parse
// for one candidate degrades that candidate, never the request.
func (e *Engine) evaluateCandidates(pool []*candidate, completed map[string]bool, includeMissing bool) []*candidate {
	kept := pool[:0]
	for _, c := range pool {
		expr := e.parsedPrereqs(c.course)
		c.eval = prereq.Evaluate(expr, completed)
		c.requiredCount = countLiterals(expr)
		if !c.eval.Eligible && !includeMissing {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// parsedPrereqs returns the cached expression for a course, re-parsing when
// the raw text has changed since the cache entry was built.
func (e *Engine) parsedPrereqs(course *catalog.Course) *prereq.Expression {
	e.prereqMu.RLock()
	entry, ok := e.prereqCache[course.Code]
	e.prereqMu.RUnlock()
	if ok && entry.raw == course.Prerequisites {
		return entry.expr
	}

	expr, err := prereq.Parse(course.Prerequisites)
	if err != nil {
		// Last-resort degradation: treat as no prerequisites.
		expr = &prereq.Expression{
			Raw:      course.Prerequisites,
			Warnings: []string{"prerequisite text could not be parsed, assuming none"},
		}
	}

	e.prereqMu.Lock()
	e.prereqCache[course.Code] = parsedPrereq{raw: course.Prerequisites, expr: expr}
	e.prereqMu.Unlock()
	return expr
}

// buildScoringContext derives scoring state from the profile's favorite and
// completed courses.
func (e *Engine) buildScoringContext(profile *Profile, completed map[string]bool) *scoringContext {
	var seen []*catalogCourseRef
	for _, code := range profile.Favorites {
		if course := e.catalog.Get(code); course != nil {
			seen = append(seen, &catalogCourseRef{clusterID: course.ClusterID})
		}
	}
	for code := range completed {
		if course := e.catalog.Get(code); course != nil {
			seen = append(seen, &catalogCourseRef{clusterID: course.ClusterID})
		}
	}
	return newScoringContext(profile, completed, seen)
}

// rank scores the pool and selects the top-K with a greedy diversity pass:
// after each pick the selected course's department is recorded, so the
// diversity factor of later picks reflects what has already been chosen.
// Ties break by course code ascending for determinism.
func (e *Engine) rank(sctx *scoringContext, pool []*candidate, weights FactorWeights, limit int) []ScoredCourse {
	weightMap := weights.ToMap()

	active := make([]Factor, 0, len(allFactors))
	for _, f := range allFactors {
		if weightMap[f.Name()] > 0 {
			active = append(active, f)
		}
	}

	type scored struct {
		cand   *candidate
		scores map[string]float64
		total  float64
	}

	items := make([]*scored, 0, len(pool))
	for _, c := range pool {
		s := &scored{cand: c, scores: make(map[string]float64, len(active))}
		for _, f := range active {
			v := f.Score(sctx, c)
			s.scores[f.Name()] = v
			s.total += weightMap[f.Name()] * v
		}
		items = append(items, s)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].total != items[j].total {
			return items[i].total > items[j].total
		}
		return items[i].cand.course.Code < items[j].cand.course.Code
	})

	divWeight := weightMap[FactorDiversity]
	divFactor := diversityFactor{}

	out := make([]ScoredCourse, 0, limit)
	for len(items) > 0 && len(out) < limit {
		// Re-score the diversity component against actual selections.
		best := 0
		if divWeight > 0 {
			for i, s := range items {
				d := divFactor.Score(sctx, s.cand)
				s.scores[FactorDiversity] = d
				s.total = recompose(s.scores, weightMap)
				if s.total > items[best].total ||
					(s.total == items[best].total && s.cand.course.Code < items[best].cand.course.Code) {
					best = i
				}
			}
		}

		pick := items[best]
		items = append(items[:best], items[best+1:]...)
		sctx.selectedDepartments[pick.cand.course.Department]++

		out = append(out, e.toScoredCourse(pick.cand, pick.scores, pick.total, weightMap))

		if divWeight > 0 {
			sort.Slice(items, func(i, j int) bool {
				if items[i].total != items[j].total {
					return items[i].total > items[j].total
				}
				return items[i].cand.course.Code < items[j].cand.course.Code
			})
		}
	}
	return out
}

// recompose recomputes a weighted composite from a breakdown map. Terms are
// summed in registry order: float addition is not associative, so map-order
// iteration would give tied candidates bit-different totals between runs and
// flip the code-ascending tie break.
func recompose(scores map[string]float64, weights map[string]float64) float64 {
	var total float64
	for _, f := range allFactors {
		if v, ok := scores[f.Name()]; ok {
			total += weights[f.Name()] * v
		}
	}
	return total
}

// toScoredCourse assembles the outward result record for one pick.
func (e *Engine) toScoredCourse(c *candidate, scores map[string]float64, total float64, weights map[string]float64) ScoredCourse {
	return ScoredCourse{
		Code:           c.course.Code,
		Title:          c.course.Title,
		Department:     c.course.Department,
		Level:          c.course.Level,
		Score:          total,
		Scores:         scores,
		Confidence:     confidence(total, scores),
		Reason:         reason(scores, weights),
		Source:         c.source,
		Eligible:       c.eval.Eligible,
		MissingPrereqs: c.eval.Missing,
		Warnings:       c.eval.Warnings,
	}
}

// confidence blends the composite score with factor agreement: high scores
// with low sub-score variance are most trustworthy. Clamped to [0.1, 0.95].
// Sums run in registry order for run-to-run reproducibility.
func confidence(total float64, scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0.1
	}

	values := make([]float64, 0, len(scores))
	for _, f := range allFactors {
		if v, ok := scores[f.Name()]; ok {
			values = append(values, v)
		}
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return clampFloat(0.5+0.5*total-0.1*variance, 0.1, 0.95)
}

// factorDisplayNames humanizes factor names for reasoning strings.
var factorDisplayNames = map[string]string{
	FactorSimilarity:  "topic similarity",
	FactorReadiness:   "prerequisite readiness",
	FactorProgression: "level progression fit",
	FactorSerendipity: "topic novelty",
	FactorDiversity:   "departmental variety",
	FactorDifficulty:  "difficulty fit",
}

// reason names the top two factors by weighted contribution.
func reason(scores map[string]float64, weights map[string]float64) string {
	type contrib struct {
		name  string
		value float64
	}
	contribs := make([]contrib, 0, len(scores))
	for name, v := range scores {
		contribs = append(contribs, contrib{name: name, value: weights[name] * v})
	}
	sort.Slice(contribs, func(i, j int) bool {
		if contribs[i].value != contribs[j].value {
			return contribs[i].value > contribs[j].value
		}
		return contribs[i].name < contribs[j].name
	})

	parts := make([]string, 0, 2)
	for i := 0; i < len(contribs) && i < 2; i++ {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", factorDisplayNames[contribs[i].name], contribs[i].value))
	}
	if len(parts) == 0 {
		return "no scoring factors active"
	}
	return "driven by " + strings.Join(parts, " and ")
}

// countLiterals counts the course-code literals in an expression.
func countLiterals(expr *prereq.Expression) int {
	if expr == nil || expr.Root == nil {
		return 0
	}
	var count func(n *prereq.Node) int
	count = func(n *prereq.Node) int {
		if n.Kind == prereq.KindLiteral {
			return 1
		}
		total := 0
		for _, child := range n.Children {
			total += count(child)
		}
		return total
	}
	return count(expr.Root)
}

// meanVector averages the seed vectors, skipping any with the wrong
// dimension. Returns nil when no usable seeds remain.
func meanVector(seeds [][]float64, dimension int) []float64 {
	mean := make([]float64, dimension)
	used := 0
	for _, s := range seeds {
		if len(s) != dimension {
			continue
		}
		for i, v := range s {
			mean[i] += v
		}
		used++
	}
	if used == 0 {
		return nil
	}
	for i := range mean {
		mean[i] /= float64(used)
	}
	return mean
}

// Similar returns the courses most similar to the given course by embedding,
// excluding the course itself. Returns ErrCourseNotFound when the code is
// unknown or not indexed.
func (e *Engine) Similar(_ context.Context, code string, limit int) ([]SimilarCourse, error) {
	normalized := catalog.NormalizeCode(code)
	course := e.catalog.Get(normalized)
	if course == nil {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, normalized)
	}

	vector, ok := e.index.Vector(normalized)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not indexed", ErrCourseNotFound, normalized)
	}

	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	hits, err := e.queryIndex(vector, limit+1)
	if err != nil {
		return nil, err
	}

	out := make([]SimilarCourse, 0, limit)
	for _, hit := range hits {
		if hit.ID == normalized {
			continue
		}
		hitCourse := e.catalog.Get(hit.ID)
		if hitCourse == nil {
			continue
		}
		out = append(out, SimilarCourse{
			Code:       hitCourse.Code,
			Title:      hitCourse.Title,
			Department: hitCourse.Department,
			Level:      hitCourse.Level,
			Similarity: hit.Similarity,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Eligibility evaluates one course's prerequisites against a completed set
// and suggests an ordering for the missing ones.
func (e *Engine) Eligibility(code string, completedCodes []string) (*EligibilityResult, error) {
	normalized := catalog.NormalizeCode(code)
	course := e.catalog.Get(normalized)
	if course == nil {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, normalized)
	}

	completed := make(map[string]bool, len(completedCodes))
	for _, c := range catalog.NormalizeCodes(completedCodes) {
		completed[c] = true
	}

	expr := e.parsedPrereqs(course)
	eval := prereq.Evaluate(expr, completed)

	return &EligibilityResult{
		Code:          normalized,
		Eligible:      eval.Eligible,
		Missing:       eval.Missing,
		SuggestedPath: prereq.SuggestPath(expr, completed),
		Warnings:      eval.Warnings,
	}, nil
}

// RebuildIndex reloads every indexable course embedding into a fresh index
// generation. Returns immediately with false when a maintenance operation is
// already running.
func (e *Engine) RebuildIndex(_ context.Context) (bool, error) {
	if !e.maintMu.TryLock() {
		return false, nil
	}
	defer e.maintMu.Unlock()

	vectors := make(map[string][]float64, e.catalog.Len())
	for _, course := range e.catalog.All() {
		if course.Indexable() && len(course.Embedding) == e.index.Dimension() {
			vectors[course.Code] = course.Embedding
		}
	}

	if err := e.index.Rebuild(vectors); err != nil {
		return true, fmt.Errorf("rebuilding index: %w", err)
	}

	metrics.RecordIndexRebuild(len(vectors), e.index.Version())
	e.clearCache()

	e.logger.Info().
		Int("vectors", len(vectors)).
		Uint64("generation", e.index.Version()).
		Msg("index rebuilt")
	return true, nil
}

// Recluster refits topic clusters over the indexed embeddings and commits
// the assignment to the catalog. Returns immediately with false when a
// maintenance operation is already running.
func (e *Engine) Recluster(_ context.Context, cfg cluster.Config) (bool, error) {
	if !e.maintMu.TryLock() {
		return false, nil
	}
	defer e.maintMu.Unlock()

	start := time.Now()
	vectors := e.index.Snapshot()

	assignment, err := cluster.Fit(vectors, cfg)
	if err != nil {
		metrics.RecordClusterRun("error", time.Since(start), 0, 0)
		return true, fmt.Errorf("reclustering: %w", err)
	}

	e.catalog.SetClusters(assignment.ByID)
	e.clearCache()
	metrics.RecordClusterRun("success", time.Since(start), assignment.Iterations, assignment.Size())

	e.logger.Info().
		Int("clusters", assignment.Size()).
		Int("iterations", assignment.Iterations).
		Dur("took", time.Since(start)).
		Msg("reclustering committed")
	return true, nil
}

// cacheKey fingerprints everything that affects a response: the normalized
// profile, effective mode, weights, limit, flags, and the index and catalog
// generations.
func (e *Engine) cacheKey(req Request, weights FactorWeights) string {
	favorites := append([]string(nil), req.Profile.Favorites...)
	completed := append([]string(nil), req.Profile.Completed...)
	interests := append([]string(nil), req.Profile.Interests...)
	sort.Strings(favorites)
	sort.Strings(completed)
	sort.Strings(interests)

	keyable := struct {
		Favorites      []string
		Completed      []string
		Interests      []string
		Year           int
		GPA            *float64
		Mode           Mode
		Weights        FactorWeights
		Limit          int
		IncludeMissing bool
		IndexVersion   uint64
		CatalogVersion uint64
	}{
		Favorites:      favorites,
		Completed:      completed,
		Interests:      interests,
		Year:           req.Profile.Year,
		GPA:            req.Profile.GPA,
		Mode:           req.Mode,
		Weights:        weights,
		Limit:          req.Limit,
		IncludeMissing: req.IncludeMissingPrereqs,
		IndexVersion:   e.index.Version(),
		CatalogVersion: e.catalog.Version(),
	}

	raw, err := json.Marshal(keyable)
	if err != nil {
		return fmt.Sprintf("%+v", keyable)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// checkCache returns a copy of a cached response if present and fresh.
func (e *Engine) checkCache(key string) (*Response, bool) {
	e.cacheMu.RLock()
	entry, ok := e.cache[key]
	e.cacheMu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	// Copy so callers cannot mutate the cached response.
	resp := *entry.response
	resp.Courses = append([]ScoredCourse(nil), entry.response.Courses...)
	resp.Metadata.Cached = true
	return &resp, true
}

// storeCache records a response, evicting expired entries when full.
func (e *Engine) storeCache(key string, resp *Response) {
	if e.cfg.CacheTTL <= 0 {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.cfg.MaxCacheEntries {
		e.evictExpiredLocked()
	}
	if len(e.cache) >= e.cfg.MaxCacheEntries {
		// Still full after expiry eviction: drop an arbitrary entry.
		for k := range e.cache {
			delete(e.cache, k)
			break
		}
	}

	e.cache[key] = cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(e.cfg.CacheTTL),
	}
}

// evictExpiredLocked removes expired entries. Caller holds cacheMu.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for k, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, k)
		}
	}
}

// clearCache drops all cached responses after a maintenance operation.
func (e *Engine) clearCache() {
	e.cacheMu.Lock()
	e.cache = make(map[string]cacheEntry)
	e.cacheMu.Unlock()
}
