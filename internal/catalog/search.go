// CourseCompass - Course Discovery and Recommendation Engine
// Copyright 2026 CourseCompass contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursecompass/coursecompass

package catalog

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is one autocomplete hit.
type Suggestion struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Search provides prefix autocomplete over course codes and title words.
// It maintains a trie per field, rebuilt lazily whenever the catalog
// generation changes, so lookups stay O(m) in the query length.
type Search struct {
	store *Store

	mu      sync.RWMutex
	version uint64
	codes   *trie
	titles  *trie
}

// NewSearch creates a search index over the given catalog store.
func NewSearch(store *Store) *Search {
	return &Search{store: store}
}

// Suggest returns up to limit courses whose code or a title word starts
// with the query, ordered by course code. An empty query returns nil.
func (s *Search) Suggest(query string, limit int) []Suggestion {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	s.refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()

	// A code query like "cs 1" also has to match "CS 135" stored without
	// normalization applied to the query, so probe both forms.
	seen := make(map[string]struct{})
	codes := s.codes.withPrefix(strings.ToLower(NormalizeCode(query)))
	codes = append(codes, s.titles.withPrefix(query)...)

	out := make([]Suggestion, 0, limit)
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, Suggestion{Code: code})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if len(out) > limit {
		out = out[:limit]
	}

	for i := range out {
		if c := s.store.Get(out[i].Code); c != nil {
			out[i].Title = c.Title
		}
	}
	return out
}

// refresh rebuilds the tries when the catalog generation has moved.
func (s *Search) refresh() {
	current := s.store.Version()

	s.mu.RLock()
	upToDate := s.codes != nil && s.version == current
	s.mu.RUnlock()
	if upToDate {
		return
	}

	codes := newTrie()
	titles := newTrie()
	for _, c := range s.store.All() {
		codes.insert(strings.ToLower(c.Code), c.Code)
		for _, word := range strings.Fields(strings.ToLower(c.Title)) {
			titles.insert(word, c.Code)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have rebuilt first; later generation wins.
	if s.codes == nil || s.version < current {
		s.codes = codes
		s.titles = titles
		s.version = current
	}
}

// trie is a prefix tree mapping lowercased keys to course codes. A key may
// map to several codes (title words repeat across courses).
type trie struct {
	children map[rune]*trie
	codes    []string
}

func newTrie() *trie {
	return &trie{children: make(map[rune]*trie)}
}

func (t *trie) insert(key, code string) {
	node := t
	for _, ch := range key {
		child := node.children[ch]
		if child == nil {
			child = newTrie()
			node.children[ch] = child
		}
		node = child
	}
	for _, existing := range node.codes {
		if existing == code {
			return
		}
	}
	node.codes = append(node.codes, code)
}

// withPrefix returns the course codes of every key starting with prefix.
func (t *trie) withPrefix(prefix string) []string {
	node := t
	for _, ch := range prefix {
		node = node.children[ch]
		if node == nil {
			return nil
		}
	}

	var out []string
	node.collect(&out)
	return out
}

func (t *trie) collect(out *[]string) {
	*out = append(*out, t.codes...)
	for _, child := range t.children {
		child.collect(out)
	}
}
