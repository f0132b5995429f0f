// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/poiesic/lexis/analysis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/index"
)

// Ranker scores and orders indexed chunks for a query. A Ranker holds no
// per-query state and is safe for concurrent use.
type Ranker struct {
	policy        Policy
	minTermLength int
	minLengthSet  bool
	logger        *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithPolicy sets the scoring policy.
// Default is PolicyOverlap.
func WithPolicy(policy Policy) Option {
	return func(r *Ranker) error {
		parsed, err := ParsePolicy(string(policy))
		if err != nil {
			return err
		}
		r.policy = parsed
		return nil
	}
}

// WithMinTermLength drops query tokens shorter than length runes.
// Default is 3 for PolicyChapter and no minimum for PolicyOverlap.
func WithMinTermLength(length int) Option {
	return func(r *Ranker) error {
		if length < 0 {
			return ErrNegativeTermLength
		}
		r.minTermLength = length
		r.minLengthSet = true
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(opts ...Option) (*Ranker, error) {
	r := &Ranker{
		policy: PolicyOverlap,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Policy returns the ranker's scoring policy.
func (r *Ranker) Policy() Policy {
	return r.policy
}

// Terms returns the unique lowercase query tokens the ranker scores with.
func (r *Ranker) Terms(query string) []string {
	minLength := r.policy.defaultMinTermLength()
	if r.minLengthSet {
		minLength = r.minTermLength
	}
	return analysis.Terms(query, minLength)
}

// Search returns up to n chunks from idx relevant to query, best first.
func (r *Ranker) Search(idx *index.Index, query string, n int) ([]*core.ScoredResult, error) {
	return r.SearchWithMonitor(idx, query, n, nil)
}

// SearchWithMonitor is Search with a monitor that receives callbacks at each
// stage of ranking.
//
// Every chunk with a positive score is a candidate. Candidates are ordered by
// score descending; equal scores keep corpus order. A query with no usable
// tokens yields an empty result, not an error.
func (r *Ranker) SearchWithMonitor(idx *index.Index, query string, n int, monitor SearchMonitor) ([]*core.ScoredResult, error) {
	if err := core.ValidateLimit(n); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, core.ErrIndexNotBuilt
	}

	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query, r.policy)

	terms := r.Terms(query)
	monitor.AfterTokenize(terms)
	if len(terms) == 0 {
		r.logger.Debug("query has no usable terms", "query", query, "policy", r.policy)
		results := []*core.ScoredResult{}
		monitor.Finish(results)
		return results, nil
	}

	phrase := strings.TrimSpace(analysis.Lower(query))
	score := r.policy.scorer()

	results := make([]*core.ScoredResult, 0)
	for _, doc := range idx.Documents() {
		s, matched := score(doc, terms, phrase)
		if s <= 0 {
			continue
		}
		slices.Sort(matched)
		monitor.Scored(doc, s, matched)
		results = append(results, &core.ScoredResult{
			ChunkId:      doc.Chunk.Id,
			Chunk:        doc.Chunk,
			Score:        s,
			MatchedTerms: matched,
		})
	}

	candidates := len(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > n {
		results = results[:n]
	}
	monitor.Finish(results)

	r.logger.Debug("search complete", "query", query, "policy", r.policy,
		"terms", len(terms), "candidates", candidates, "results", len(results))
	return results, nil
}
