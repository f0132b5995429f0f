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
	"fmt"
	"strings"

	"github.com/poiesic/lexis/analysis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/index"
)

// Policy selects how chunks are scored against a query.
type Policy string

const (
	// PolicyOverlap rewards a verbatim phrase match, the number of query
	// tokens present in the chunk and how often each of them occurs.
	PolicyOverlap Policy = "overlap"

	// PolicyChapter counts keyword occurrences in the chunk body and in its
	// chapter label, with chapter hits weighted higher.
	PolicyChapter Policy = "chapter"
)

const (
	phraseBonus       = 10
	overlapWeight     = 2
	bodyWeight        = 2
	chapterWeight     = 3
	chapterMinTermLen = 3
)

// ParsePolicy maps a policy name to a Policy. Matching is case-insensitive and
// accepts the short aliases "a" and "b".
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "overlap", "term-overlap", "a":
		return PolicyOverlap, nil
	case "chapter", "chapter-weighted", "b":
		return PolicyChapter, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidPolicy, name)
}

// String returns the policy name.
func (p Policy) String() string {
	return string(p)
}

// defaultMinTermLength is the minimum token length each policy applies when
// none is configured.
func (p Policy) defaultMinTermLength() int {
	if p == PolicyChapter {
		return chapterMinTermLen
	}
	return 0
}

// scoreFunc scores one document. terms are the unique lowercase query tokens
// and phrase is the trimmed lowercase query. It returns the score and the
// matched terms in query order.
type scoreFunc func(doc *index.Document, terms []string, phrase string) (int, []string)

func (p Policy) scorer() scoreFunc {
	if p == PolicyChapter {
		return scoreChapter
	}
	return scoreOverlap
}

func scoreOverlap(doc *index.Document, terms []string, phrase string) (int, []string) {
	score := 0
	if phrase != "" && strings.Contains(doc.Text, phrase) {
		score += phraseBonus
	}

	var matched []string
	for _, term := range terms {
		if doc.HasTerm(term) {
			matched = append(matched, term)
		}
	}
	score += overlapWeight * len(matched)
	for _, term := range matched {
		score += analysis.Count(doc.Text, term)
	}
	return score, matched
}

func scoreChapter(doc *index.Document, terms []string, _ string) (int, []string) {
	score := 0
	var matched []string
	for _, term := range terms {
		body := analysis.Count(doc.Text, term)
		chapter := analysis.Count(doc.Chapter, term)
		if body+chapter == 0 {
			continue
		}
		score += bodyWeight*body + chapterWeight*chapter
		matched = append(matched, term)
	}
	return score, matched
}
