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
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lexis/analysis"
)

// Ellipsis is appended to truncated snippets.
const Ellipsis = "..."

// Highlighter wraps matched terms in Open and Close markers.
type Highlighter struct {
	Open  string
	Close string
}

// DefaultHighlighter marks terms with Markdown bold.
var DefaultHighlighter = Highlighter{Open: "**", Close: "**"}

// Highlight marks every case-insensitive occurrence of terms in text using
// DefaultHighlighter.
func Highlight(text string, terms []string) string {
	return DefaultHighlighter.Apply(text, terms)
}

// Apply wraps every case-insensitive occurrence of each term in text with the
// highlighter's markers, preserving the text's original case.
//
// Text is scanned once, left to right. At each position the longest matching
// term wins, so a term that is a substring of another term ("main" inside
// "maintenance") never nests markers inside an already marked span. Empty
// terms are ignored.
func (h Highlighter) Apply(text string, terms []string) string {
	pattern := termPattern(terms)
	if pattern == nil {
		return text
	}
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		return h.Open + match + h.Close
	})
}

// termPattern compiles terms into a case-insensitive alternation ordered
// longest first, ties broken lexicographically. It returns nil when no
// non-empty terms remain.
func termPattern(terms []string) *regexp.Regexp {
	unique := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = analysis.Lower(term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		unique = append(unique, term)
	}
	if len(unique) == 0 {
		return nil
	}

	slices.SortFunc(unique, func(a, b string) int {
		if la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b); la != lb {
			return lb - la
		}
		return strings.Compare(a, b)
	})

	quoted := make([]string, len(unique))
	for i, term := range unique {
		quoted[i] = regexp.QuoteMeta(term)
	}
	return regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
}

// Snippet truncates text to at most maxRunes runes, appending Ellipsis when
// anything was cut. A non-positive maxRunes returns text unchanged.
func Snippet(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := 0
	for i := range text {
		if runes == maxRunes {
			return text[:i] + Ellipsis
		}
		runes++
	}
	return text
}
