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

package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower returns the Unicode lowercase form of s.
// A Caser carries state, so a fresh one is used per call.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// isWordRune reports whether r belongs to a token.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize splits already-lowercased text into word tokens, in order of
// appearance, duplicates included.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}

// Terms lowercases text and returns its unique tokens in order of first
// appearance. Tokens shorter than minLength runes are dropped; a minLength
// below 2 keeps every token.
func Terms(text string, minLength int) []string {
	tokens := Tokenize(Lower(text))
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if minLength > 1 && utf8.RuneCountInString(token) < minLength {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

// TermSet returns the set of unique tokens in already-lowercased text.
func TermSet(lowerText string) map[string]struct{} {
	tokens := Tokenize(lowerText)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Count returns the number of non-overlapping occurrences of term in text.
// Occurrences inside longer words count. An empty term counts as zero.
func Count(text, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(text, term)
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
