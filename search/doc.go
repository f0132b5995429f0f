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

// Package search ranks corpus chunks against free-text queries.
//
// The Ranker scans an immutable index.Index linearly and scores every chunk
// with one of two lexical policies:
//   - PolicyOverlap: phrase bonus, token overlap and substring frequency
//   - PolicyChapter: keyword frequency in the body and, weighted higher, in
//     the chapter label
//
// Results are sorted by score, highest first, with ties kept in corpus order,
// and truncated to the requested limit. Highlight and Snippet prepare matched
// text for display.
package search
