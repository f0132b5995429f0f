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

// Package index provides the immutable corpus index that the ranker scans.
//
// An Index is built once from an ordered sequence of chunks. Building
// validates every chunk, rejects duplicate ids and precomputes, per chunk,
// the lowercase text, the lowercase chapter label and the set of lowercase
// word tokens. Source order is preserved; the ranker relies on it for stable
// tie-breaking.
//
// # Thread Safety
//
// An Index is never mutated after Build returns, so any number of goroutines
// may read it concurrently without locking. To pick up a changed corpus, build
// a new Index and swap the reference that new queries see.
package index
