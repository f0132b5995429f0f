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

// Package analysis holds the text primitives shared by the corpus index and the
// ranker: Unicode case folding, word tokenization and substring counting.
//
// A token is a maximal run of word characters: Unicode letters, Unicode
// numbers and the underscore. Everything else separates tokens. Tokenization
// never fails; empty or punctuation-only input yields no tokens.
package analysis
