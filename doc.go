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

// Package lexis is a lexical relevance search engine over a corpus of text
// chunks, such as the passages of a legal handbook.
//
// A Library owns the serving index and the ranker. Load a corpus, then query
// it:
//
//	lib, err := lexis.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := lib.LoadFile("chunks.json"); err != nil {
//	    log.Fatal(err)
//	}
//	results, err := lib.Search(ctx, session.New(), "divorce property", 5)
//
// The index is immutable. Reloading builds a new index and swaps it in
// atomically, so searches never observe a half-built corpus and a failed
// reload leaves the previous index serving.
//
// Store opens the persistent chunk store used by imports and servers.
package lexis
