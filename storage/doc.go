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

// Package storage provides the storage abstraction layer for lexis.
//
// This package defines repository interfaces that decouple the chunk store
// from the search engine. Imports write a validated corpus through a
// ChunkRepository; servers and the CLI read it back to build an index without
// re-parsing the source file.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return concrete types that satisfy
// the interfaces here, checked at compile time:
//
//	var _ storage.ChunkRepository = (*ChunkRepository)(nil)
//
// # Usage
//
// Open a repository backed by BadgerDB:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewChunkRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Ordering
//
// Chunks are listed in the order they were written. Source order is
// significant: the ranker breaks score ties by it.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation.
// Long scans check the context between records.
package storage
