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

package lexis

import (
	"log/slog"

	"github.com/poiesic/lexis/ingestion"
	"github.com/poiesic/lexis/storage"
	"github.com/poiesic/lexis/storage/badger"
)

// Store is a persistent chunk store on disk.
type Store struct {
	backend   *badger.Backend
	chunkRepo *badger.ChunkRepository
	logger    *slog.Logger
}

// OpenStore opens or creates the chunk store in the directory at filePath.
func OpenStore(filePath string) (*Store, error) {
	return openStore(filePath, false)
}

// OpenMemoryStore creates a chunk store held entirely in memory.
func OpenMemoryStore() (*Store, error) {
	return openStore("", true)
}

func openStore(filePath string, inMemory bool) (*Store, error) {
	backend, err := badger.OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:   backend,
		chunkRepo: chunkRepo,
		logger:    slog.Default(),
	}, nil
}

// Close releases the repository and closes the backend.
func (s *Store) Close() error {
	if err := s.chunkRepo.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// ChunkRepository returns the store's chunk repository.
func (s *Store) ChunkRepository() storage.ChunkRepository {
	return s.chunkRepo
}

// NewImporter creates an importer writing into the store.
func (s *Store) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	return ingestion.NewImporter(s.chunkRepo, opts...)
}
