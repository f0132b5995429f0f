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

package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/poiesic/lexis/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func makeChunks(n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Id:   fmt.Sprintf("chunk-%d", i),
			Seq:  i,
			Text: fmt.Sprintf("Section %d on spousal maintenance", i),
			Page: i/3 + 1,
		}
	}
	return chunks
}

func TestNewImporter(t *testing.T) {
	repo := newRepo(t)

	t.Run("valid configuration", func(t *testing.T) {
		importer, err := NewImporter(repo)
		require.NoError(t, err)
		assert.NotNil(t, importer)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewImporter(nil)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("invalid batch size", func(t *testing.T) {
		_, err := NewImporter(repo, WithBatchSize(0))
		assert.Equal(t, ErrInvalidBatchSize, err)
	})

	t.Run("invalid retry", func(t *testing.T) {
		_, err := NewImporter(repo, WithRetry(0, time.Millisecond))
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		importer, err := NewImporter(repo, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, importer)
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	var progress bytes.Buffer
	importer, err := NewImporter(repo, WithBatchSize(4), WithProgress(&progress))
	require.NoError(t, err)

	chunks := makeChunks(10)
	result, err := importer.Import(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Imported)
	assert.False(t, result.Skipped)
	assert.NotEmpty(t, result.Fingerprint)

	stored, err := repo.ListChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, stored)

	fingerprint, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Fingerprint, fingerprint)

	assert.Contains(t, progress.String(), "10/10 chunks")

	t.Run("unchanged corpus is skipped", func(t *testing.T) {
		again, err := importer.Import(ctx, makeChunks(10))
		require.NoError(t, err)
		assert.True(t, again.Skipped)
		assert.Equal(t, 0, again.Imported)
		assert.Equal(t, result.Fingerprint, again.Fingerprint)
	})

	t.Run("forced import rewrites", func(t *testing.T) {
		forced, err := NewImporter(repo, WithForce(true))
		require.NoError(t, err)
		again, err := forced.Import(ctx, makeChunks(10))
		require.NoError(t, err)
		assert.False(t, again.Skipped)
		assert.Equal(t, 10, again.Imported)

		count, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, count)
	})

	t.Run("changed corpus replaces stored chunks", func(t *testing.T) {
		changed := makeChunks(3)
		changed[1].Text = "Revised section on custody"
		again, err := importer.Import(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Imported)
		assert.NotEqual(t, result.Fingerprint, again.Fingerprint)

		stored, err := repo.ListChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, changed, stored)
	})
}

func TestImport_InvalidCorpus(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	importer, err := NewImporter(repo)
	require.NoError(t, err)

	_, err = importer.Import(ctx, makeChunks(3))
	require.NoError(t, err)

	chunks := makeChunks(3)
	chunks[2].Id = chunks[0].Id
	_, err = importer.Import(ctx, chunks)
	assert.ErrorIs(t, err, core.ErrDuplicateID)

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "a rejected corpus leaves the stored one untouched")
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	importer, err := NewImporter(repo)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chunks.json")
	data := `{"chunks": [
		{"chunk_id": "a", "text": "Divorce requires 12 months separation.", "page_number": 5},
		{"chunk_id": "b", "text": "Property settlement divides assets.", "page_number": 12}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	result, err := importer.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	chunk, err := repo.GetChunk(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 12, chunk.Page)

	_, err = importer.ImportFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// flakyRepository fails the first failures AppendChunks calls.
type flakyRepository struct {
	storage.ChunkRepository
	failures int
	calls    int
}

func (f *flakyRepository) AppendChunks(ctx context.Context, chunks ...*core.Chunk) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient write failure")
	}
	return f.ChunkRepository.AppendChunks(ctx, chunks...)
}

func TestImport_RetriesBatchWrites(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers from transient failures", func(t *testing.T) {
		repo := &flakyRepository{ChunkRepository: newRepo(t), failures: 2}
		importer, err := NewImporter(repo, WithRetry(3, time.Millisecond))
		require.NoError(t, err)

		result, err := importer.Import(ctx, makeChunks(5))
		require.NoError(t, err)
		assert.Equal(t, 5, result.Imported)
		assert.Equal(t, 3, repo.calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		repo := &flakyRepository{ChunkRepository: newRepo(t), failures: 10}
		importer, err := NewImporter(repo, WithRetry(2, time.Millisecond))
		require.NoError(t, err)

		_, err = importer.Import(ctx, makeChunks(5))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "transient write failure")
		assert.Equal(t, 2, repo.calls)

		fingerprint, err := repo.Fingerprint(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", fingerprint, "failed import leaves no fingerprint")
	})
}
