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

package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *ChunkRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func sampleChunks(n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Id:        fmt.Sprintf("c%03d", n-i),
			Seq:       i,
			Text:      fmt.Sprintf("passage %d about custody", i),
			Page:      i + 1,
			Chapter:   "Custody",
			WordCount: 4,
		}
	}
	return chunks
}

func TestChunkRepository_Empty(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	chunks, err := repo.ListChunks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	fingerprint, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", fingerprint)

	_, err = repo.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_ReplaceChunks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := sampleChunks(5)
	require.NoError(t, repo.ReplaceChunks(ctx, "fp-1", first...))

	listed, err := repo.ListChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, listed)

	second := sampleChunks(3)
	second[0].Id = "replacement"
	require.NoError(t, repo.ReplaceChunks(ctx, "fp-2", second...))

	listed, err = repo.ListChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, listed)

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	fingerprint, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fp-2", fingerprint)

	_, err = repo.GetChunk(ctx, "c005")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := repo.GetChunk(ctx, "replacement")
	require.NoError(t, err)
	assert.Equal(t, second[0], got)
}

func TestChunkRepository_AppendChunks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	chunks := sampleChunks(10)
	require.NoError(t, repo.AppendChunks(ctx, chunks[:4]...))
	require.NoError(t, repo.AppendChunks(ctx, chunks[4:]...))

	listed, err := repo.ListChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, listed, "write order is preserved across batches")

	t.Run("duplicate id across batches", func(t *testing.T) {
		err := repo.AppendChunks(ctx, &core.Chunk{Id: chunks[0].Id, Text: "again"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("duplicate id within a batch rolls back", func(t *testing.T) {
		err := repo.AppendChunks(ctx,
			&core.Chunk{Id: "new-1", Text: "one"},
			&core.Chunk{Id: "new-1", Text: "two"},
		)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		_, err = repo.GetChunk(ctx, "new-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("invalid chunk", func(t *testing.T) {
		err := repo.AppendChunks(ctx, &core.Chunk{Id: "blank", Text: " "})
		assert.ErrorIs(t, err, core.ErrEmptyText)
	})

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestChunkRepository_DeleteAll(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceChunks(ctx, "fp", sampleChunks(20)...))
	require.NoError(t, repo.DeleteAll(ctx))

	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	fingerprint, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", fingerprint)

	// Ids are free again after a delete.
	require.NoError(t, repo.AppendChunks(ctx, sampleChunks(2)...))
	count, err = repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChunkRepository_SetFingerprint(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SetFingerprint(ctx, "abc"))
	fingerprint, err := repo.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", fingerprint)
}

func TestChunkRepository_CancelledContext(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.AppendChunks(context.Background(), sampleChunks(3)...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListChunks(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = repo.AppendChunks(ctx, &core.Chunk{Id: "late", Text: "late"})
	assert.ErrorIs(t, err, context.Canceled)
}
