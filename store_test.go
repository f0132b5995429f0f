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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	t.Run("create new store", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		store, err := OpenStore(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, store)
		defer store.Close()

		assert.NotNil(t, store.ChunkRepository())
		assert.NotNil(t, store.backend)
		assert.NotNil(t, store.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		store, err := OpenStore(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestStore_Close(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	err = store.Close()
	assert.NoError(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenStore(dir)
	require.NoError(t, err)
	importer, err := store.NewImporter()
	require.NoError(t, err)
	result, err := importer.Import(ctx, scenarioChunks())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenStore(dir)
	require.NoError(t, err)
	defer store.Close()

	fingerprint, err := store.ChunkRepository().Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Fingerprint, fingerprint)

	chunks, err := store.ChunkRepository().ListChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, scenarioChunks(), chunks)
}
