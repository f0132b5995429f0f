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

package retriever

import (
	"context"
	"testing"

	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibrary(t *testing.T) *lexis.Library {
	t.Helper()
	lib, err := lexis.New()
	require.NoError(t, err)
	require.NoError(t, lib.Load([]*core.Chunk{
		{Id: "1", Text: "Divorce requires 12 months separation.", Page: 5, Chapter: "Divorce", ContentType: "paragraph"},
		{Id: "2", Text: "Property settlement divides assets on divorce.", Page: 12},
		{Id: "3", Text: "Contract formation requires offer and acceptance."},
	}))
	return lib
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Equal(t, ErrLibraryRequired, err)

	_, err = New(newLibrary(t), WithTopK(0))
	assert.ErrorIs(t, err, core.ErrInvalidLimit)
}

func TestGetRelevantDocuments(t *testing.T) {
	sess := session.New()
	r, err := New(newLibrary(t), WithTopK(1), WithSession(sess))
	require.NoError(t, err)

	docs, err := r.GetRelevantDocuments(context.Background(), "divorce")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "Divorce requires 12 months separation.", doc.PageContent)
	assert.Equal(t, "1", doc.Metadata[MetadataChunkID])
	assert.Equal(t, "5", doc.Metadata[MetadataPage])
	assert.Equal(t, "Divorce", doc.Metadata[MetadataChapter])
	assert.Equal(t, "paragraph", doc.Metadata[MetadataContentType])
	assert.Equal(t, []string{"divorce"}, doc.Metadata[MetadataMatchedTerms])
	assert.Equal(t, float32(13), doc.Score)

	assert.Equal(t, 1, sess.Count())
}

func TestGetRelevantDocuments_NotLoaded(t *testing.T) {
	lib, err := lexis.New()
	require.NoError(t, err)
	r, err := New(lib)
	require.NoError(t, err)

	_, err = r.GetRelevantDocuments(context.Background(), "divorce")
	assert.ErrorIs(t, err, core.ErrIndexNotBuilt)
}

func TestToDocuments_Defaults(t *testing.T) {
	docs := ToDocuments([]*core.ScoredResult{{
		ChunkId: "3",
		Chunk:   &core.Chunk{Id: "3", Text: "Offer and acceptance"},
		Score:   3,
	}})
	require.Len(t, docs, 1)
	assert.Equal(t, core.UnknownPage, docs[0].Metadata[MetadataPage])
	assert.Equal(t, core.NotAvailable, docs[0].Metadata[MetadataChapter])
	assert.Equal(t, core.NotAvailable, docs[0].Metadata[MetadataContentType])
	assert.Empty(t, ToDocuments(nil))
}

func TestContextBlock(t *testing.T) {
	lib := newLibrary(t)
	results, err := lib.Search(context.Background(), nil, "divorce", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	block := ContextBlock(results, 0)
	assert.Equal(t,
		"[Page 5] Divorce requires 12 months separation.\n\n[Page 12] Property settlement divides assets on divorce.",
		block)

	assert.Equal(t, "[Page 5] Divorce requires 12 months separation.", ContextBlock(results, 1))
	assert.Equal(t, "", ContextBlock(nil, 5))
}
