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

// Package retriever hands search results to answer-generation pipelines.
//
// Retriever implements the langchaingo schema.Retriever interface over a
// lexis.Library, so retrieval chains can use lexical search as their
// document source. ContextBlock renders results as the page-tagged context
// block a prompt embeds.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/session"
	"github.com/tmc/langchaingo/schema"
)

// DefaultTopK is the number of chunks retrieved and rendered by default.
const DefaultTopK = 5

// Metadata keys set on every document.
const (
	MetadataChunkID      = "chunk_id"
	MetadataPage         = "page"
	MetadataChapter      = "chapter"
	MetadataContentType  = "content_type"
	MetadataMatchedTerms = "matched_terms"
)

// ErrLibraryRequired is returned when no library is provided.
var ErrLibraryRequired = errors.New("library required")

// Retriever retrieves relevant chunks as langchaingo documents.
type Retriever struct {
	library *lexis.Library
	topK    int
	session *session.Session
}

var _ schema.Retriever = (*Retriever)(nil)

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets the number of documents returned.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if err := core.ValidateLimit(k); err != nil {
			return err
		}
		r.topK = k
		return nil
	}
}

// WithSession records every retrieval in sess.
func WithSession(sess *session.Session) Option {
	return func(r *Retriever) error {
		r.session = sess
		return nil
	}
}

// New creates a retriever over library.
func New(library *lexis.Library, opts ...Option) (*Retriever, error) {
	if library == nil {
		return nil, ErrLibraryRequired
	}

	r := &Retriever{
		library: library,
		topK:    DefaultTopK,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// GetRelevantDocuments searches the library and converts the hits.
func (r *Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	results, err := r.library.Search(ctx, r.session, query, r.topK)
	if err != nil {
		return nil, err
	}
	return ToDocuments(results), nil
}

// ToDocuments converts ranked results into documents, preserving order.
func ToDocuments(results []*core.ScoredResult) []schema.Document {
	docs := make([]schema.Document, 0, len(results))
	for _, result := range results {
		chunk := result.Chunk
		matched := make([]string, len(result.MatchedTerms))
		copy(matched, result.MatchedTerms)
		docs = append(docs, schema.Document{
			PageContent: chunk.Text,
			Metadata: map[string]any{
				MetadataChunkID:      chunk.Id,
				MetadataPage:         chunk.PageLabel(),
				MetadataChapter:      chunk.ChapterLabel(),
				MetadataContentType:  chunk.ContentTypeLabel(),
				MetadataMatchedTerms: matched,
			},
			Score: float32(result.Score),
		})
	}
	return docs
}

// ContextBlock renders the top k results as "[Page N] text" entries separated
// by blank lines. A non-positive k renders DefaultTopK entries.
func ContextBlock(results []*core.ScoredResult, k int) string {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(results) > k {
		results = results[:k]
	}

	parts := make([]string, len(results))
	for i, result := range results {
		parts[i] = fmt.Sprintf("[Page %s] %s", result.Chunk.PageLabel(), result.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}
