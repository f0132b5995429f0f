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

package index

import (
	"encoding/hex"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexis/analysis"
	"github.com/poiesic/lexis/core"
)

// batchSize is the number of chunks analysed per pool task.
const batchSize = 64

// Document is the precomputed, read-only view of one chunk.
type Document struct {
	Chunk   *core.Chunk
	Text    string // lowercase text
	Chapter string // lowercase chapter label
	terms   map[string]struct{}
}

// HasTerm reports whether term is one of the chunk's tokens.
func (d *Document) HasTerm(term string) bool {
	_, ok := d.terms[term]
	return ok
}

// TermCount returns the number of distinct tokens in the chunk.
func (d *Document) TermCount() int {
	return len(d.terms)
}

func newDocument(chunk *core.Chunk) *Document {
	text := analysis.Lower(chunk.Text)
	return &Document{
		Chunk:   chunk,
		Text:    text,
		Chapter: analysis.Lower(chunk.Chapter),
		terms:   analysis.TermSet(text),
	}
}

// Stats summarises the indexed corpus.
type Stats struct {
	Chunks       int
	Pages        int // distinct known pages
	Words        int
	Chapters     int // distinct non-empty chapter labels
	ContentTypes map[string]int
}

// Index is an immutable, ordered collection of analysed chunks.
type Index struct {
	docs        []*Document
	byId        map[string]int
	stats       Stats
	fingerprint string
	builtAt     time.Time
}

// Option configures index construction.
type Option func(*builder) error

type builder struct {
	poolSize int
	logger   *slog.Logger
}

// WithPoolSize sets the number of workers used to analyse chunks.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *builder) error {
		if size < 1 {
			size = 1
		}
		b.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// Build validates chunks and returns an index over them. It blocks until every
// chunk has been analysed. The chunks must not be modified afterwards.
func Build(chunks []*core.Chunk, opts ...Option) (*Index, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	b := &builder{
		poolSize: poolSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	byId := make(map[string]int, len(chunks))
	for i, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, fmt.Errorf("chunk at position %d: %w", i, err)
		}
		if prev, dup := byId[chunk.Id]; dup {
			return nil, fmt.Errorf("%w: %q at positions %d and %d", core.ErrDuplicateID, chunk.Id, prev, i)
		}
		byId[chunk.Id] = i
	}

	docs, err := analyse(chunks, b.poolSize)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		docs:        docs,
		byId:        byId,
		stats:       computeStats(chunks),
		fingerprint: Fingerprint(chunks),
		builtAt:     time.Now().UTC(),
	}
	b.logger.Debug("index built", "chunks", len(docs), "workers", b.poolSize,
		"fingerprint", idx.fingerprint, "elapsed", time.Since(start))
	return idx, nil
}

// analyse precomputes documents on a worker pool. Each task writes only its
// own slice positions, so order is preserved without further coordination.
func analyse(chunks []*core.Chunk, poolSize int) ([]*Document, error) {
	docs := make([]*Document, len(chunks))
	if len(chunks) == 0 {
		return docs, nil
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for lo := 0; lo < len(chunks); lo += batchSize {
		hi := min(lo+batchSize, len(chunks))
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				docs[i] = newDocument(chunks[i])
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting analysis task: %w", err)
		}
	}
	wg.Wait()
	return docs, nil
}

func computeStats(chunks []*core.Chunk) Stats {
	pages := make(map[int]struct{})
	chapters := make(map[string]struct{})
	stats := Stats{
		Chunks:       len(chunks),
		ContentTypes: make(map[string]int),
	}
	for _, chunk := range chunks {
		if chunk.Page > 0 {
			pages[chunk.Page] = struct{}{}
		}
		if chunk.Chapter != "" {
			chapters[chunk.Chapter] = struct{}{}
		}
		stats.Words += chunk.WordCount
		stats.ContentTypes[chunk.ContentTypeLabel()]++
	}
	stats.Pages = len(pages)
	stats.Chapters = len(chapters)
	return stats
}

// Fingerprint returns a BLAKE2b digest over the ids and texts of chunks in
// order. Two corpora with the same fingerprint index identically.
func Fingerprint(chunks []*core.Chunk) string {
	h, _ := blake2b.New(16, nil)
	for _, chunk := range chunks {
		h.Write([]byte(chunk.Id))
		h.Write([]byte{0})
		h.Write([]byte(chunk.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Chunks returns the indexed chunks in source order.
// The returned slice is a copy; the chunks themselves must not be modified.
func (idx *Index) Chunks() []*core.Chunk {
	chunks := make([]*core.Chunk, len(idx.docs))
	for i, doc := range idx.docs {
		chunks[i] = doc.Chunk
	}
	return chunks
}

// Documents iterates over the analysed chunks in source order.
func (idx *Index) Documents() iter.Seq2[int, *Document] {
	return func(yield func(int, *Document) bool) {
		for i, doc := range idx.docs {
			if !yield(i, doc) {
				return
			}
		}
	}
}

// Lookup returns the chunk with the given id.
func (idx *Index) Lookup(id string) (*core.Chunk, bool) {
	i, ok := idx.byId[id]
	if !ok {
		return nil, false
	}
	return idx.docs[i].Chunk, true
}

// Stats returns corpus statistics computed at build time.
func (idx *Index) Stats() Stats {
	stats := idx.stats
	stats.ContentTypes = make(map[string]int, len(idx.stats.ContentTypes))
	for k, v := range idx.stats.ContentTypes {
		stats.ContentTypes[k] = v
	}
	return stats
}

// Fingerprint returns the corpus fingerprint.
func (idx *Index) Fingerprint() string {
	return idx.fingerprint
}

// BuiltAt returns when the index finished building.
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}
