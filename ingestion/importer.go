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
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/corpus"
	"github.com/poiesic/lexis/index"
	"github.com/poiesic/lexis/storage"
)

// Import defaults.
const (
	DefaultBatchSize   = 500
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 100 * time.Millisecond
)

// Result summarises one import.
type Result struct {
	Imported    int    // Chunks written
	Skipped     bool   // True when the stored corpus already matched
	Fingerprint string // Fingerprint of the imported corpus
	Elapsed     time.Duration
}

// Importer writes validated corpora into a chunk repository.
type Importer struct {
	repo           storage.ChunkRepository
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
	progress       io.Writer
	force          bool
	indexOpts      []index.Option
	logger         *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithBatchSize sets the number of chunks written per transaction.
// Default is 500.
func WithBatchSize(size int) Option {
	return func(i *Importer) error {
		if size <= 0 {
			return ErrInvalidBatchSize
		}
		i.batchSize = size
		return nil
	}
}

// WithRetry sets how many times a failed batch write is attempted and the
// initial backoff delay. Default is 3 attempts starting at 100ms.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(i *Importer) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		i.maxAttempts = maxAttempts
		i.retryBaseDelay = baseDelay
		return nil
	}
}

// WithProgress reports progress to w as batches are written.
func WithProgress(w io.Writer) Option {
	return func(i *Importer) error {
		i.progress = w
		return nil
	}
}

// WithForce rewrites the corpus even when the stored fingerprint matches.
func WithForce(force bool) Option {
	return func(i *Importer) error {
		i.force = force
		return nil
	}
}

// WithIndexOptions sets the options used when validating a corpus.
func WithIndexOptions(opts ...index.Option) Option {
	return func(i *Importer) error {
		i.indexOpts = opts
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// NewImporter creates a new importer writing to repo.
func NewImporter(repo storage.ChunkRepository, opts ...Option) (*Importer, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}

	i := &Importer{
		repo:           repo,
		batchSize:      DefaultBatchSize,
		maxAttempts:    DefaultMaxAttempts,
		retryBaseDelay: DefaultRetryDelay,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	return i, nil
}

// ImportFile loads the corpus file at path and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	chunks, err := corpus.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, chunks)
}

// Import validates chunks and writes them to the repository in order,
// replacing whatever corpus was stored before.
func (i *Importer) Import(ctx context.Context, chunks []*core.Chunk) (*Result, error) {
	start := time.Now()

	// Building an index applies every serving-time rule, duplicates included.
	opts := append([]index.Option{index.WithLogger(i.logger)}, i.indexOpts...)
	idx, err := index.Build(chunks, opts...)
	if err != nil {
		return nil, err
	}
	fingerprint := idx.Fingerprint()

	stored, err := i.repo.Fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stored fingerprint: %w", err)
	}
	if stored == fingerprint && !i.force {
		i.logger.Info("corpus unchanged, skipping import", "chunks", len(chunks), "fingerprint", fingerprint)
		return &Result{Skipped: true, Fingerprint: fingerprint, Elapsed: time.Since(start)}, nil
	}

	if err := i.repo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clearing stored corpus: %w", err)
	}

	tracker := NewProgressTracker(i.progress, len(chunks), i.batchSize)
	tracker.Start()

	for lo := 0; lo < len(chunks); lo += i.batchSize {
		hi := min(lo+i.batchSize, len(chunks))
		batch := chunks[lo:hi]
		err := RetryWithBackoff(ctx, i.logger, func() error {
			return i.repo.AppendChunks(ctx, batch...)
		}, i.maxAttempts, i.retryBaseDelay)
		if err != nil {
			i.logger.Error("error writing batch", "from", lo, "to", hi, "err", err)
			return nil, fmt.Errorf("writing chunks %d-%d: %w", lo, hi-1, err)
		}
		tracker.Increment(len(batch))
	}

	if err := i.repo.SetFingerprint(ctx, fingerprint); err != nil {
		return nil, fmt.Errorf("recording fingerprint: %w", err)
	}
	tracker.Finish()

	result := &Result{
		Imported:    len(chunks),
		Fingerprint: fingerprint,
		Elapsed:     time.Since(start),
	}
	i.logger.Info("corpus imported", "chunks", result.Imported, "fingerprint", fingerprint, "elapsed", result.Elapsed)
	return result, nil
}
