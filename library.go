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
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/corpus"
	"github.com/poiesic/lexis/index"
	"github.com/poiesic/lexis/metrics"
	"github.com/poiesic/lexis/search"
	"github.com/poiesic/lexis/session"
	"github.com/poiesic/lexis/storage"
)

// Library serves searches over the most recently loaded corpus.
// It is safe for concurrent use.
type Library struct {
	idx        atomic.Pointer[index.Index]
	ranker     *search.Ranker
	rankerOpts []search.Option
	indexOpts  []index.Option
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Library.
type Option func(*Library) error

// WithRanker sets the ranker used for every search.
// Takes precedence over WithRankerOptions.
func WithRanker(ranker *search.Ranker) Option {
	return func(l *Library) error {
		l.ranker = ranker
		return nil
	}
}

// WithRankerOptions sets the options used to construct the default ranker.
func WithRankerOptions(opts ...search.Option) Option {
	return func(l *Library) error {
		l.rankerOpts = append(l.rankerOpts, opts...)
		return nil
	}
}

// WithIndexOptions sets the options used whenever an index is built.
func WithIndexOptions(opts ...index.Option) Option {
	return func(l *Library) error {
		l.indexOpts = append(l.indexOpts, opts...)
		return nil
	}
}

// WithRecorder sets the metrics recorder.
// Default is metrics.Noop.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(l *Library) error {
		if recorder == nil {
			recorder = metrics.Noop{}
		}
		l.recorder = recorder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// New creates a library with no corpus loaded. Searches fail with
// core.ErrIndexNotBuilt until a Load succeeds.
func New(opts ...Option) (*Library, error) {
	l := &Library{
		recorder: metrics.Noop{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.ranker == nil {
		rankerOpts := append([]search.Option{search.WithLogger(l.logger)}, l.rankerOpts...)
		ranker, err := search.NewRanker(rankerOpts...)
		if err != nil {
			return nil, err
		}
		l.ranker = ranker
	}

	return l, nil
}

// Load builds an index over chunks and makes it the serving index.
// On failure the previous index keeps serving.
func (l *Library) Load(chunks []*core.Chunk) error {
	opts := append([]index.Option{index.WithLogger(l.logger)}, l.indexOpts...)
	idx, err := index.Build(chunks, opts...)
	if err != nil {
		l.recorder.RecordReload(metrics.ReloadFailure)
		l.logger.Error("error building index", "chunks", len(chunks), "err", err)
		return err
	}

	l.idx.Store(idx)
	l.recorder.RecordReload(metrics.ReloadSuccess)
	l.recorder.SetIndexSize(idx.Len())
	l.logger.Info("index loaded", "chunks", idx.Len(), "fingerprint", idx.Fingerprint())
	return nil
}

// LoadFile decodes the corpus file at path and loads it.
func (l *Library) LoadFile(path string) error {
	chunks, err := corpus.LoadFile(path)
	if err != nil {
		l.recorder.RecordReload(metrics.ReloadFailure)
		l.logger.Error("error loading corpus file", "path", path, "err", err)
		return err
	}
	return l.Load(chunks)
}

// LoadRepository loads every chunk stored in repo.
func (l *Library) LoadRepository(ctx context.Context, repo storage.ChunkRepository) error {
	chunks, err := repo.ListChunks(ctx)
	if err != nil {
		l.recorder.RecordReload(metrics.ReloadFailure)
		l.logger.Error("error reading stored chunks", "err", err)
		return fmt.Errorf("reading stored chunks: %w", err)
	}
	return l.Load(chunks)
}

// Search returns up to n chunks relevant to query, best first.
//
// The scan runs synchronously. A context that is already done, or that
// expires during the scan, yields its error and the results are discarded.
// When sess is non-nil a successful search is appended to its history.
func (l *Library) Search(ctx context.Context, sess *session.Session, query string, n int) ([]*core.ScoredResult, error) {
	return l.SearchWithMonitor(ctx, sess, query, n, nil)
}

// SearchWithMonitor is Search with a monitor receiving ranking callbacks.
func (l *Library) SearchWithMonitor(ctx context.Context, sess *session.Session, query string, n int, monitor search.SearchMonitor) ([]*core.ScoredResult, error) {
	start := time.Now()
	results, err := l.search(ctx, query, n, monitor)
	elapsed := time.Since(start)

	l.recorder.ObserveSearch(l.ranker.Policy().String(), metrics.Outcome(err, len(results)), elapsed, len(results))
	if err != nil {
		l.logger.Debug("search failed", "query", query, "n", n, "err", err)
		return nil, err
	}

	if sess != nil {
		sess.Record(query, len(results))
	}
	return results, nil
}

func (l *Library) search(ctx context.Context, query string, n int, monitor search.SearchMonitor) ([]*core.ScoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results, err := l.ranker.SearchWithMonitor(l.idx.Load(), query, n, monitor)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Index returns the serving index, or nil before the first successful load.
func (l *Library) Index() *index.Index {
	return l.idx.Load()
}

// Ranker returns the library's ranker.
func (l *Library) Ranker() *search.Ranker {
	return l.ranker
}

// Stats returns statistics for the serving index.
func (l *Library) Stats() (index.Stats, error) {
	idx := l.idx.Load()
	if idx == nil {
		return index.Stats{}, core.ErrIndexNotBuilt
	}
	return idx.Stats(), nil
}
