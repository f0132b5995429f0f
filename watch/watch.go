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

// Package watch reloads a corpus when its source file changes.
//
// CorpusWatcher watches the directory holding the corpus file rather than the
// file itself, so editors and deploy tools that replace the file by rename
// are still observed. Bursts of events are coalesced by a debounce timer
// before the reload function runs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a reload.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrReloadRequired is returned when no reload function is provided.
	ErrReloadRequired = errors.New("reload function required")

	// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
	ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")
)

// ReloadFunc rebuilds state from the corpus file at path.
type ReloadFunc func(ctx context.Context, path string) error

// CorpusWatcher triggers a ReloadFunc after its corpus file changes.
type CorpusWatcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	reloads  atomic.Int64
	failures atomic.Int64
}

// Option configures a CorpusWatcher.
type Option func(*CorpusWatcher) error

// WithDebounce sets the quiet period. Zero reloads on the first event.
func WithDebounce(d time.Duration) Option {
	return func(w *CorpusWatcher) error {
		if d < 0 {
			return fmt.Errorf("debounce must not be negative: %s", d)
		}
		w.debounce = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *CorpusWatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// New creates a watcher for the corpus file at path. Call Run to start it.
func New(path string, reload ReloadFunc, opts ...Option) (*CorpusWatcher, error) {
	if reload == nil {
		return nil, ErrReloadRequired
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving corpus path: %w", err)
	}

	w := &CorpusWatcher{
		path:     abs,
		debounce: DefaultDebounce,
		reload:   reload,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	w.watcher = watcher
	w.logger = w.logger.With("component", "watch", "path", abs)
	return w, nil
}

// Path returns the absolute path of the watched corpus file.
func (w *CorpusWatcher) Path() string {
	return w.path
}

// Reloads returns the number of reloads attempted and how many failed.
func (w *CorpusWatcher) Reloads() (total, failed int64) {
	return w.reloads.Load(), w.failures.Load()
}

// Run processes filesystem events until ctx is done or the watcher is closed.
// Reload failures are logged and do not stop the watcher.
func (w *CorpusWatcher) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("corpus changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.fire(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("filesystem watcher error", "err", err)
		}
	}
}

// Close stops watching. Run returns once the event channels drain.
func (w *CorpusWatcher) Close() error {
	return w.watcher.Close()
}

func (w *CorpusWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *CorpusWatcher) fire(ctx context.Context) {
	w.reloads.Add(1)
	start := time.Now()
	if err := w.reload(ctx, w.path); err != nil {
		w.failures.Add(1)
		w.logger.Error("corpus reload failed, previous index kept", "err", err)
		return
	}
	w.logger.Info("corpus reloaded", "elapsed", time.Since(start))
}
