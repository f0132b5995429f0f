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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/index"
	"github.com/poiesic/lexis/ingestion"
	"github.com/poiesic/lexis/metrics"
	"github.com/poiesic/lexis/retriever"
	"github.com/poiesic/lexis/search"
	"github.com/poiesic/lexis/server"
	"github.com/poiesic/lexis/session"
	"github.com/poiesic/lexis/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:   "import",
		Usage:  "Validate a corpus file and write it into a BadgerDB store",
		Action: importAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "corpus",
				Usage: "Path to chunk corpus JSON file (overrides config)",
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB corpus store (overrides config)",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks written per transaction",
				Value: ingestion.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts per batch write",
				Value: ingestion.DefaultMaxAttempts,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: ingestion.DefaultRetryDelay,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Rewrite the store even when it already holds this corpus",
			},
		},
	}
}

func importAction(c *cli.Context) error {
	cfg := appConfig(c)

	dir := storePath(c, cfg)
	if dir == "" {
		return errors.New("store path is required: set --store or store.path")
	}
	path := corpusPath(c, cfg)

	store, err := lexis.OpenStore(dir)
	if err != nil {
		return fmt.Errorf("failed to open store %s: %w", dir, err)
	}
	defer store.Close()

	importer, err := store.NewImporter(
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithForce(c.Bool("force")),
		ingestion.WithProgress(c.App.ErrWriter),
		ingestion.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Corpus: %s\n", path)
	fmt.Fprintf(c.App.ErrWriter, "Store: %s\n", dir)

	result, err := importer.ImportFile(c.Context, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if result.Skipped {
		fmt.Fprintf(c.App.Writer, "Store already holds corpus %s, nothing to do\n", result.Fingerprint)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Imported %d chunks in %s (fingerprint %s)\n",
		result.Imported, result.Elapsed.Round(time.Millisecond), result.Fingerprint)
	return nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run one query and print ranked results",
		ArgsUsage: "<query>",
		Action:    searchAction,
		Flags: append(sourceFlags(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "Print query terms and per-chunk scores to stderr",
			},
			&cli.BoolFlag{
				Name:  "context",
				Usage: "Print results as a page-tagged context block",
			},
		),
	}
}

func searchAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query is required")
	}

	cfg := appConfig(c)
	limit := cfg.Search.Limit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}

	lib, err := openLibrary(c, nil)
	if err != nil {
		return err
	}

	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = &explainMonitor{w: c.App.ErrWriter}
	}

	ctx, cancel := context.WithTimeout(c.Context, cfg.Search.Timeout)
	defer cancel()

	results, err := lib.SearchWithMonitor(ctx, nil, query, limit, monitor)
	if err != nil {
		return err
	}

	if c.Bool("context") {
		fmt.Fprintln(c.App.Writer, retriever.ContextBlock(results, limit))
		return nil
	}
	renderResults(c.App.Writer, getStyles(c.Bool("no-color")), query, results)
	return nil
}

// explainMonitor prints ranking decisions as they happen.
type explainMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(query string, policy search.Policy) {
	fmt.Fprintf(m.w, "query %q, policy %s\n", query, policy)
}

func (m *explainMonitor) AfterTokenize(terms []string) {
	fmt.Fprintf(m.w, "terms: %s\n", strings.Join(terms, " "))
}

func (m *explainMonitor) Scored(doc *index.Document, score int, matched []string) {
	fmt.Fprintf(m.w, "  %-24s score %3d  matched %s\n", doc.Chunk.Id, score, strings.Join(matched, ","))
}

func (m *explainMonitor) Finish(results []*core.ScoredResult) {
	fmt.Fprintf(m.w, "%d results\n", len(results))
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Print knowledge-base statistics",
		Flags:  sourceFlags(),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	lib, err := openLibrary(c, nil)
	if err != nil {
		return err
	}
	renderStats(c.App.Writer, getStyles(c.Bool("no-color")), lib.Index())
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the JSON search API",
		Action: serveAction,
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the corpus file when it changes (overrides config)",
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "Drop sessions idle for longer than this",
				Value: 30 * time.Minute,
			},
		),
	}
}

func serveAction(c *cli.Context) error {
	cfg := appConfig(c)
	logger := slog.Default()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	lib, err := openLibrary(c, metrics.NewPrometheus(reg))
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.ManagerConfig{
		MaxSessions: cfg.Server.MaxSessions,
		MaxHistory:  cfg.Server.MaxHistory,
	})

	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	srv, err := server.NewServer(lib, sessions, logger, &server.Config{
		Addr:          addr,
		DefaultLimit:  cfg.Search.Limit,
		SearchTimeout: cfg.Search.Timeout,
		Gatherer:      reg,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchEnabled := cfg.Watch.Enabled
	if c.IsSet("watch") {
		watchEnabled = c.Bool("watch")
	}
	if watchEnabled {
		if storePath(c, cfg) != "" {
			logger.Warn("corpus watching is not available when serving from a store")
		} else {
			w, err := watch.New(corpusPath(c, cfg), func(_ context.Context, path string) error {
				return lib.LoadFile(path)
			}, watch.WithDebounce(cfg.Watch.Debounce), watch.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to watch corpus: %w", err)
			}
			defer w.Close()
			go w.Run(ctx)
		}
	}

	go pruneSessions(ctx, sessions, c.Duration("session-ttl"), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func pruneSessions(ctx context.Context, sessions *session.Manager, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(ttl); n > 0 {
				logger.Debug("pruned idle sessions", "count", n)
			}
		}
	}
}
