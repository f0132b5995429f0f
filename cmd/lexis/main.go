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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/config"
	"github.com/poiesic/lexis/index"
	"github.com/poiesic/lexis/metrics"
	"github.com/poiesic/lexis/search"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lexis",
		Usage: "Keyword relevance search over legal reference text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides config",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable styled output",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			importCommand(),
			searchCommand(),
			replCommand(),
			statsCommand(),
			serveCommand(),
		},
	}
}

// sourceFlags select where the corpus is read from and how it is ranked.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "corpus",
			Usage: "Path to chunk corpus JSON file (overrides config)",
		},
		&cli.StringFlag{
			Name:    "store",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB corpus store; takes precedence over --corpus",
		},
		&cli.StringFlag{
			Name:    "policy",
			Aliases: []string{"p"},
			Usage:   "Scoring policy: overlap or chapter (overrides config)",
		},
		&cli.IntFlag{
			Name:  "min-term-length",
			Usage: "Minimum query term length for the chapter policy (overrides config)",
			Value: -1,
		},
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg

	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	return setupLogger(level)
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func setupLogger(levelStr string) error {
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// rankerOptions merges the config with command line overrides.
func rankerOptions(c *cli.Context, cfg *config.Config) []search.Option {
	policy := cfg.Search.Policy
	if c.IsSet("policy") {
		policy = c.String("policy")
	}
	minLength := cfg.Search.MinTermLength
	if c.IsSet("min-term-length") {
		minLength = c.Int("min-term-length")
	}
	opts := []search.Option{search.WithPolicy(search.Policy(policy))}
	// The minimum length only filters chapter queries; overlap keeps every token.
	if p, err := search.ParsePolicy(policy); err == nil && p == search.PolicyChapter {
		opts = append(opts, search.WithMinTermLength(minLength))
	}
	return opts
}

func corpusPath(c *cli.Context, cfg *config.Config) string {
	if c.IsSet("corpus") {
		return c.String("corpus")
	}
	return cfg.Corpus.Path
}

func storePath(c *cli.Context, cfg *config.Config) string {
	if c.IsSet("store") {
		return c.String("store")
	}
	return cfg.Store.Path
}

// openLibrary builds a library and loads it from the store when one is
// configured, otherwise from the corpus file.
func openLibrary(c *cli.Context, recorder metrics.Recorder) (*lexis.Library, error) {
	cfg := appConfig(c)

	opts := []lexis.Option{
		lexis.WithRankerOptions(rankerOptions(c, cfg)...),
		lexis.WithLogger(slog.Default()),
	}
	if cfg.Index.PoolSize > 0 {
		opts = append(opts, lexis.WithIndexOptions(index.WithPoolSize(cfg.Index.PoolSize)))
	}
	if recorder != nil {
		opts = append(opts, lexis.WithRecorder(recorder))
	}

	lib, err := lexis.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create library: %w", err)
	}

	if dir := storePath(c, cfg); dir != "" {
		store, err := lexis.OpenStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open store %s: %w", dir, err)
		}
		defer store.Close()
		if err := lib.LoadRepository(context.Background(), store.ChunkRepository()); err != nil {
			return nil, fmt.Errorf("failed to load store %s: %w", dir, err)
		}
		return lib, nil
	}

	path := corpusPath(c, cfg)
	if err := lib.LoadFile(path); err != nil {
		return nil, fmt.Errorf("failed to load corpus %s: %w", path, err)
	}
	return lib, nil
}
