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

// Package config loads settings for the lexis command line and server.
//
// Precedence, highest first:
//  1. Environment variables prefixed with LEXIS_
//  2. The YAML file passed to Load
//  3. Built-in defaults
//
// Environment variables map onto keys by stripping the prefix and splitting
// on the first underscore:
//
//	LEXIS_SERVER_ADDR            -> server.addr
//	LEXIS_SEARCH_MIN_TERM_LENGTH -> search.min_term_length
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/poiesic/lexis/search"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "LEXIS_"

const maxConfigFileSize = 1024 * 1024

// ErrConfigTooLarge is returned for configuration files over 1MB.
var ErrConfigTooLarge = errors.New("config file too large")

const defaults = `
corpus:
  path: legal_chunks.json
store:
  path: ""
index:
  pool_size: 0
search:
  policy: overlap
  min_term_length: 3
  limit: 5
  timeout: 2s
server:
  addr: 127.0.0.1:8080
  max_sessions: 1000
  max_history: 100
  shutdown_timeout: 10s
watch:
  enabled: false
  debounce: 500ms
log:
  level: warn
`

// Config is the complete lexis configuration.
type Config struct {
	Corpus CorpusConfig `koanf:"corpus"`
	Store  StoreConfig  `koanf:"store"`
	Index  IndexConfig  `koanf:"index"`
	Search SearchConfig `koanf:"search"`
	Server ServerConfig `koanf:"server"`
	Watch  WatchConfig  `koanf:"watch"`
	Log    LogConfig    `koanf:"log"`
}

// CorpusConfig locates the chunk corpus.
type CorpusConfig struct {
	Path string `koanf:"path"`
}

// StoreConfig locates the badger corpus store. Empty means no store.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// IndexConfig tunes index construction.
type IndexConfig struct {
	// PoolSize bounds the tokenizing workers. Zero selects GOMAXPROCS.
	PoolSize int `koanf:"pool_size"`
}

// SearchConfig selects the scoring policy and result limits.
type SearchConfig struct {
	Policy        string        `koanf:"policy"`
	// MinTermLength applies to the chapter policy only.
	MinTermLength int           `koanf:"min_term_length"`
	Limit         int           `koanf:"limit"`
	Timeout       time.Duration `koanf:"timeout"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	MaxSessions     int           `koanf:"max_sessions"`
	MaxHistory      int           `koanf:"max_history"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// WatchConfig controls corpus hot reload.
type WatchConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Debounce time.Duration `koanf:"debounce"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := load(nil, false)
	if err != nil {
		panic(fmt.Sprintf("built-in config defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads the YAML file at path, applies LEXIS_ environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	var content []byte
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		content, err = io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if len(content) > maxConfigFileSize {
			return nil, fmt.Errorf("%w: %s", ErrConfigTooLarge, path)
		}
	}

	cfg, err := load(content, true)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func load(content []byte, withEnv bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaults)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config defaults: %w", err)
	}

	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if withEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// envKey maps LEXIS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, found := strings.Cut(lower, "_")
	if !found {
		return lower
	}
	return section + "." + field
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if _, err := search.ParsePolicy(c.Search.Policy); err != nil {
		return fmt.Errorf("search.policy %q: %w", c.Search.Policy, err)
	}
	if c.Search.MinTermLength < 0 {
		return fmt.Errorf("search.min_term_length must not be negative: %d", c.Search.MinTermLength)
	}
	if c.Search.Limit < 1 {
		return fmt.Errorf("search.limit must be positive: %d", c.Search.Limit)
	}
	if c.Search.Timeout <= 0 {
		return errors.New("search.timeout must be positive")
	}
	if c.Index.PoolSize < 0 {
		return fmt.Errorf("index.pool_size must not be negative: %d", c.Index.PoolSize)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server.max_sessions must be positive: %d", c.Server.MaxSessions)
	}
	if c.Server.MaxHistory < 1 {
		return fmt.Errorf("server.max_history must be positive: %d", c.Server.MaxHistory)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if c.Watch.Debounce < 0 {
		return errors.New("watch.debounce must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}
