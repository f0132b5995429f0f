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

// Package server exposes a Library over a JSON HTTP API.
//
// Routes:
//
//	GET    /health
//	GET    /api/v1/search?q=<query>&n=<limit>
//	GET    /api/v1/sessions/:id/history
//	DELETE /api/v1/sessions/:id/history
//	GET    /api/v1/stats
//	GET    /metrics
//
// Search requests carry their session in the X-Session-ID header. A missing
// header starts a new session; the id in use is always echoed back.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/search"
	"github.com/poiesic/lexis/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HeaderSessionID carries the session id on requests and responses.
const HeaderSessionID = "X-Session-ID"

// PreviewRunes bounds the highlighted preview in search responses.
const PreviewRunes = 400

var (
	// ErrLibraryRequired is returned when no library is provided.
	ErrLibraryRequired = errors.New("library cannot be nil")

	// ErrSessionsRequired is returned when no session manager is provided.
	ErrSessionsRequired = errors.New("session manager cannot be nil")
)

// Config holds HTTP server configuration.
type Config struct {
	Addr string
	// DefaultLimit applies when a search omits n.
	DefaultLimit int
	// SearchTimeout bounds each search.
	SearchTimeout time.Duration
	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

// Server provides HTTP endpoints over a Library.
type Server struct {
	echo     *echo.Echo
	library  *lexis.Library
	sessions *session.Manager
	logger   *slog.Logger
	config   *Config
}

// NewServer creates a new HTTP server. A nil cfg uses defaults and a nil
// logger uses slog.Default.
func NewServer(library *lexis.Library, sessions *session.Manager, logger *slog.Logger, cfg *Config) (*Server, error) {
	if library == nil {
		return nil, ErrLibraryRequired
	}
	if sessions == nil {
		return nil, ErrSessionsRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 2 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			return nil
		}
	})

	s := &Server{
		echo:     e,
		library:  library,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.config.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/search", s.handleSearch)
	v1.GET("/stats", s.handleStats)
	v1.GET("/sessions/:id/history", s.handleHistory)
	v1.DELETE("/sessions/:id/history", s.handleClearHistory)
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	Chunks int    `json:"chunks"`
}

// Result is one ranked hit in a search response.
type Result struct {
	Rank         int      `json:"rank"`
	ChunkID      string   `json:"chunk_id"`
	Score        int      `json:"score"`
	Page         string   `json:"page"`
	Chapter      string   `json:"chapter"`
	ContentType  string   `json:"content_type"`
	MatchedTerms []string `json:"matched_terms"`
	Text         string   `json:"text"`
	Preview      string   `json:"preview"`
}

// SearchResponse is the response body for GET /api/v1/search.
type SearchResponse struct {
	Query     string   `json:"query"`
	Policy    string   `json:"policy"`
	SessionID string   `json:"session_id"`
	Count     int      `json:"count"`
	Results   []Result `json:"results"`
}

// HistoryResponse is the response body for GET /api/v1/sessions/:id/history.
type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Language  string          `json:"language"`
	Entries   []session.Entry `json:"entries"`
}

// StatsResponse is the response body for GET /api/v1/stats.
type StatsResponse struct {
	Chunks       int            `json:"chunks"`
	Pages        int            `json:"pages"`
	Words        int            `json:"words"`
	Chapters     int            `json:"chapters"`
	ContentTypes map[string]int `json:"content_types"`
	Fingerprint  string         `json:"fingerprint"`
	BuiltAt      time.Time      `json:"built_at"`
	Sessions     int            `json:"sessions"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if idx := s.library.Index(); idx != nil {
		resp.Ready = true
		resp.Chunks = idx.Len()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")

	limit := s.config.DefaultLimit
	if raw := c.QueryParam("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid n: %q", raw))
		}
		limit = n
	}

	sess, created, err := s.sessions.Open(c.Request().Header.Get(HeaderSessionID))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if created {
		s.logger.Debug("session created", "session_id", sess.ID)
	}
	c.Response().Header().Set(HeaderSessionID, sess.ID)

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.SearchTimeout)
	defer cancel()

	results, err := s.library.Search(ctx, sess, query, limit)
	if err != nil {
		return searchError(err)
	}

	resp := SearchResponse{
		Query:     query,
		Policy:    s.library.Ranker().Policy().String(),
		SessionID: sess.ID,
		Count:     len(results),
		Results:   make([]Result, len(results)),
	}
	for i, result := range results {
		chunk := result.Chunk
		resp.Results[i] = Result{
			Rank:         i + 1,
			ChunkID:      chunk.Id,
			Score:        result.Score,
			Page:         chunk.PageLabel(),
			Chapter:      chunk.ChapterLabel(),
			ContentType:  chunk.ContentTypeLabel(),
			MatchedTerms: result.MatchedTerms,
			Text:         chunk.Text,
			Preview:      search.Highlight(search.Snippet(chunk.Text, PreviewRunes), result.MatchedTerms),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// searchError maps library errors onto HTTP statuses.
func searchError(err error) error {
	switch {
	case errors.Is(err, core.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrState):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "search timed out")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed").SetInternal(err)
	}
}

func (s *Server) handleHistory(c echo.Context) error {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, HistoryResponse{
		SessionID: sess.ID,
		Language:  sess.Language(),
		Entries:   sess.Entries(),
	})
}

func (s *Server) handleClearHistory(c echo.Context) error {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	sess.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStats(c echo.Context) error {
	idx := s.library.Index()
	if idx == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, core.ErrIndexNotBuilt.Error())
	}
	stats := idx.Stats()
	return c.JSON(http.StatusOK, StatsResponse{
		Chunks:       stats.Chunks,
		Pages:        stats.Pages,
		Words:        stats.Words,
		Chapters:     stats.Chapters,
		ContentTypes: stats.ContentTypes,
		Fingerprint:  idx.Fingerprint(),
		BuiltAt:      idx.BuiltAt(),
		Sessions:     s.sessions.Len(),
	})
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.config.Addr)
	return s.echo.Start(s.config.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
