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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/metrics"
	"github.com/poiesic/lexis/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() []*core.Chunk {
	return []*core.Chunk{
		{Id: "1", Text: "Divorce requires 12 months separation.", Page: 5, Chapter: "Divorce", ContentType: "paragraph"},
		{Id: "2", Text: "Property settlement divides assets on divorce.", Page: 12},
		{Id: "3", Text: "Contract formation requires offer and acceptance.", Page: 30},
	}
}

func setupTestServer(t *testing.T, loaded bool) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	lib, err := lexis.New(lexis.WithRecorder(metrics.NewPrometheus(reg)))
	require.NoError(t, err)
	if loaded {
		require.NoError(t, lib.Load(testChunks()))
	}

	server, err := NewServer(lib, session.NewManager(session.ManagerConfig{}), nil, &Config{Gatherer: reg})
	require.NoError(t, err)
	return server, reg
}

func do(t *testing.T, s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewServer(t *testing.T) {
	lib, err := lexis.New()
	require.NoError(t, err)
	sessions := session.NewManager(session.ManagerConfig{})

	t.Run("applies defaults", func(t *testing.T) {
		s, err := NewServer(lib, sessions, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8080", s.config.Addr)
		assert.Equal(t, 5, s.config.DefaultLimit)
		assert.NotNil(t, s.Handler())
	})

	t.Run("requires library", func(t *testing.T) {
		_, err := NewServer(nil, sessions, nil, nil)
		assert.ErrorIs(t, err, ErrLibraryRequired)
	})

	t.Run("requires sessions", func(t *testing.T) {
		_, err := NewServer(lib, nil, nil, nil)
		assert.ErrorIs(t, err, ErrSessionsRequired)
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("not loaded", func(t *testing.T) {
		s, _ := setupTestServer(t, false)
		rec := do(t, s, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[HealthResponse](t, rec)
		assert.Equal(t, "ok", resp.Status)
		assert.False(t, resp.Ready)
	})

	t.Run("loaded", func(t *testing.T) {
		s, _ := setupTestServer(t, true)
		resp := decode[HealthResponse](t, do(t, s, http.MethodGet, "/health", nil))
		assert.True(t, resp.Ready)
		assert.Equal(t, 3, resp.Chunks)
	})
}

func TestHandleSearch(t *testing.T) {
	s, _ := setupTestServer(t, true)

	rec := do(t, s, http.MethodGet, "/api/v1/search?q=divorce&n=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SearchResponse](t, rec)
	assert.Equal(t, "divorce", resp.Query)
	assert.Equal(t, "overlap", resp.Policy)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, rec.Header().Get(HeaderSessionID))
	require.Equal(t, 1, resp.Count)

	result := resp.Results[0]
	assert.Equal(t, 1, result.Rank)
	assert.Equal(t, "1", result.ChunkID)
	assert.Equal(t, 13, result.Score)
	assert.Equal(t, "5", result.Page)
	assert.Equal(t, "Divorce", result.Chapter)
	assert.Equal(t, []string{"divorce"}, result.MatchedTerms)
	assert.Equal(t, "**Divorce** requires 12 months separation.", result.Preview)
}

func TestHandleSearch_PreviewHighlightsMatchedTerms(t *testing.T) {
	s, _ := setupTestServer(t, true)

	resp := decode[SearchResponse](t, do(t, s, http.MethodGet, "/api/v1/search?q=form+requires&n=3", nil))
	require.Equal(t, 2, resp.Count)

	contract := resp.Results[1]
	assert.Equal(t, "3", contract.ChunkID)
	assert.Equal(t, []string{"requires"}, contract.MatchedTerms)
	assert.Equal(t, "Contract formation **requires** offer and acceptance.", contract.Preview)
}

func TestHandleSearch_SessionHistory(t *testing.T) {
	s, _ := setupTestServer(t, true)

	first := do(t, s, http.MethodGet, "/api/v1/search?q=divorce", nil)
	require.Equal(t, http.StatusOK, first.Code)
	id := first.Header().Get(HeaderSessionID)
	require.NotEmpty(t, id)

	header := http.Header{HeaderSessionID: []string{id}}
	second := do(t, s, http.MethodGet, "/api/v1/search?q=contract+offer", header)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, id, second.Header().Get(HeaderSessionID))

	rec := do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[HistoryResponse](t, rec)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "divorce", history.Entries[0].Query)
	assert.Equal(t, 2, history.Entries[0].ResultCount)
	assert.Equal(t, "contract offer", history.Entries[1].Query)
	assert.Equal(t, session.English, history.Language)

	rec = do(t, s, http.MethodDelete, "/api/v1/sessions/"+id+"/history", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	history = decode[HistoryResponse](t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/history", nil))
	assert.Empty(t, history.Entries)
}

func TestHandleSearch_Errors(t *testing.T) {
	loaded, _ := setupTestServer(t, true)
	empty, _ := setupTestServer(t, false)

	tests := []struct {
		name   string
		server *Server
		target string
		header http.Header
		status int
	}{
		{"zero limit", loaded, "/api/v1/search?q=divorce&n=0", nil, http.StatusBadRequest},
		{"non-numeric limit", loaded, "/api/v1/search?q=divorce&n=ten", nil, http.StatusBadRequest},
		{"bad session id", loaded, "/api/v1/search?q=divorce", http.Header{HeaderSessionID: []string{"not-a-uuid"}}, http.StatusBadRequest},
		{"not loaded", empty, "/api/v1/search?q=divorce", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.server, http.MethodGet, tt.target, tt.header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	s, _ := setupTestServer(t, true)
	rec := do(t, s, http.MethodGet, "/api/v1/search?q=++", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SearchResponse](t, rec)
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Results)
}

func TestHandleHistory_NotFound(t *testing.T) {
	s, _ := setupTestServer(t, true)
	id := "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/history", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/v1/sessions/"+id+"/history", nil).Code)
}

func TestHandleStats(t *testing.T) {
	s, _ := setupTestServer(t, true)
	rec := do(t, s, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[StatsResponse](t, rec)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 1, stats.Chapters)
	assert.Len(t, stats.Fingerprint, 32)

	empty, _ := setupTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, empty, http.MethodGet, "/api/v1/stats", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setupTestServer(t, true)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/v1/search?q=divorce", nil).Code)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `lexis_searches_total{outcome="hit",policy="overlap"} 1`), body)
	assert.Contains(t, body, "lexis_index_chunks 3")
}
