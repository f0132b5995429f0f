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

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeEmpty    = "empty"
	OutcomeInvalid  = "invalid"
	OutcomeNotReady = "not_ready"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Reload outcomes.
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
)

// Recorder receives search and index events.
type Recorder interface {
	ObserveSearch(policy, outcome string, duration time.Duration, results int)
	SetIndexSize(chunks int)
	RecordReload(outcome string)
}

// Noop is a Recorder that discards everything.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) ObserveSearch(_, _ string, _ time.Duration, _ int) {}
func (Noop) SetIndexSize(_ int)                                {}
func (Noop) RecordReload(_ string)                             {}

// Outcome classifies a finished search.
func Outcome(err error, results int) string {
	switch {
	case err == nil && results > 0:
		return OutcomeHit
	case err == nil:
		return OutcomeEmpty
	case errors.Is(err, core.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, core.ErrState):
		return OutcomeNotReady
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	SearchesTotal  *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
	SearchResults  prometheus.Histogram
	IndexChunks    prometheus.Gauge
	ReloadsTotal   *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them with reg.
// Registering twice on the same registry panics, so create one per registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexis_searches_total",
				Help: "Total number of searches by policy and outcome",
			},
			[]string{"policy", "outcome"},
		),

		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexis_search_duration_seconds",
				Help:    "Duration of searches in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
			},
			[]string{"policy"},
		),

		SearchResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lexis_search_results",
				Help:    "Number of results returned per search",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
			},
		),

		IndexChunks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexis_index_chunks",
				Help: "Number of chunks in the serving index",
			},
		),

		ReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexis_index_reloads_total",
				Help: "Total number of index builds by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveSearch records one finished search.
func (m *Prometheus) ObserveSearch(policy, outcome string, duration time.Duration, results int) {
	m.SearchesTotal.WithLabelValues(policy, outcome).Inc()
	m.SearchDuration.WithLabelValues(policy).Observe(duration.Seconds())
	if outcome == OutcomeHit || outcome == OutcomeEmpty {
		m.SearchResults.Observe(float64(results))
	}
}

// SetIndexSize records the size of the serving index.
func (m *Prometheus) SetIndexSize(chunks int) {
	m.IndexChunks.Set(float64(chunks))
}

// RecordReload records an index build.
func (m *Prometheus) RecordReload(outcome string) {
	m.ReloadsTotal.WithLabelValues(outcome).Inc()
}
