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

// Package metrics records search and index activity.
//
// Recorder is the interface the library reports to. Prometheus implements it
// with collectors registered on a caller-supplied registry; Noop discards
// everything and is the default when no recorder is configured.
//
// Metrics:
//   - lexis_searches_total{policy,outcome} - Count of searches by outcome
//   - lexis_search_duration_seconds{policy} - Histogram of search latency
//   - lexis_search_results - Histogram of result list lengths
//   - lexis_index_chunks - Number of chunks in the serving index
//   - lexis_index_reloads_total{outcome} - Count of index builds
package metrics
