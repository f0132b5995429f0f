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

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one query recorded in a session's history.
type Entry struct {
	Query       string    `json:"query"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"result_count"`
	Language    string    `json:"language"`
}

// Session is one user's query history. It is safe for concurrent use.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	entries    []Entry
	language   string
	lastUsed   time.Time
	maxEntries int
}

// New creates a session with a random UUID.
func New() *Session {
	return newSession(uuid.NewString(), 0)
}

func newSession(id string, maxEntries int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		Created:    now,
		language:   English,
		lastUsed:   now,
		maxEntries: maxEntries,
	}
}

// Record appends a query to the history and updates the session language
// from the query text.
func (s *Session) Record(query string, resultCount int) Entry {
	entry := Entry{
		Query:       query,
		Timestamp:   time.Now().UTC(),
		ResultCount: resultCount,
		Language:    DetectLanguage(query),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.entries = append([]Entry(nil), s.entries[len(s.entries)-s.maxEntries:]...)
	}
	s.language = entry.Language
	s.lastUsed = entry.Timestamp
	return entry
}

// Entries returns the history, oldest first.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Recent returns up to k entries, newest first.
func (s *Session) Recent(k int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k <= 0 || k > len(s.entries) {
		k = len(s.entries)
	}
	out := make([]Entry, 0, k)
	for i := len(s.entries) - 1; i >= len(s.entries)-k; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Count returns the number of recorded queries.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear empties the history. The detected language is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.lastUsed = time.Now().UTC()
}

// Language returns the language of the most recent query, English if none.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// LastUsed returns when the session last recorded or cleared history.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now().UTC()
	s.mu.Unlock()
}
