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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultMaxSessions is the default maximum number of tracked sessions.
	DefaultMaxSessions = 1000

	// DefaultMaxHistory is the default number of entries kept per session.
	DefaultMaxHistory = 100
)

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// MaxSessions caps the number of tracked sessions. When full, the least
	// recently opened session is dropped. Defaults to DefaultMaxSessions.
	MaxSessions int

	// MaxHistory caps the entries kept per session.
	// Defaults to DefaultMaxHistory.
	MaxHistory int
}

// Manager tracks live sessions in memory.
type Manager struct {
	// mu makes the lookup-then-add in Open atomic; the cache locks itself.
	mu         sync.Mutex
	sessions   *lru.Cache[string, *Session]
	maxHistory int
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	// lru.New only fails for a non-positive size.
	sessions, _ := lru.New[string, *Session](maxSessions)
	return &Manager{
		sessions:   sessions,
		maxHistory: maxHistory,
	}
}

// Open returns the session with the given id, creating it when it is not
// tracked. An empty id creates a session with a fresh UUID. The returned bool
// reports whether the session was created.
func (m *Manager) Open(id string) (*Session, bool, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions.Get(id); ok {
		sess.touch()
		return sess, false, nil
	}

	sess := newSession(id, m.maxHistory)
	m.sessions.Add(id, sess)
	return sess, true, nil
}

// Get retrieves a tracked session.
func (m *Manager) Get(id string) (*Session, error) {
	sess, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Delete stops tracking a session.
func (m *Manager) Delete(id string) error {
	if !m.sessions.Remove(id) {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return nil
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Prune drops sessions idle for longer than olderThan.
// Returns the count of dropped sessions.
func (m *Manager) Prune(olderThan time.Duration) int {
	deleted := 0
	for _, id := range m.sessions.Keys() {
		sess, ok := m.sessions.Peek(id)
		if !ok {
			continue
		}
		if time.Since(sess.LastUsed()) > olderThan && m.sessions.Remove(id) {
			deleted++
		}
	}
	return deleted
}
