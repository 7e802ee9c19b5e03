package game

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Manager keeps one loaded Session per player scope.
type Manager struct {
	mu       sync.Mutex
	deps     Deps
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// Get returns the scope's session, loading it on first use.
func (m *Manager) Get(ctx context.Context, scope string) *Session {
	scope = strings.TrimSpace(scope)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[scope]; ok {
		return s
	}
	s := NewSession(scope, m.deps)
	s.Load(ctx)
	m.sessions[scope] = s
	return s
}

// Peek returns the scope's session only if it is already loaded.
func (m *Manager) Peek(scope string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[strings.TrimSpace(scope)]
	return s, ok
}

// Sessions lists loaded sessions ordered by scope.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].scope < out[j].scope })
	return out
}

// Close stops every session. Later Gets still work but start fresh.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
