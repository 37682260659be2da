package session

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager tracks one Session per peer. Lookups take a read lock only,
// so independent sessions encrypt and decrypt fully in parallel; the
// serialization point is inside each Session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *logrus.Entry
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		log:      logrus.WithField("component", "session-manager"),
	}
}

// Session returns the session for peer, creating an empty one if none
// exists yet.
func (m *Manager) Session(peer string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[peer]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[peer]; ok {
		return s
	}
	s = New(peer)
	m.sessions[peer] = s
	m.log.WithField("peer", peer).Info("session created")
	return s
}

// Lookup returns the session for peer without creating one.
func (m *Manager) Lookup(peer string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[peer]
	return s, ok
}

// Remove cleans up and drops the session for peer.
func (m *Manager) Remove(peer string) {
	m.mu.Lock()
	s, ok := m.sessions[peer]
	delete(m.sessions, peer)
	m.mu.Unlock()

	if ok {
		s.Cleanup()
		m.log.WithField("peer", peer).Info("session removed")
	}
}

// Peers lists peers with a tracked session.
func (m *Manager) Peers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for p := range m.sessions {
		out = append(out, p)
	}
	return out
}
