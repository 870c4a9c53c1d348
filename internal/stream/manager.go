package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/strmd/internal/addon"
)

// Manager owns the live playback sessions, one per pointer, and evicts
// the ones idle past the TTL.
type Manager struct {
	cfg sessionConfig
	ttl time.Duration
	log *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager creates a session manager.
func NewManager(grace, stability, ttl time.Duration, resetToPreferred bool, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{
		cfg: sessionConfig{
			grace:            grace,
			stability:        stability,
			resetToPreferred: resetToPreferred,
		},
		ttl:      ttl,
		log:      log.With("component", "stream"),
		sessions: make(map[int64]*Session),
	}
}

// Get returns the live session for a pointer, if any.
func (m *Manager) Get(pointerID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[pointerID]
	return s, ok
}

// Create starts a session for a pointer, replacing any existing one.
func (m *Manager) Create(pointerID int64, candidates []addon.Candidate, onExhausted func(*Session)) *Session {
	s := newSession(pointerID, candidates, m.cfg, onExhausted, m.log)

	m.mu.Lock()
	if old, ok := m.sessions[pointerID]; ok {
		old.Cancel()
	}
	m.sessions[pointerID] = s
	m.mu.Unlock()

	m.log.Debug("session created", "session_id", s.ID, "pointer_id", pointerID, "candidates", len(candidates))
	return s
}

// Remove cancels and drops a pointer's session. Used when the pointer is
// deleted.
func (m *Manager) Remove(pointerID int64) {
	m.mu.Lock()
	s, ok := m.sessions[pointerID]
	delete(m.sessions, pointerID)
	m.mu.Unlock()
	if ok {
		s.Cancel()
	}
}

// Run evicts idle sessions until the context is canceled, then cancels
// every remaining session.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.cancelAll()
			return nil
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Cancel()
		m.log.Debug("session evicted", "session_id", s.ID, "pointer_id", s.PointerID)
	}
}

func (m *Manager) cancelAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Cancel()
	}
	m.log.Info("all sessions canceled", "count", len(all))
}
