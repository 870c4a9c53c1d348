// Package stream serves playback requests: it redirects pointer requests
// to candidate stream URLs and runs the per-session failover state
// machine.
package stream

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/strmd/internal/addon"
)

// Session errors.
var (
	// ErrNoCandidates means no addon produced a playable URL.
	ErrNoCandidates = errors.New("no stream available")

	// ErrExhausted means every candidate failed during playback.
	ErrExhausted = errors.New("all stream candidates failed")
)

// State is the failover state of a playback session.
type State int

const (
	// StateStreaming means a candidate was served and the grace timer is
	// running; a failure signal advances to the next candidate.
	StateStreaming State = iota

	// StateStable means the current candidate survived its grace period.
	StateStable

	// StateExhausted is terminal: every candidate failed.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateStable:
		return "stable"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// sessionConfig carries the failover tuning shared by all sessions.
type sessionConfig struct {
	grace            time.Duration
	stability        time.Duration
	resetToPreferred bool
}

// Session is the in-memory failover state for one pointer's playback.
// Candidates never change after creation; only the cursor moves.
type Session struct {
	ID        string
	PointerID int64

	cfg sessionConfig
	log *slog.Logger

	// onExhausted fires once, outside the lock, when the last candidate
	// fails.
	onExhausted func(*Session)

	mu             sync.Mutex
	state          State
	candidates     []addon.Candidate
	current        int
	preferred      int
	graceRunning   bool
	pendingPickup  bool
	graceTimer     *time.Timer
	stabilityTimer *time.Timer
	lastActive     time.Time
	canceled       bool
}

// newSession creates a session in Streaming(0). The caller guarantees at
// least one candidate.
func newSession(pointerID int64, candidates []addon.Candidate, cfg sessionConfig, onExhausted func(*Session), log *slog.Logger) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		PointerID:   pointerID,
		cfg:         cfg,
		onExhausted: onExhausted,
		candidates:  candidates,
		lastActive:  time.Now(),
	}
	s.log = log.With("session_id", s.ID, "pointer_id", pointerID)
	return s
}

// Redirect returns the candidate to serve for one playback request. A
// request arriving while the grace timer is still running counts as a
// failure signal and advances to the next candidate.
func (s *Session) Redirect() (addon.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateExhausted:
		// Retries must not refresh lastActive; a dead session ages out
		// on the normal TTL.
		return addon.Candidate{}, ErrExhausted

	case StateStreaming:
		switch {
		case s.pendingPickup:
			// The request follows an explicit failure report: the
			// player is picking up the candidate Fail switched to.
			s.pendingPickup = false
		case s.graceRunning:
			// Re-request within the grace window: the player gave up
			// on the current candidate.
			if !s.advanceLocked("re-request within grace") {
				return addon.Candidate{}, ErrExhausted
			}
		}

	case StateStable:
		// A fresh playback start serves the preferred candidate and
		// re-enters the grace cycle from there.
		s.current = s.preferred
		s.state = StateStreaming
		s.pendingPickup = false
	}

	s.lastActive = time.Now()
	c := s.candidates[s.current]
	s.startGraceLocked()
	s.log.Debug("redirect", "candidate", s.current, "quality", c.Quality, "source", c.Source)
	return c, nil
}

// Fail handles an explicit playback failure report. While streaming it
// advances to the next candidate; while stable it restarts the grace
// cycle on the currently playing candidate without advancing. The
// returned bool is false when the session is exhausted.
func (s *Session) Fail() (addon.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateExhausted:
		return addon.Candidate{}, false

	case StateStable:
		// One failure after sustained playback is not enough to drop
		// the candidate; trust it again for another grace period.
		s.lastActive = time.Now()
		s.state = StateStreaming
		s.pendingPickup = true
		s.startGraceLocked()
		s.log.Info("failure while stable, restarting grace cycle", "candidate", s.current)
		return s.candidates[s.current], true

	default:
		s.lastActive = time.Now()
		if !s.advanceLocked("failure reported") {
			return addon.Candidate{}, false
		}
		s.pendingPickup = true
		s.startGraceLocked()
		return s.candidates[s.current], true
	}
}

// advanceLocked moves to the next candidate, entering Exhausted when none
// remain. Returns false on exhaustion. Caller holds the lock.
func (s *Session) advanceLocked(reason string) bool {
	s.stopTimersLocked()
	if s.current+1 >= len(s.candidates) {
		s.state = StateExhausted
		s.log.Warn("session exhausted", "candidates", len(s.candidates), "reason", reason)
		if s.onExhausted != nil {
			// Fire outside the lock; the callback touches the store.
			go s.onExhausted(s)
		}
		return false
	}
	s.current++
	s.state = StateStreaming
	s.log.Info("failing over", "candidate", s.current, "reason", reason)
	return true
}

// startGraceLocked (re)arms the grace timer. Caller holds the lock.
func (s *Session) startGraceLocked() {
	s.stopTimersLocked()
	if s.canceled {
		return
	}
	s.graceRunning = true
	s.graceTimer = time.AfterFunc(s.cfg.grace, s.graceElapsed)
}

// graceElapsed promotes the session to Stable after a quiet grace period.
func (s *Session) graceElapsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStreaming || s.canceled {
		return
	}
	s.graceRunning = false
	s.pendingPickup = false
	s.state = StateStable
	// The survivor is the proven candidate until the stability window
	// elapses; earlier candidates already failed this session.
	s.preferred = s.current
	s.stabilityTimer = time.AfterFunc(s.cfg.stability, s.stabilityElapsed)
	s.log.Debug("candidate survived grace period", "candidate", s.current)
}

// stabilityElapsed resets the preferred candidate after sustained
// uninterrupted playback. Playback itself is untouched.
func (s *Session) stabilityElapsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStable || s.canceled {
		return
	}
	if s.cfg.resetToPreferred {
		s.preferred = 0
	} else {
		s.preferred = s.current
	}
	s.log.Debug("stability window elapsed", "preferred", s.preferred)
}

func (s *Session) stopTimersLocked() {
	s.graceRunning = false
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	if s.stabilityTimer != nil {
		s.stabilityTimer.Stop()
		s.stabilityTimer = nil
	}
}

// Cancel stops the session's timers and freezes its state. Used on
// pointer removal, eviction, and shutdown.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = true
	s.stopTimersLocked()
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CandidateCount returns the size of the candidate list.
func (s *Session) CandidateCount() int {
	return len(s.candidates)
}

// idleSince reports the last request or failure signal.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
