package attempt

import (
	"context"
	"sync"
)

// defaultRetainAttempts bounds the finished-attempt registry.
const defaultRetainAttempts = 10000

// Option applies a configuration option to the Supervisor.
type Option func(*Supervisor)

// WithRetention sets how many attempts the registry keeps before evicting
// the oldest.
func WithRetention(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.retain = n
		}
	}
}

// Supervisor enforces the single-active-attempt-per-session discipline and
// keeps a bounded registry of attempts for later retrieval. A new request
// for a session supersedes the running attempt: the old one is cancelled
// and its completion is never published.
type Supervisor struct {
	mu     sync.Mutex
	active map[string]*Attempt // session id -> running attempt
	byID   map[string]*Attempt
	order  []string // attempt ids, oldest first, for eviction
	retain int
}

// NewSupervisor creates a Supervisor with configuration options.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		active: make(map[string]*Attempt),
		byID:   make(map[string]*Attempt),
		retain: defaultRetainAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin registers a fresh attempt for the session, cancelling any attempt
// still running for it. The returned handle starts in the Idle state.
func (s *Supervisor) Begin(ctx context.Context, sessionID, athleteID, videoRef string, fps float64) *Attempt {
	a := newAttempt(ctx, sessionID, athleteID, videoRef, fps)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.active[sessionID]; ok {
		prev.Cancel()
		prev.Discard()
	}
	s.active[sessionID] = a
	s.byID[a.ID] = a
	s.order = append(s.order, a.ID)
	s.evictLocked()
	return a
}

// Current returns the session's active attempt, if any.
func (s *Supervisor) Current(sessionID string) (*Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.active[sessionID]
	return a, ok
}

// IsCurrent reports whether a is still the session's active attempt. A
// superseded attempt must not publish results.
func (s *Supervisor) IsCurrent(a *Attempt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[a.SessionID] == a
}

// Finish releases the session slot if a is still its active attempt.
func (s *Supervisor) Finish(a *Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[a.SessionID] == a {
		delete(s.active, a.SessionID)
	}
}

// Get returns a registered attempt by id.
func (s *Supervisor) Get(id string) (*Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	return a, ok
}

// Size returns the registry's current size.
func (s *Supervisor) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Supervisor) evictLocked() {
	for len(s.order) > s.retain {
		oldest := s.order[0]
		s.order = s.order[1:]
		if a, ok := s.byID[oldest]; ok {
			a.Cancel()
			a.Discard()
			delete(s.byID, oldest)
		}
	}
}
