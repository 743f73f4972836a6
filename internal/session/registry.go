// Package session holds the in-memory per-user state that must not live in
// the database: the in-flight check flag and the pending OTP login phone.
// Sessions are created lazily and never destroyed; the population is
// bounded by the configured user allow-list.
package session

import (
	"sync"
	"sync/atomic"
)

// Session is the volatile state for one user.
type Session struct {
	userID   int64
	inFlight atomic.Bool

	mu           sync.Mutex
	pendingPhone string
}

// UserID returns the owner of this session.
func (s *Session) UserID() int64 { return s.userID }

// TryAcquire attempts to mark a check run in flight. It returns false when
// a run is already active; the caller must then drop the trigger.
func (s *Session) TryAcquire() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// Release clears the in-flight flag.
func (s *Session) Release() {
	s.inFlight.Store(false)
}

// InFlight reports whether a check run is currently active.
func (s *Session) InFlight() bool { return s.inFlight.Load() }

// SetPendingLogin stores the phone number awaiting OTP confirmation.
func (s *Session) SetPendingLogin(phone string) {
	s.mu.Lock()
	s.pendingPhone = phone
	s.mu.Unlock()
}

// TakePendingLogin returns and clears the phone awaiting OTP confirmation.
// The second return is false when no login was pending.
func (s *Session) TakePendingLogin() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	phone := s.pendingPhone
	s.pendingPhone = ""
	return phone, phone != ""
}

// Registry maps user IDs to sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Get returns the session for userID, creating it on first use.
func (r *Registry) Get(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		s = &Session{userID: userID}
		r.sessions[userID] = s
	}
	return s
}
