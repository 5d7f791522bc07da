package cache

import (
	"sync"

	"github.com/emberops/burnoutctl/internal/model"
)

// Session is the per-run state scope. It models a browser tab's session
// storage: explicitly constructed, passed by reference to the components
// that need it, and gone when the process exits.
type Session struct {
	mu         sync.Mutex
	handshakes map[model.Provider]*model.Handshake
	locks      map[model.Provider]bool
}

// NewSession creates an empty session scope.
func NewSession() *Session {
	return &Session{
		handshakes: make(map[model.Provider]*model.Handshake),
		locks:      make(map[model.Provider]bool),
	}
}

// PutHandshake records the anti-replay state for an initiated connect flow,
// replacing any previous handshake for the provider.
func (s *Session) PutHandshake(h *model.Handshake) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handshakes[h.Provider] = h
}

// Handshake returns the stored handshake for the provider, or nil.
func (s *Session) Handshake(provider model.Provider) *model.Handshake {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.handshakes[provider]
}

// ConsumeHandshake marks the provider's handshake consumed and removes it.
// Returns the handshake that was present, or nil.
func (s *Session) ConsumeHandshake(provider model.Provider) *model.Handshake {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handshakes[provider]
	if h != nil {
		h.Consumed = true
		delete(s.handshakes, provider)
	}

	return h
}

// TryLockCallback acquires the callback reentrancy lock for the provider.
// Returns false if another callback invocation already holds it.
func (s *Session) TryLockCallback(provider model.Provider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[provider] {
		return false
	}

	s.locks[provider] = true

	return true
}

// UnlockCallback releases the callback reentrancy lock. Safe to call on an
// unheld lock.
func (s *Session) UnlockCallback(provider model.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, provider)
}
