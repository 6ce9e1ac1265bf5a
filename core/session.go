package core

import "sync"

// MemorySession is a SessionContext bound to a single browser session.
// Hosts that keep server-side session objects can embed one per session;
// pending state never leaks across instances.
type MemorySession struct {
	mu      sync.Mutex
	pending *PendingRoleAssignment
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) PendingRole() (PendingRoleAssignment, bool) {
	if s == nil {
		return PendingRoleAssignment{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingRoleAssignment{}, false
	}
	return *s.pending, true
}

func (s *MemorySession) SetPendingRole(pending PendingRoleAssignment) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pending = &pending
	s.mu.Unlock()
}

func (s *MemorySession) ClearPendingRole() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

var _ SessionContext = (*MemorySession)(nil)
