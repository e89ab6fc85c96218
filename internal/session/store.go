// Package session holds authenticated identities in memory.
package session

import (
	"sync"

	"schoolleave/internal/model"
)

// State is the lifecycle position of a Store.
type State int

const (
	// StateInitializing means the startup probe has not resolved yet.
	StateInitializing State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Snapshot is a consistent copy of a Store at one instant.
type Snapshot struct {
	State    State
	Identity *model.Identity
}

// Store owns the identity of one session. It performs no I/O and cannot fail;
// validation happens before Login is called.
type Store struct {
	mu       sync.RWMutex
	state    State
	identity *model.Identity
}

// NewStore returns a store that is still initializing.
func NewStore() *Store {
	return &Store{state: StateInitializing}
}

// Resolve ends the startup probe with the identity it found, or nil.
// It has no effect once the store has left the initializing state.
func (s *Store) Resolve(identity *model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitializing {
		return
	}
	if identity == nil {
		s.state = StateUnauthenticated
		return
	}
	id := *identity
	s.identity = &id
	s.state = StateAuthenticated
}

// Login replaces the current identity unconditionally.
func (s *Store) Login(identity model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
	s.state = StateAuthenticated
}

// Logout clears the identity.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.state = StateUnauthenticated
}

// Current returns the identity, if any.
func (s *Store) Current() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// IsInitializing reports whether the startup probe is still pending.
func (s *Store) IsInitializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateInitializing
}

// Snapshot copies state and identity under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{State: s.state}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}
