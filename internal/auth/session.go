// Package auth implements per-platform OAuth2 token management for mixspace.
//
// A [Manager] owns three credential flows for one platform:
//
//  1. client-credentials app tokens, cached with a 60 second safety margin
//  2. authorization-code + PKCE user login (state-bound, single-use verifiers)
//  3. transparent refresh of per-visitor user tokens via [Manager.ValidToken]
//
// Visitor sessions live behind the [SessionStore] interface so the in-memory
// default can be swapped without touching the manager. Refreshes are
// serialized per visitor key; concurrent requests for the same visitor never
// leave the store in a partially written state.
package auth

import (
	"sync"
	"time"
)

// Session holds one visitor's user-level tokens and platform identity fields.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	Country      string
}

// SessionStore is the key-value abstraction the token manager reads and
// writes visitor sessions through. Keys are visitor keys, not user ids.
type SessionStore interface {
	Get(key string) (Session, bool)
	Put(key string, session Session)
	Delete(key string)
}

// MemoryStore is the process-lifetime SessionStore. Sessions are lost on
// restart, which matches the deliberate no-persistence simplification.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Get(key string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *MemoryStore) Put(key string, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = session
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}
