package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixspace/internal/auth"
)

// storedSession is the JSON shape one visitor session is persisted as.
type storedSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id,omitempty"`
	Country      string    `json:"country,omitempty"`
}

// fileStore is an [auth.SessionStore] backed by a JSON file, so tokens
// obtained by `mixspace auth login` are available to later invocations.
// Writes go through to disk immediately.
type fileStore struct {
	path   string
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]storedSession
}

var _ auth.SessionStore = (*fileStore)(nil)

// newFileStore loads the session file at path, starting empty when the file
// does not exist or cannot be parsed.
func newFileStore(path string, logger *log.Logger) *fileStore {
	store := &fileStore{
		path:     path,
		logger:   logger,
		sessions: make(map[string]storedSession),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return store
	}
	if err := json.Unmarshal(data, &store.sessions); err != nil {
		logger.Warn("discarding unreadable session file", "path", path, "err", err)
		store.sessions = make(map[string]storedSession)
	}
	return store
}

func (s *fileStore) Get(key string) (auth.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[key]
	if !ok {
		return auth.Session{}, false
	}
	return auth.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    stored.ExpiresAt,
		UserID:       stored.UserID,
		Country:      stored.Country,
	}, true
}

func (s *fileStore) Put(key string, session auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key] = storedSession{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		UserID:       session.UserID,
		Country:      session.Country,
	}
	s.save()
}

func (s *fileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	s.save()
}

// save writes the session map to disk. Tokens are credentials, hence 0600.
func (s *fileStore) save() {
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		s.logger.Warn("failed to marshal sessions", "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Warn("failed to create session directory", "path", s.path, "err", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		s.logger.Warn("failed to write session file", "path", s.path, "err", err)
	}
}
