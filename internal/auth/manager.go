package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/shared"
	"golang.org/x/oauth2"
)

// Token endpoints for the platforms mixspace federates.
var (
	SpotifyEndpoint = oauth2.Endpoint{
		AuthURL:  "https://accounts.spotify.com/authorize",
		TokenURL: "https://accounts.spotify.com/api/token",
	}
	TidalEndpoint = oauth2.Endpoint{
		AuthURL:  "https://login.tidal.com/authorize",
		TokenURL: "https://auth.tidal.com/v1/oauth2/token",
	}
)

// SpotifyScopes cover reading the user's playlists and library.
var SpotifyScopes = []string{
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
	"user-read-private",
	"user-read-email",
}

// TidalScopes use the current developer portal scope names (the legacy
// r_usr/w_usr set triggers error 1002).
var TidalScopes = []string{"user.read", "playlists.read", "collection.read"}

// expiryMargin is subtracted from token lifetimes when deciding whether a
// cached token is still usable.
const expiryMargin = 60 * time.Second

// pkceLogin binds a generated verifier to the visitor who started the login.
type pkceLogin struct {
	verifier   string
	visitorKey string
}

// Manager obtains and keeps fresh the tokens for a single platform.
type Manager struct {
	config     *oauth2.Config
	store      SessionStore
	httpClient *http.Client
	logger     *log.Logger

	mu        sync.Mutex
	verifiers map[string]pkceLogin
	refreshes map[string]*sync.Mutex

	clientToken  string
	clientExpiry time.Time
}

// NewManager creates a token manager for one platform.
func NewManager(creds shared.OAuthClientConfig, endpoint oauth2.Endpoint, scopes []string, store SessionStore, logger *log.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Manager{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		store:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		verifiers:  make(map[string]pkceLogin),
		refreshes:  make(map[string]*sync.Mutex),
	}
}

// Configured reports whether a client id/secret pair is present.
func (m *Manager) Configured() bool {
	return m.config.ClientID != "" && m.config.ClientSecret != ""
}

// Store exposes the injected session store.
func (m *Manager) Store() SessionStore {
	return m.store
}

// LoginURL generates an authorization URL with a fresh PKCE challenge.
//
// The verifier is held under the returned state token and consumed exactly
// once by [Manager.Exchange].
func (m *Manager) LoginURL(visitorKey string) (string, string, error) {
	if m.config.ClientID == "" {
		return "", "", fmt.Errorf("%w: client id not configured", shared.ErrMissingCredentials)
	}

	verifier := oauth2.GenerateVerifier()
	state := shared.GenerateID()

	m.mu.Lock()
	m.verifiers[state] = pkceLogin{verifier: verifier, visitorKey: visitorKey}
	m.mu.Unlock()

	authURL := m.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, state, nil
}

// Exchange performs the one-shot PKCE code exchange for the given state.
//
// Consuming the code deletes the stored verifier. An unknown state yields
// [shared.ErrInvalidState]; the caller should ask the user to restart login.
// The resulting session is stored under the visitor key captured at
// login-URL time and returned along with that key.
func (m *Manager) Exchange(ctx context.Context, code, state, redirectURI string) (Session, string, error) {
	m.mu.Lock()
	login, ok := m.verifiers[state]
	delete(m.verifiers, state)
	m.mu.Unlock()

	if !ok {
		return Session{}, "", shared.ErrInvalidState
	}

	config := m.config
	if redirectURI != "" && redirectURI != config.RedirectURL {
		clone := *m.config
		clone.RedirectURL = redirectURI
		config = &clone
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	token, err := config.Exchange(ctx, code, oauth2.VerifierOption(login.verifier))
	if err != nil {
		return Session{}, "", fmt.Errorf("token exchange failed: %w", err)
	}

	session := Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	// Tidal includes the numeric account id in its token response; the
	// playlists endpoint is keyed by it.
	switch uid := token.Extra("user_id").(type) {
	case string:
		session.UserID = uid
	case float64:
		session.UserID = fmt.Sprintf("%.0f", uid)
	}

	key := login.visitorKey
	if key == "" {
		key = "default"
	}
	m.store.Put(key, session)

	return session, key, nil
}

// ValidToken returns a usable user-level access token for the visitor,
// refreshing transparently when the stored token is within 60 seconds of
// expiry. A failed refresh evicts the session and reports not-authenticated
// rather than a hard error.
func (m *Manager) ValidToken(ctx context.Context, visitorKey string) (string, bool) {
	session, ok := m.store.Get(visitorKey)
	if !ok {
		return "", false
	}

	if time.Now().Before(session.ExpiresAt.Add(-expiryMargin)) {
		return session.AccessToken, true
	}

	lock := m.refreshLock(visitorKey)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have refreshed while this one waited.
	if session, ok = m.store.Get(visitorKey); !ok {
		return "", false
	}
	if time.Now().Before(session.ExpiresAt.Add(-expiryMargin)) {
		return session.AccessToken, true
	}

	if session.RefreshToken == "" {
		m.store.Delete(visitorKey)
		m.dropRefreshLock(visitorKey)
		return "", false
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	source := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: session.RefreshToken})
	token, err := source.Token()
	if err != nil {
		m.logger.Warn("evicting session", "visitor", visitorKey, "err", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err))
		m.store.Delete(visitorKey)
		m.dropRefreshLock(visitorKey)
		return "", false
	}

	session.AccessToken = token.AccessToken
	session.ExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		session.RefreshToken = token.RefreshToken
	}
	m.store.Put(visitorKey, session)

	return session.AccessToken, true
}

// Logout evicts the visitor's stored session.
func (m *Manager) Logout(visitorKey string) {
	m.store.Delete(visitorKey)
	m.dropRefreshLock(visitorKey)
}

// ClientToken returns a cached app-level token, performing a Basic-authenticated
// client-credentials grant when the cache is empty or within the expiry margin.
func (m *Manager) ClientToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.clientToken != "" && time.Now().Before(m.clientExpiry) {
		token := m.clientToken
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	if !m.Configured() {
		return "", fmt.Errorf("%w: client credentials not configured", shared.ErrMissingCredentials)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(m.config.ClientID, m.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token endpoint returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	m.mu.Lock()
	m.clientToken = payload.AccessToken
	m.clientExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - expiryMargin)
	m.mu.Unlock()

	return payload.AccessToken, nil
}

// SetTokenURL overrides the token endpoint. Test hook.
func (m *Manager) SetTokenURL(tokenURL string) {
	m.config.Endpoint.TokenURL = tokenURL
}

func (m *Manager) refreshLock(visitorKey string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.refreshes[visitorKey]
	if !ok {
		lock = &sync.Mutex{}
		m.refreshes[visitorKey] = lock
	}
	return lock
}

// dropRefreshLock forgets a visitor's refresh lock so the map does not grow
// with evicted sessions. Goroutines already waiting on the old lock still
// proceed; they re-read the store and find the session gone.
func (m *Manager) dropRefreshLock(visitorKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refreshes, visitorKey)
}
