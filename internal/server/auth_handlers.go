package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/mixspace/internal/shared"
)

// handleLogin starts the PKCE flow and returns the authorization URL.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	manager, platform, err := a.manager(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	url, state, err := manager.LoginURL(visitorKey(r))
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]string{
		"platform": string(platform),
		"url":      url,
		"state":    state,
	})
}

// handleExchange completes the PKCE flow with the code and state returned
// by the platform's redirect.
func (a *API) handleExchange(w http.ResponseWriter, r *http.Request) {
	manager, platform, err := a.manager(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	var body struct {
		Code        string `json:"code"`
		State       string `json:"state"`
		RedirectURI string `json:"redirectUri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}
	if body.Code == "" || body.State == "" {
		a.respondError(w, fmt.Errorf("%w: code and state are required", shared.ErrMissingArgument))
		return
	}

	session, key, err := manager.Exchange(r.Context(), body.Code, body.State, body.RedirectURI)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]any{
		"platform":   string(platform),
		"visitorKey": key,
		"expiresAt":  session.ExpiresAt,
	})
}

// handleAuthStatus reports whether the visitor holds a usable token.
func (a *API) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	manager, platform, err := a.manager(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	_, ok := manager.ValidToken(r.Context(), visitorKey(r))
	a.respond(w, http.StatusOK, map[string]any{
		"platform":      string(platform),
		"authenticated": ok,
		"configured":    manager.Configured(),
	})
}

// handleLogout evicts the visitor's session.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	manager, platform, err := a.manager(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	manager.Logout(visitorKey(r))
	a.respond(w, http.StatusOK, map[string]string{
		"platform": string(platform),
		"status":   "logged out",
	})
}
