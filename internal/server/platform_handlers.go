package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
	"github.com/desertthunder/mixspace/internal/tasks"
)

// platformToken resolves a usable access token for outbound platform calls.
//
// YouTube authenticates by API key, so its token is empty. Tidal falls back
// to an app-level client-credentials token for public data when no user
// session exists.
func (a *API) platformToken(ctx context.Context, platform models.Platform, visitor string) (string, error) {
	if platform == models.PlatformYouTube {
		return "", nil
	}

	manager, ok := a.Managers[platform]
	if !ok {
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, platform)
	}

	if token, ok := manager.ValidToken(ctx, visitor); ok {
		return token, nil
	}

	if platform == models.PlatformTidal {
		return manager.ClientToken(ctx)
	}

	return "", shared.ErrNotAuthenticated
}

// managerTokens adapts the API's managers to the re-sync job's TokenSource.
type managerTokens struct {
	api     *API
	visitor string
}

func (m managerTokens) PlatformToken(ctx context.Context, platform models.Platform) (string, bool) {
	token, err := m.api.platformToken(ctx, platform, m.visitor)
	if err != nil {
		return "", false
	}
	return token, true
}

// handlePlatformPlaylists proxies one page of the visitor's playlists from
// the platform, preserving the platform's own pagination envelope.
func (a *API) handlePlatformPlaylists(w http.ResponseWriter, r *http.Request) {
	manager, platform, err := a.manager(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	visitor := visitorKey(r)
	token, ok := manager.ValidToken(r.Context(), visitor)
	if !ok {
		a.respondError(w, shared.ErrNotAuthenticated)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	svc, err := a.Importer.Service(platform)
	if err != nil {
		a.respondError(w, err)
		return
	}

	switch client := svc.(type) {
	case *services.SpotifyService:
		page, err := client.UserPlaylists(r.Context(), token, limit, offset)
		if err != nil {
			a.respondError(w, err)
			return
		}
		a.respond(w, http.StatusOK, page)
	case *services.TidalService:
		session, _ := manager.Store().Get(visitor)
		page, err := client.UserPlaylists(r.Context(), token, session.UserID, limit, offset)
		if err != nil {
			a.respondError(w, err)
			return
		}
		a.respond(w, http.StatusOK, page)
	default:
		a.respondError(w, fmt.Errorf("%w: %q has no playlist listing", shared.ErrUnknownPlatform, platform))
	}
}

// handleImport imports one platform playlist for the default user.
// A playlist already imported maps to 409 with the existing id.
func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	_, platform, err := a.manager(r)
	if err != nil && platform != models.PlatformYouTube {
		a.respondError(w, err)
		return
	}

	var body struct {
		PlaylistID string `json:"playlistId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}
	if body.PlaylistID == "" {
		a.respondError(w, fmt.Errorf("%w: playlistId is required", shared.ErrMissingArgument))
		return
	}

	token, err := a.platformToken(r.Context(), platform, visitorKey(r))
	if err != nil {
		a.respondError(w, err)
		return
	}

	result, err := a.Importer.Import(r.Context(), platform, token, defaultUserID, body.PlaylistID, nil)
	if err != nil {
		a.respondError(w, err)
		return
	}

	if result.Skipped {
		a.respond(w, http.StatusConflict, result)
		return
	}
	if !result.Success {
		a.respond(w, http.StatusOK, result)
		return
	}
	a.respond(w, http.StatusCreated, result)
}

// handleResync re-fetches every platform-sourced playlist.
func (a *API) handleResync(w http.ResponseWriter, r *http.Request) {
	outcomes, err := a.Importer.ResyncAll(r.Context(), managerTokens{api: a, visitor: visitorKey(r)}, nil)
	if err != nil {
		a.respondError(w, err)
		return
	}

	synced := 0
	for _, outcome := range outcomes {
		if outcome.Error == "" {
			synced++
		}
	}

	a.respond(w, http.StatusOK, map[string]any{
		"total":     len(outcomes),
		"synced":    synced,
		"playlists": outcomes,
	})
}

// handleITunesSearch proxies the keyless iTunes song search.
func (a *API) handleITunesSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		a.respondError(w, fmt.Errorf("%w: term is required", shared.ErrMissingArgument))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tracks, err := a.ITunes.Search(r.Context(), term, limit)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]any{
		"term":    term,
		"results": tracks,
	})
}

var _ tasks.TokenSource = managerTokens{}
