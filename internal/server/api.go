package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/auth"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/repositories"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
	"github.com/desertthunder/mixspace/internal/tasks"
)

// defaultUserID owns rows created through the API until multi-user auth
// exists in front of it.
const defaultUserID int64 = 1

// API bundles the dependencies the REST handlers share.
type API struct {
	Managers  map[models.Platform]*auth.Manager
	Importer  *tasks.Importer
	Scorer    *tasks.Scorer
	Playlists *repositories.PlaylistRepository
	Tracks    *repositories.TrackRepository
	ITunes    *services.ITunesService
	Logger    *log.Logger
}

// NewAPI creates the API handler bundle.
func NewAPI(managers map[models.Platform]*auth.Manager, importer *tasks.Importer, scorer *tasks.Scorer, playlists *repositories.PlaylistRepository, tracks *repositories.TrackRepository, itunes *services.ITunesService, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{
		Managers:  managers,
		Importer:  importer,
		Scorer:    scorer,
		Playlists: playlists,
		Tracks:    tracks,
		ITunes:    itunes,
		Logger:    logger,
	}
}

// Register wires every API route onto the router.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/api/{platform}/auth/login", http.HandlerFunc(a.handleLogin))
	r.Handle(http.MethodPost, "/api/{platform}/auth/exchange", http.HandlerFunc(a.handleExchange))
	r.Handle(http.MethodGet, "/api/{platform}/auth/status", http.HandlerFunc(a.handleAuthStatus))
	r.Handle(http.MethodPost, "/api/{platform}/auth/logout", http.HandlerFunc(a.handleLogout))

	r.Handle(http.MethodGet, "/api/{platform}/playlists", http.HandlerFunc(a.handlePlatformPlaylists))
	r.Handle(http.MethodPost, "/api/{platform}/import", http.HandlerFunc(a.handleImport))
	r.Handle(http.MethodPost, "/api/resync", http.HandlerFunc(a.handleResync))

	r.Handle(http.MethodGet, "/api/itunes/search", http.HandlerFunc(a.handleITunesSearch))

	r.Handle(http.MethodGet, "/api/playlists", http.HandlerFunc(a.handleListPlaylists))
	r.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(a.handleCreatePlaylist))
	r.Handle(http.MethodGet, "/api/playlists/{id}", http.HandlerFunc(a.handleGetPlaylist))
	r.Handle(http.MethodDelete, "/api/playlists/{id}", http.HandlerFunc(a.handleDeletePlaylist))
	r.Handle(http.MethodPost, "/api/playlists/{id}/tracks", http.HandlerFunc(a.handleAddTrack))
	r.Handle(http.MethodDelete, "/api/playlists/{id}/tracks/{trackID}", http.HandlerFunc(a.handleRemoveTrack))
	r.Handle(http.MethodPut, "/api/playlists/{id}/status", http.HandlerFunc(a.handleUpdateStatus))
	r.Handle(http.MethodPut, "/api/playlists/{id}/space", http.HandlerFunc(a.handleUpdateSpace))
	r.Handle(http.MethodGet, "/api/playlists/{id}/export", http.HandlerFunc(a.handleExport))
	r.Handle(http.MethodPost, "/api/playlists/{id}/score", http.HandlerFunc(a.handleScore))
}

// visitorKey identifies the caller's token session. A missing header falls
// back to the shared default visitor.
func visitorKey(r *http.Request) string {
	if key := r.Header.Get("X-Visitor-Key"); key != "" {
		return key
	}
	if key := r.URL.Query().Get("visitor"); key != "" {
		return key
	}
	return "default"
}

// manager resolves the token manager for the {platform} path value.
func (a *API) manager(r *http.Request) (*auth.Manager, models.Platform, error) {
	platform := models.Platform(r.PathValue("platform"))
	manager, ok := a.Managers[platform]
	if !ok {
		return nil, platform, shared.ErrUnknownPlatform
	}
	return manager, platform, nil
}

func (a *API) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			a.Logger.Error("failed to encode response", "err", err)
		}
	}
}

// respondError maps domain errors onto HTTP status codes:
// 400 invalid input, 401 not authenticated, 404 not found, 409 duplicate,
// 500 everything else.
func (a *API) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrUnknownPlatform),
		errors.Is(err, shared.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrMissingCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrPlaylistNotFound),
		errors.Is(err, shared.ErrTrackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicate):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		a.Logger.Error("request failed", "err", err)
	}

	a.respond(w, status, map[string]string{"error": err.Error()})
}
