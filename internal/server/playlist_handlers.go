package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/mixspace/internal/formatter"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", shared.ErrInvalidInput, name)
	}
	return id, nil
}

// handleListPlaylists lists stored playlists, optionally filtered by space
// and status query parameters.
func (a *API) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	if space := r.URL.Query().Get("space"); space != "" {
		criteria["space"] = models.Space(space)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		criteria["status"] = models.Status(status)
	}

	playlists, err := a.Playlists.List(criteria)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]any{
		"total":     len(playlists),
		"playlists": playlists,
	})
}

// handleCreatePlaylist creates a manually curated playlist.
func (a *API) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Space       string `json:"space"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}
	if body.Title == "" {
		a.respondError(w, fmt.Errorf("%w: title is required", shared.ErrMissingArgument))
		return
	}

	playlist := &models.Playlist{
		UserID:      defaultUserID,
		Title:       body.Title,
		Description: body.Description,
		Space:       models.Space(body.Space),
		Source:      models.SourceManual,
	}
	if playlist.Space == "" {
		playlist.Space = models.SpacePersonal
	}

	if err := a.Playlists.Create(playlist); err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusCreated, playlist)
}

// handleGetPlaylist returns one playlist with its ordered tracks.
func (a *API) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	playlist, err := a.Playlists.Get(id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	tracks, err := a.Playlists.Tracks(id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]any{
		"playlist": playlist,
		"tracks":   tracks,
	})
}

func (a *API) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	if err := a.Playlists.Delete(id); err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAddTrack appends an existing track to a playlist.
func (a *API) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	var body struct {
		TrackID int64 `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TrackID <= 0 {
		a.respondError(w, fmt.Errorf("%w: trackId is required", shared.ErrInvalidInput))
		return
	}

	if _, err := a.Playlists.Get(id); err != nil {
		a.respondError(w, err)
		return
	}
	if _, err := a.Tracks.Get(body.TrackID); err != nil {
		a.respondError(w, err)
		return
	}

	if err := a.Playlists.AddTrack(id, body.TrackID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (a *API) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}
	trackID, err := pathID(r, "trackID")
	if err != nil {
		a.respondError(w, err)
		return
	}

	if err := a.Playlists.RemoveTrack(id, trackID); err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleUpdateStatus sets the workflow status flag.
func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}

	status := models.Status(body.Status)
	switch status {
	case models.StatusPending, models.StatusImported, models.StatusFeatured:
	default:
		a.respondError(w, fmt.Errorf("%w: invalid status %q", shared.ErrInvalidInput, body.Status))
		return
	}

	if err := a.Playlists.UpdateStatus(id, status); err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]string{"status": string(status)})
}

// handleUpdateSpace moves a playlist between browsing spaces.
func (a *API) handleUpdateSpace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	var body struct {
		Space string `json:"space"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput))
		return
	}

	space := models.Space(body.Space)
	switch space {
	case models.SpaceExplore, models.SpaceCurated, models.SpacePersonal:
	default:
		a.respondError(w, fmt.Errorf("%w: invalid space %q", shared.ErrInvalidInput, body.Space))
		return
	}

	if err := a.Playlists.UpdateSpace(id, space); err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]string{"space": string(space)})
}

// handleExport streams a playlist as CSV or JSON, per the format query
// parameter (default csv).
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	playlist, err := a.Playlists.Get(id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	tracks, err := a.Playlists.Tracks(id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		data, err := formatter.ExportToCSV(tracks)
		if err != nil {
			a.respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%d_tracks.csv", id))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case "json":
		data, err := formatter.ExportToJSON(playlist, tracks)
		if err != nil {
			a.respondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		a.respondError(w, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidInput, format))
	}
}

// handleScore computes and stores the playlist's quality score.
func (a *API) handleScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.respondError(w, err)
		return
	}

	score, err := a.Scorer.Score(id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	playlist, err := a.Playlists.Get(id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respond(w, http.StatusOK, map[string]any{
		"playlistId": id,
		"score":      score,
		"status":     playlist.Status,
	})
}
