package tasks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
)

// TokenSource supplies a usable access token for a platform during re-sync.
// The second return is false when no authenticated session exists.
type TokenSource interface {
	PlatformToken(ctx context.Context, platform models.Platform) (string, bool)
}

// ResyncOutcome is the per-playlist result of a global re-sync run.
type ResyncOutcome struct {
	PlaylistID int64           `json:"playlistId"`
	Title      string          `json:"title"`
	Platform   models.Platform `json:"platform"`
	Synced     int             `json:"synced"`
	Error      string          `json:"error,omitempty"`
}

var tidalUUIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// classifyPlatform determines a stored playlist's platform of origin.
//
// Rows written since the source_platform column exists carry the answer
// directly. Older rows fall back to shape heuristics: Tidal playlist ids are
// 36-character hyphenated UUIDs, YouTube ids start with "PL" or the
// description names the platform, everything else is assumed Spotify.
func classifyPlatform(p *models.Playlist) models.Platform {
	if p.SourcePlatform != models.PlatformUnknown {
		return p.SourcePlatform
	}
	if tidalUUIDPattern.MatchString(p.ExternalID) {
		return models.PlatformTidal
	}
	if strings.HasPrefix(p.ExternalID, "PL") || strings.Contains(p.Description, "YouTube") {
		return models.PlatformYouTube
	}
	return models.PlatformSpotify
}

// ResyncAll re-fetches every platform-sourced playlist and replaces its
// membership. One failing playlist never stops the run.
func (im *Importer) ResyncAll(ctx context.Context, tokens TokenSource, progress chan<- ProgressUpdate) ([]ResyncOutcome, error) {
	stored, err := im.playlists.ListPlatformSourced()
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	outcomes := make([]ResyncOutcome, 0, len(stored))
	for i, playlist := range stored {
		sendProgress(progress, resyncUpdate(i+1, len(stored), playlist.Title))

		outcome := im.resyncOne(ctx, tokens, playlist)
		outcomes = append(outcomes, outcome)

		if outcome.Error != "" {
			im.logger.Warn("re-sync failed", "playlist", playlist.ID, "title", playlist.Title, "err", outcome.Error)
		} else {
			im.logger.Info("re-synced playlist", "playlist", playlist.ID, "title", playlist.Title, "tracks", outcome.Synced)
		}
	}

	return outcomes, nil
}

func (im *Importer) resyncOne(ctx context.Context, tokens TokenSource, playlist *models.Playlist) ResyncOutcome {
	platform := classifyPlatform(playlist)
	outcome := ResyncOutcome{
		PlaylistID: playlist.ID,
		Title:      playlist.Title,
		Platform:   platform,
	}

	svc, err := im.Service(platform)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	token, ok := tokens.PlatformToken(ctx, platform)
	if !ok {
		outcome.Error = shared.ErrNotAuthenticated.Error()
		return outcome
	}

	fetched, err := svc.PlaylistTracks(ctx, token, playlist.ExternalID)
	if err != nil {
		fetched, err = im.refetchByTitle(ctx, svc, token, playlist)
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}
	}
	if len(fetched) == 0 {
		outcome.Error = "no tracks fetched"
		return outcome
	}

	trackIDs := im.reconcileBatch(platform, fetched, nil)
	if err := im.playlists.ReplaceTracks(playlist.ID, trackIDs); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Synced = len(trackIDs)
	return outcome
}

// refetchByTitle is the single fallback for a stale external id: search the
// platform for the playlist title, retry once with the first result's id,
// and persist the corrected id when the retry succeeds.
func (im *Importer) refetchByTitle(ctx context.Context, svc services.Service, token string, playlist *models.Playlist) ([]services.Track, error) {
	found, err := svc.SearchPlaylist(ctx, token, playlist.Title)
	if err != nil {
		if errors.Is(err, shared.ErrPlaylistNotFound) {
			return nil, fmt.Errorf("%w: no search match for %q", shared.ErrPlaylistNotFound, playlist.Title)
		}
		return nil, err
	}

	fetched, err := svc.PlaylistTracks(ctx, token, found.ID)
	if err != nil {
		return nil, err
	}

	if err := im.playlists.UpdateExternalID(playlist.ID, found.ID); err != nil {
		im.logger.Warn("failed to persist corrected external id", "playlist", playlist.ID, "err", err)
	}

	return fetched, nil
}
