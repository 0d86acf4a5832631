package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
)

// PlaylistStore is the subset of the playlist repository the importer needs.
type PlaylistStore interface {
	Create(playlist *models.Playlist) error
	GetByUserExternalID(userID int64, externalID string) (*models.Playlist, error)
	ReplaceTracks(playlistID int64, trackIDs []int64) error
	ListPlatformSourced() ([]*models.Playlist, error)
	UpdateExternalID(id int64, externalID string) error
	UpdateCover(id int64, cover string) error
}

// Importer copies a platform playlist into local storage: one playlist row,
// reconciled track rows, and ordered membership.
type Importer struct {
	playlists  PlaylistStore
	reconciler *Reconciler
	services   map[models.Platform]services.Service
	covers     *CoverDownloader
	logger     *log.Logger
}

// NewImporter creates an Importer. The covers downloader may be nil.
func NewImporter(playlists PlaylistStore, reconciler *Reconciler, svcs map[models.Platform]services.Service, covers *CoverDownloader, logger *log.Logger) *Importer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Importer{
		playlists:  playlists,
		reconciler: reconciler,
		services:   svcs,
		covers:     covers,
		logger:     logger,
	}
}

// Service returns the registered client for a platform.
func (im *Importer) Service(platform models.Platform) (services.Service, error) {
	svc, ok := im.services[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, platform)
	}
	return svc, nil
}

// Import fetches a platform playlist and persists it for the given user.
//
// A playlist already imported by this user short-circuits with Skipped set
// and the existing id; a playlist with zero fetchable tracks is reported
// without creating a row. Individual track failures are logged and skipped,
// never aborting the batch.
func (im *Importer) Import(ctx context.Context, platform models.Platform, token string, userID int64, externalID string, progress chan<- ProgressUpdate) (*models.ImportResult, error) {
	svc, err := im.Service(platform)
	if err != nil {
		return nil, err
	}

	if existing, err := im.playlists.GetByUserExternalID(userID, externalID); err == nil {
		return &models.ImportResult{
			Skipped:    true,
			PlaylistID: existing.ID,
			Title:      existing.Title,
			Message:    "playlist already imported",
		}, nil
	}

	sendProgress(progress, fetchPlaylistUpdate(svc.Name()))
	remote, err := svc.Playlist(ctx, token, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	fetched, err := svc.PlaylistTracks(ctx, token, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks: %w", err)
	}
	sendProgress(progress, fetchTracksUpdate(len(fetched)))

	if len(fetched) == 0 {
		return &models.ImportResult{
			ImportedTracks: 0,
			TotalTracks:    0,
			Title:          remote.Name,
			Message:        "no tracks found, nothing imported",
		}, nil
	}

	playlist := &models.Playlist{
		UserID:         userID,
		Title:          remote.Name,
		Description:    remote.Description,
		Space:          models.SpaceExplore,
		Status:         models.StatusPending,
		Source:         models.SourcePlatform,
		SourcePlatform: platform,
		ExternalID:     externalID,
		CoverImage:     remote.Image,
	}
	if err := im.playlists.Create(playlist); err != nil {
		return nil, err
	}

	trackIDs := im.reconcileBatch(platform, fetched, progress)

	if err := im.playlists.ReplaceTracks(playlist.ID, trackIDs); err != nil {
		return nil, fmt.Errorf("failed to write membership: %w", err)
	}
	sendProgress(progress, persistUpdate(playlist.Title, len(trackIDs)))

	if im.covers != nil && remote.Image != "" {
		im.covers.DownloadAsync(playlist.ID, remote.Image)
	}

	return &models.ImportResult{
		Success:        true,
		PlaylistID:     playlist.ID,
		Title:          playlist.Title,
		ImportedTracks: len(trackIDs),
		TotalTracks:    len(fetched),
	}, nil
}

// reconcileBatch resolves fetched tracks to stored ids with per-item error
// isolation. A track listed more than once keeps its first position only, so
// the returned ids match the membership rows actually written.
func (im *Importer) reconcileBatch(platform models.Platform, fetched []services.Track, progress chan<- ProgressUpdate) []int64 {
	trackIDs := make([]int64, 0, len(fetched))
	seen := make(map[int64]struct{}, len(fetched))
	for i, track := range fetched {
		sendProgress(progress, reconcileUpdate(i+1, len(fetched), track.Title))

		id, err := im.reconciler.Reconcile(platform, track)
		if err != nil {
			im.logger.Warn("track reconciliation failed, skipping",
				"title", track.Title, "artist", track.Artist, "err", err)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		trackIDs = append(trackIDs, id)
	}
	return trackIDs
}
