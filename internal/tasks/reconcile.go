package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
)

// TrackStore is the subset of the track repository the reconciler needs.
type TrackStore interface {
	Create(track *models.Track) error
	GetByPlatformID(platform models.Platform, platformID string) (*models.Track, error)
	GetByISRC(isrc string) (*models.Track, error)
	GetByTitleArtist(title, artist string) (*models.Track, error)
	UpdatePlatformID(id int64, platform models.Platform, platformID string) error
}

// Enqueuer accepts newly inserted track ids for background enrichment.
type Enqueuer interface {
	Enqueue(trackID int64)
}

// Reconciler resolves a fetched platform track to a canonical stored track,
// inserting one when no identifier matches.
//
// Match priority: native platform id, then ISRC (backfilling the platform id
// onto the existing row), then exact title+artist, then insert.
type Reconciler struct {
	tracks   TrackStore
	enricher Enqueuer
	logger   *log.Logger
}

// NewReconciler creates a Reconciler. The enricher may be nil.
func NewReconciler(tracks TrackStore, enricher Enqueuer, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{tracks: tracks, enricher: enricher, logger: logger}
}

// Reconcile returns the canonical track id for a fetched track.
func (r *Reconciler) Reconcile(platform models.Platform, fetched services.Track) (int64, error) {
	if existing, err := r.tracks.GetByPlatformID(platform, fetched.PlatformID); err == nil {
		return existing.ID, nil
	}

	if fetched.ISRC != "" {
		if existing, err := r.tracks.GetByISRC(fetched.ISRC); err == nil {
			if existing.PlatformID(platform) == "" && fetched.PlatformID != "" {
				if err := r.tracks.UpdatePlatformID(existing.ID, platform, fetched.PlatformID); err != nil {
					r.logger.Warn("platform id backfill failed", "track", existing.ID, "err", err)
				}
			}
			return existing.ID, nil
		}
	}

	if existing, err := r.tracks.GetByTitleArtist(fetched.Title, fetched.Artist); err == nil {
		return existing.ID, nil
	}

	track := &models.Track{
		Title:       fetched.Title,
		Artist:      fetched.Artist,
		Album:       fetched.Album,
		Duration:    fetched.Duration,
		ISRC:        fetched.ISRC,
		Artwork:     fetched.Artwork,
		Popularity:  fetched.Popularity,
		ReleaseDate: fetched.ReleaseDate,
		Metadata:    platformMetadata(platform, fetched),
	}
	if track.Artist == "" {
		track.Artist = models.UnknownArtist
	}
	track.SetPlatformID(platform, fetched.PlatformID)

	if err := r.tracks.Create(track); err != nil {
		return 0, fmt.Errorf("failed to insert reconciled track: %w", err)
	}

	if r.enricher != nil {
		r.enricher.Enqueue(track.ID)
	}

	return track.ID, nil
}

// platformMetadata captures the raw platform identifiers as a JSON blob so
// enrichment can re-query the source later.
func platformMetadata(platform models.Platform, fetched services.Track) string {
	blob, err := json.Marshal(map[string]string{
		"platform":  string(platform),
		"native_id": fetched.PlatformID,
		"isrc":      fetched.ISRC,
		"thumbnail": fetched.Artwork,
	})
	if err != nil {
		return ""
	}
	return string(blob)
}
