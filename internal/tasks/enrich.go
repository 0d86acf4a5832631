package tasks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultEnrichWorkers   = 2
	defaultEnrichQueueSize = 64

	// MusicBrainz allows roughly one request per second; 1.1 s keeps a margin.
	musicBrainzInterval = 1100 * time.Millisecond
)

// EnrichStore is the subset of the track repository the enricher needs.
type EnrichStore interface {
	Get(id int64) (*models.Track, error)
	UpdateEnrichment(id int64, genre, audioFeatures, metadata string, popularity int) error
	UpdatePlatformID(id int64, platform models.Platform, platformID string) error
}

// ClientTokenSource yields an app-level token for keyless provider calls.
type ClientTokenSource interface {
	ClientToken(ctx context.Context) (string, error)
}

// Enricher augments stored tracks with genre, audio-feature, and tag data
// from Spotify, MusicBrainz, and Last.fm.
//
// Work arrives on a bounded queue; a full queue drops the request with a log
// line rather than blocking the importer. Provider failures degrade to
// partial results and a track is updated with whatever was gathered.
type Enricher struct {
	tracks      EnrichStore
	spotify     *services.SpotifyService
	spotifyAuth ClientTokenSource
	musicbrainz *services.MusicBrainzService
	lastfm      *services.LastFMService
	mbLimiter   *rate.Limiter
	logger      *log.Logger

	queue   chan int64
	workers int
	wg      sync.WaitGroup
	once    sync.Once
}

// NewEnricher creates an Enricher from the enrichment config. Any provider
// may be nil; it is simply skipped.
func NewEnricher(cfg shared.EnrichmentConfig, tracks EnrichStore, spotify *services.SpotifyService, spotifyAuth ClientTokenSource, mb *services.MusicBrainzService, lastfm *services.LastFMService, logger *log.Logger) *Enricher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultEnrichWorkers
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultEnrichQueueSize
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	e := &Enricher{
		tracks:    tracks,
		mbLimiter: rate.NewLimiter(rate.Every(musicBrainzInterval), 1),
		logger:    logger,
		queue:     make(chan int64, size),
		workers:   workers,
	}
	if cfg.Spotify {
		e.spotify = spotify
		e.spotifyAuth = spotifyAuth
	}
	if cfg.MusicBrainz {
		e.musicbrainz = mb
	}
	if cfg.LastFM {
		e.lastfm = lastfm
	}
	return e
}

// Start launches the worker goroutines. Workers exit when the context is
// cancelled or the queue is closed.
func (e *Enricher) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case trackID, ok := <-e.queue:
					if !ok {
						return
					}
					e.process(ctx, trackID)
				}
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight work to finish.
func (e *Enricher) Stop() {
	e.once.Do(func() { close(e.queue) })
	e.wg.Wait()
}

// Enqueue submits a track for enrichment. Never blocks; a full queue drops
// the request.
func (e *Enricher) Enqueue(trackID int64) {
	select {
	case e.queue <- trackID:
	default:
		e.logger.Warn("enrichment queue full, dropping track", "track", trackID)
	}
}

// process gathers metadata from each configured provider and stores the
// merged result. Every provider failure is non-fatal.
func (e *Enricher) process(ctx context.Context, trackID int64) {
	track, err := e.tracks.Get(trackID)
	if err != nil {
		e.logger.Warn("enrichment skipped, track not found", "track", trackID, "err", err)
		return
	}

	var (
		genres        []string
		audioFeatures string
		popularity    int
		extras        = map[string]any{}
	)

	if e.spotify != nil && e.spotifyAuth != nil {
		g, af, pop := e.fromSpotify(ctx, track)
		genres = append(genres, g...)
		audioFeatures = af
		popularity = pop
	}

	if e.musicbrainz != nil && track.ISRC != "" {
		if err := e.mbLimiter.Wait(ctx); err == nil {
			if rec, err := e.musicbrainz.RecordingByISRC(ctx, track.ISRC); err == nil {
				genres = append(genres, rec.Tags...)
				extras["mbid"] = rec.MBID
			} else {
				e.logger.Debug("musicbrainz lookup failed", "track", trackID, "err", err)
			}
		}
	}

	if e.lastfm != nil && e.lastfm.Configured() {
		if tags, err := e.lastfm.TopTags(ctx, track.Artist, track.Title); err == nil {
			for _, tag := range tags {
				genres = append(genres, tag.Name)
			}
		} else {
			e.logger.Debug("lastfm lookup failed", "track", trackID, "err", err)
		}
	}

	genre := mergeGenres(track.Genre, genres)
	metadata := ""
	if len(extras) > 0 {
		if blob, err := json.Marshal(extras); err == nil {
			metadata = string(blob)
		}
	}

	if genre == track.Genre && audioFeatures == "" && metadata == "" && popularity == 0 {
		return
	}

	if err := e.tracks.UpdateEnrichment(trackID, genre, audioFeatures, metadata, popularity); err != nil {
		e.logger.Warn("failed to store enrichment", "track", trackID, "err", err)
		return
	}

	e.logger.Info("enriched track", "track", trackID, "title", track.Title, "genre", genre)
}

// fromSpotify resolves the track on Spotify (by stored id, then ISRC, then
// title+artist search), backfills a missing Spotify id, and returns artist
// genres, audio features JSON, and popularity.
func (e *Enricher) fromSpotify(ctx context.Context, track *models.Track) ([]string, string, int) {
	token, err := e.spotifyAuth.ClientToken(ctx)
	if err != nil {
		e.logger.Debug("spotify enrichment skipped", "err", err)
		return nil, "", 0
	}

	spotifyID := track.SpotifyID
	var matched *services.SpotifyTrack

	if spotifyID != "" {
		// The stored id alone carries no artist id or popularity; the full
		// track object does.
		if matched, err = e.spotify.Track(ctx, token, spotifyID); err != nil {
			e.logger.Debug("spotify track lookup failed", "track", track.ID, "err", err)
		}
	} else {
		if track.ISRC != "" {
			matched, _ = e.spotify.SearchTrackByISRC(ctx, token, track.ISRC)
		}
		if matched == nil {
			matched, _ = e.spotify.SearchTrack(ctx, token, track.Title, track.Artist)
		}
		if matched == nil {
			return nil, "", 0
		}
		spotifyID = matched.ID
		if err := e.tracks.UpdatePlatformID(track.ID, models.PlatformSpotify, spotifyID); err != nil {
			e.logger.Debug("spotify id backfill failed", "track", track.ID, "err", err)
		}
	}

	var genres []string
	if matched != nil && len(matched.Artists) > 0 {
		found, err := e.spotify.ArtistGenres(ctx, token, matched.Artists[0].ID)
		if err == nil {
			genres = found
		}
	}

	audioFeatures := ""
	popularity := 0
	if features, err := e.spotify.AudioFeatures(ctx, token, spotifyID); err == nil {
		if blob, err := json.Marshal(features); err == nil {
			audioFeatures = string(blob)
		}
	}
	if matched != nil {
		popularity = matched.Popularity
	}

	return genres, audioFeatures, popularity
}

// mergeGenres folds new tags into an existing comma-joined genre string,
// preserving order, dropping duplicates, and capping the list at ten.
func mergeGenres(existing string, incoming []string) string {
	seen := make(map[string]struct{})
	var merged []string

	add := func(raw string) {
		name := strings.TrimSpace(raw)
		if name == "" || len(merged) >= 10 {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, name)
	}

	for _, g := range strings.Split(existing, ",") {
		add(g)
	}
	for _, g := range incoming {
		add(g)
	}

	return strings.Join(merged, ", ")
}
