// package services defines clients for the streaming platform HTTP APIs
//
// Spotify, Tidal, YouTube, iTunes Search, plus the Last.fm and MusicBrainz
// collaborators used by metadata enrichment.
package services

import (
	"context"
	"time"

	"github.com/desertthunder/mixspace/internal/models"
)

// pageDelay is the fixed pause between paginated requests to one platform.
// Soft rate limits on these endpoints are undocumented; a small constant
// delay has proven sufficient and keeps sequential imports burst-free.
const pageDelay = 150 * time.Millisecond

// Service is the read surface the import pipeline needs from one platform.
//
// The token argument is whatever credential the platform expects: a
// user-level bearer token for Spotify, an app-level client token for Tidal,
// and ignored by YouTube (which authenticates via API key).
type Service interface {
	// Platform returns the enum value persisted as a playlist's source platform.
	Platform() models.Platform

	// Name returns the human-readable platform name for logs and errors.
	Name() string

	// Playlist retrieves one playlist's metadata by its native id.
	Playlist(ctx context.Context, token, playlistID string) (*Playlist, error)

	// PlaylistTracks walks the platform's pagination to completion and returns
	// the playlist's tracks in order. An HTTP failure mid-pagination returns
	// the pages accumulated so far rather than an error.
	PlaylistTracks(ctx context.Context, token, playlistID string) ([]Track, error)

	// SearchPlaylist finds the best playlist match for a title, used as the
	// single re-sync fallback when a stored external id has gone stale.
	SearchPlaylist(ctx context.Context, token, title string) (*Playlist, error)
}

// Playlist is platform playlist metadata in a neutral shape.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
	Image       string `json:"image,omitempty"`
	TrackCount  int    `json:"trackCount"`
}

// Track is one fetched platform track record, normalized far enough for the
// reconciler: artists joined, duration in whole seconds, release date padded.
type Track struct {
	PlatformID  string `json:"platformId"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	Duration    int    `json:"duration"`
	ISRC        string `json:"isrc,omitempty"`
	Artwork     string `json:"artwork,omitempty"`
	Popularity  int    `json:"popularity,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// sleepWithContext pauses for the given delay unless the context ends first.
func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
