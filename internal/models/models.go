package models

import (
	"fmt"
	"time"
)

// Platform identifies the streaming service a playlist or track came from.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformTidal   Platform = "tidal"
	PlatformYouTube Platform = "youtube"
	PlatformITunes  Platform = "itunes"
	PlatformUnknown Platform = ""
)

// Space classifies the browsing context a playlist belongs to.
//
// EMS is the exploratory/imported space, PMS the curated global space, and
// PERSONAL a user's own library. The short codes match the persisted values.
type Space string

const (
	SpaceExplore  Space = "EMS"
	SpaceCurated  Space = "PMS"
	SpacePersonal Space = "PERSONAL"
)

// Status tracks a playlist's review workflow.
//
// PRP = pending review, RIP = recently imported, FTD = featured/promoted.
type Status string

const (
	StatusPending  Status = "PRP"
	StatusImported Status = "RIP"
	StatusFeatured Status = "FTD"
)

// FeatureScoreThreshold is the quality score at which a playlist is promoted to [StatusFeatured].
const FeatureScoreThreshold = 70

// SourceType distinguishes platform-imported playlists from manually curated ones.
type SourceType string

const (
	SourcePlatform SourceType = "Platform"
	SourceManual   SourceType = "Manual"
)

// Track is a recording persisted in the tracks table.
//
// A track carries at most one native id per platform plus an optional ISRC;
// the reconciler guarantees lookup-before-insert on those identifiers.
type Track struct {
	ID          int64
	Title       string
	Artist      string
	Album       string
	Duration    int // whole seconds
	ISRC        string
	SpotifyID   string
	YouTubeID   string
	TidalID     string
	Artwork     string
	Genre       string
	Popularity  int
	ReleaseDate string
	// AudioFeatures and Metadata hold raw JSON blobs; Metadata carries
	// platform extras (native id, thumbnail, isrc) for later enrichment.
	AudioFeatures string
	Metadata      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the mandatory track fields.
func (t *Track) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.Artist == "" {
		return fmt.Errorf("track artist is required")
	}
	if t.Duration < 0 {
		return fmt.Errorf("track duration cannot be negative")
	}
	return nil
}

// PlatformID returns the native identifier for the given platform, if stored.
func (t *Track) PlatformID(p Platform) string {
	switch p {
	case PlatformSpotify:
		return t.SpotifyID
	case PlatformYouTube:
		return t.YouTubeID
	case PlatformTidal:
		return t.TidalID
	}
	return ""
}

// SetPlatformID stores a native identifier in the slot for the given platform.
func (t *Track) SetPlatformID(p Platform, id string) {
	switch p {
	case PlatformSpotify:
		t.SpotifyID = id
	case PlatformYouTube:
		t.YouTubeID = id
	case PlatformTidal:
		t.TidalID = id
	}
}

// Playlist is a row in the playlists table.
type Playlist struct {
	ID             int64
	UserID         int64
	Title          string
	Description    string
	Space          Space
	Status         Status
	Source         SourceType
	SourcePlatform Platform
	ExternalID     string
	CoverImage     string
	Score          int // AI-assigned quality score 0-100, 0 when unscored
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the mandatory playlist fields.
func (p *Playlist) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("playlist title is required")
	}
	if p.UserID <= 0 {
		return fmt.Errorf("playlist owner is required")
	}
	switch p.Space {
	case SpaceExplore, SpaceCurated, SpacePersonal:
	default:
		return fmt.Errorf("invalid space %q", p.Space)
	}
	switch p.Status {
	case StatusPending, StatusImported, StatusFeatured:
	default:
		return fmt.Errorf("invalid status %q", p.Status)
	}
	return nil
}

// PlaylistTrack is ordered playlist membership.
//
// Order indices are dense and zero-based per playlist, reassigned in full on
// every re-sync; no ordering identity survives a membership replacement.
type PlaylistTrack struct {
	PlaylistID int64
	TrackID    int64
	OrderIndex int
	AddedAt    time.Time
}

// ImportResult is the structured outcome every import or re-sync reports.
//
// Import endpoints return this object rather than throwing past the route
// boundary; Skipped marks the (user, external id) dedup short-circuit.
type ImportResult struct {
	Success        bool   `json:"success"`
	Skipped        bool   `json:"skipped,omitempty"`
	PlaylistID     int64  `json:"playlistId,omitempty"`
	Title          string `json:"title,omitempty"`
	ImportedTracks int    `json:"importedTracks"`
	TotalTracks    int    `json:"totalTracks"`
	Message        string `json:"message,omitempty"`
}
