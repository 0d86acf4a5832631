// Tidal API client
//
// Talks to the legacy v1 API (api.tidal.com/v1) with the vendored Accept
// header; playlist items arrive wrapped in {item: {...}, type: "track"}.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

const defaultTidalBaseURL = "https://api.tidal.com/v1"

const tidalPageLimit = 100

// TidalArtist represents a contributing artist.
type TidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TidalAlbum represents an album reference on a track.
type TidalAlbum struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	ReleaseDate string `json:"releaseDate"`
}

// TidalTrack represents a Tidal track.
type TidalTrack struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Duration    int           `json:"duration"`
	ISRC        string        `json:"isrc"`
	Artist      *TidalArtist  `json:"artist"`
	Artists     []TidalArtist `json:"artists"`
	Album       *TidalAlbum   `json:"album"`
	Popularity  int           `json:"popularity"`
	StreamReady bool          `json:"streamReady"`
}

// TidalPlaylist represents a Tidal playlist; playlists are keyed by UUID.
type TidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	Image          string `json:"image"`
	SquareImage    string `json:"squareImage"`
	Creator        struct {
		Name string `json:"name"`
	} `json:"creator"`
}

// TidalPlaylistPage is a paginated response of a user's playlists, passed
// through to the REST surface.
type TidalPlaylistPage struct {
	Items              []TidalPlaylist `json:"items"`
	TotalNumberOfItems int             `json:"totalNumberOfItems"`
	Limit              int             `json:"limit"`
	Offset             int             `json:"offset"`
}

// tidalItemPage is one page of /playlists/{uuid}/items.
type tidalItemPage struct {
	Items []struct {
		Item *TidalTrack `json:"item"`
		Type string      `json:"type"`
	} `json:"items"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
}

// TidalService implements [Service] for the Tidal API using app-level tokens.
type TidalService struct {
	baseURL    string
	country    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewTidalService creates a Tidal client. The country code defaults to US.
func NewTidalService(baseURL, country string, logger *log.Logger) *TidalService {
	if baseURL == "" {
		baseURL = defaultTidalBaseURL
	}
	if country == "" {
		country = "US"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &TidalService{
		baseURL:    baseURL,
		country:    country,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (t *TidalService) Platform() models.Platform { return models.PlatformTidal }

func (t *TidalService) Name() string { return "Tidal" }

func (t *TidalService) doRequest(ctx context.Context, token, endpoint string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("countryCode") == "" {
		params.Set("countryCode", t.country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.tidal.v1+json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: tidal status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserPlaylists retrieves one page of a user's playlists. The numeric user
// id comes from the OAuth session.
func (t *TidalService) UserPlaylists(ctx context.Context, token, userID string, limit, offset int) (*TidalPlaylistPage, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: tidal user id required", shared.ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	params := url.Values{
		"limit":  {fmt.Sprintf("%d", limit)},
		"offset": {fmt.Sprintf("%d", offset)},
	}

	var page TidalPlaylistPage
	if err := t.doRequest(ctx, token, "/users/"+userID+"/playlists", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves playlist metadata by UUID.
func (t *TidalService) Playlist(ctx context.Context, token, playlistID string) (*Playlist, error) {
	var tp TidalPlaylist
	if err := t.doRequest(ctx, token, "/playlists/"+playlistID, nil, &tp); err != nil {
		return nil, err
	}
	return tidalPlaylistDTO(&tp), nil
}

// PlaylistTracks pages through /playlists/{uuid}/items until
// totalNumberOfItems is reached. Non-track items (videos) are dropped.
func (t *TidalService) PlaylistTracks(ctx context.Context, token, playlistID string) ([]Track, error) {
	var tracks []Track
	offset := 0

	for {
		params := url.Values{
			"limit":  {fmt.Sprintf("%d", tidalPageLimit)},
			"offset": {fmt.Sprintf("%d", offset)},
		}

		var page tidalItemPage
		if err := t.doRequest(ctx, token, "/playlists/"+playlistID+"/items", params, &page); err != nil {
			if offset == 0 {
				return nil, err
			}
			t.logger.Warn("pagination aborted, returning partial result", "playlist", playlistID, "fetched", len(tracks), "err", err)
			return tracks, nil
		}

		for _, item := range page.Items {
			if item.Item == nil || (item.Type != "" && item.Type != "track") {
				continue
			}
			tracks = append(tracks, tidalTrackDTO(item.Item))
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			return tracks, nil
		}

		if err := sleepWithContext(ctx, pageDelay); err != nil {
			return tracks, nil
		}
	}
}

// SearchPlaylist returns the first playlist match for a title.
func (t *TidalService) SearchPlaylist(ctx context.Context, token, title string) (*Playlist, error) {
	params := url.Values{
		"query": {title},
		"type":  {"PLAYLISTS"},
		"limit": {"1"},
	}

	var response struct {
		Playlists struct {
			Items []TidalPlaylist `json:"items"`
		} `json:"playlists"`
	}
	if err := t.doRequest(ctx, token, "/search", params, &response); err != nil {
		return nil, err
	}
	if len(response.Playlists.Items) == 0 {
		return nil, shared.ErrPlaylistNotFound
	}
	return tidalPlaylistDTO(&response.Playlists.Items[0]), nil
}

func tidalPlaylistDTO(tp *TidalPlaylist) *Playlist {
	image := tp.SquareImage
	if image == "" {
		image = tp.Image
	}
	return &Playlist{
		ID:          tp.UUID,
		Name:        tp.Title,
		Description: tp.Description,
		Owner:       tp.Creator.Name,
		Image:       image,
		TrackCount:  tp.NumberOfTracks,
	}
}

func tidalTrackDTO(tt *TidalTrack) Track {
	var names []string
	for _, artist := range tt.Artists {
		names = append(names, artist.Name)
	}
	if len(names) == 0 && tt.Artist != nil {
		names = append(names, tt.Artist.Name)
	}

	track := Track{
		PlatformID: fmt.Sprintf("%d", tt.ID),
		Title:      tt.Title,
		Artist:     models.JoinArtists(names),
		Duration:   tt.Duration,
		ISRC:       tt.ISRC,
		Popularity: tt.Popularity,
	}
	if tt.Album != nil {
		track.Album = tt.Album.Title
		track.ReleaseDate = models.PadReleaseDate(tt.Album.ReleaseDate)
	}
	return track
}
