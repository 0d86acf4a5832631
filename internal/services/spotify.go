// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
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

const defaultSpotifyBaseURL = "https://api.spotify.com/v1"

// spotifyPageLimit is the maximum page size the playlist tracks endpoint allows.
const spotifyPageLimit = 100

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       spotifyOwner   `json:"owner"`
	Public      bool           `json:"public"`
	Images      []SpotifyImage `json:"images"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// spotifyTrackPage is one page of a playlist's tracks.
type spotifyTrackPage struct {
	Items []struct {
		Track *SpotifyTrack `json:"track"`
	} `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

// SpotifyPlaylistPage is a paginated response of the user's playlists,
// passed through to the REST surface.
type SpotifyPlaylistPage struct {
	Items  []SpotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyAudioFeatures is the audio-feature vector for one track.
type SpotifyAudioFeatures struct {
	Tempo            float64 `json:"tempo"`
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Loudness         float64 `json:"loudness"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}

// SpotifyService implements [Service] for the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a Spotify client. An empty baseURL uses the
// public API; tests point it at an httptest server.
func NewSpotifyService(baseURL string, logger *log.Logger) *SpotifyService {
	if baseURL == "" {
		baseURL = defaultSpotifyBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *SpotifyService) Platform() models.Platform { return models.PlatformSpotify }

func (s *SpotifyService) Name() string { return "Spotify" }

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, token, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, token string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, token, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, token string, limit, offset int) (*SpotifyPlaylistPage, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var page SpotifyPlaylistPage
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
	if err := s.doRequest(ctx, token, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves playlist metadata by id.
func (s *SpotifyService) Playlist(ctx context.Context, token, playlistID string) (*Playlist, error) {
	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, token, "/playlists/"+playlistID, &sp); err != nil {
		return nil, err
	}
	return spotifyPlaylistDTO(&sp), nil
}

// PlaylistTracks fetches every page of a playlist's tracks in order.
//
// Deleted/unavailable entries arrive as null tracks and are dropped. An HTTP
// failure after the first page logs and returns the accumulated prefix.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, token, playlistID string) ([]Track, error) {
	var tracks []Track
	offset := 0

	for {
		endpoint := fmt.Sprintf(
			"/playlists/%s/tracks?limit=%d&offset=%d&fields=items(track(id,name,artists,album,duration_ms,external_ids,popularity)),total,next",
			playlistID, spotifyPageLimit, offset,
		)

		var page spotifyTrackPage
		if err := s.doRequest(ctx, token, endpoint, &page); err != nil {
			if offset == 0 {
				return nil, err
			}
			s.logger.Warn("pagination aborted, returning partial result", "playlist", playlistID, "fetched", len(tracks), "err", err)
			return tracks, nil
		}

		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, spotifyTrackDTO(item.Track))
		}

		if page.Next == nil {
			return tracks, nil
		}
		offset += spotifyPageLimit

		if err := sleepWithContext(ctx, pageDelay); err != nil {
			return tracks, nil
		}
	}
}

// SearchPlaylist returns the first playlist match for a title.
func (s *SpotifyService) SearchPlaylist(ctx context.Context, token, title string) (*Playlist, error) {
	endpoint := "/search?q=" + url.QueryEscape(title) + "&type=playlist&limit=1"

	var response struct {
		Playlists struct {
			Items []SpotifyPlaylist `json:"items"`
		} `json:"playlists"`
	}
	if err := s.doRequest(ctx, token, endpoint, &response); err != nil {
		return nil, err
	}
	if len(response.Playlists.Items) == 0 {
		return nil, shared.ErrPlaylistNotFound
	}
	return spotifyPlaylistDTO(&response.Playlists.Items[0]), nil
}

// Track retrieves one track object by id.
func (s *SpotifyService) Track(ctx context.Context, token, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, token, "/tracks/"+trackID, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SearchTrack finds the best track match for a title/artist pair.
func (s *SpotifyService) SearchTrack(ctx context.Context, token, title, artist string) (*SpotifyTrack, error) {
	q := url.QueryEscape(fmt.Sprintf("track:%s artist:%s", title, artist))
	return s.searchOneTrack(ctx, token, q)
}

// SearchTrackByISRC finds a track by its ISRC.
func (s *SpotifyService) SearchTrackByISRC(ctx context.Context, token, isrc string) (*SpotifyTrack, error) {
	return s.searchOneTrack(ctx, token, url.QueryEscape("isrc:"+isrc))
}

func (s *SpotifyService) searchOneTrack(ctx context.Context, token, query string) (*SpotifyTrack, error) {
	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, token, "/search?q="+query+"&type=track&limit=1", &response); err != nil {
		return nil, err
	}
	if len(response.Tracks.Items) == 0 {
		return nil, shared.ErrTrackNotFound
	}
	return &response.Tracks.Items[0], nil
}

// AudioFeatures retrieves the audio-feature vector for one track.
func (s *SpotifyService) AudioFeatures(ctx context.Context, token, trackID string) (*SpotifyAudioFeatures, error) {
	var features SpotifyAudioFeatures
	if err := s.doRequest(ctx, token, "/audio-features/"+trackID, &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// ArtistGenres retrieves the genre list attached to an artist.
func (s *SpotifyService) ArtistGenres(ctx context.Context, token, artistID string) ([]string, error) {
	var artist SpotifyArtist
	if err := s.doRequest(ctx, token, "/artists/"+artistID, &artist); err != nil {
		return nil, err
	}
	return artist.Genres, nil
}

func spotifyPlaylistDTO(sp *SpotifyPlaylist) *Playlist {
	playlist := &Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		TrackCount:  sp.Tracks.Total,
	}
	if len(sp.Images) > 0 {
		playlist.Image = sp.Images[0].URL
	}
	return playlist
}

func spotifyTrackDTO(t *SpotifyTrack) Track {
	names := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		names = append(names, artist.Name)
	}

	track := Track{
		PlatformID:  t.ID,
		Title:       t.Name,
		Artist:      models.JoinArtists(names),
		Album:       t.Album.Name,
		Duration:    t.DurationMS / 1000,
		ISRC:        t.ExternalIDs.ISRC,
		Popularity:  t.Popularity,
		ReleaseDate: models.PadReleaseDate(t.Album.ReleaseDate),
	}
	if len(t.Album.Images) > 0 {
		track.Artwork = t.Album.Images[0].URL
	}
	return track
}
