// iTunes Search API client
//
// Keyless; https://itunes.apple.com/search with entity=song.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

const defaultITunesBaseURL = "https://itunes.apple.com"

// ITunesResult is one song result from the search endpoint.
type ITunesResult struct {
	TrackID          int64  `json:"trackId"`
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	TrackTimeMillis  int    `json:"trackTimeMillis"`
	ArtworkURL100    string `json:"artworkUrl100"`
	ReleaseDate      string `json:"releaseDate"`
	PrimaryGenreName string `json:"primaryGenreName"`
}

// ITunesService wraps the iTunes Search API for track search and browse.
type ITunesService struct {
	baseURL    string
	httpClient *http.Client
}

// NewITunesService creates an iTunes Search client.
func NewITunesService(baseURL string) *ITunesService {
	if baseURL == "" {
		baseURL = defaultITunesBaseURL
	}
	return &ITunesService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search runs a song search for the given term.
func (i *ITunesService) Search(ctx context.Context, term string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 25
	}

	params := url.Values{
		"term":   {term},
		"media":  {"music"},
		"entity": {"song"},
		"limit":  {fmt.Sprintf("%d", limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: itunes status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Results []ITunesResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	tracks := make([]Track, 0, len(payload.Results))
	for _, r := range payload.Results {
		artist := r.ArtistName
		if artist == "" {
			artist = models.UnknownArtist
		}
		release := r.ReleaseDate
		if len(release) >= 10 {
			release = release[:10]
		}
		tracks = append(tracks, Track{
			PlatformID:  fmt.Sprintf("%d", r.TrackID),
			Title:       r.TrackName,
			Artist:      artist,
			Album:       r.CollectionName,
			Duration:    r.TrackTimeMillis / 1000,
			Artwork:     r.ArtworkURL100,
			ReleaseDate: models.PadReleaseDate(release),
		})
	}

	return tracks, nil
}
