// Last.fm API client used by metadata enrichment (track.getTopTags).
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/mixspace/internal/shared"
)

const defaultLastFMBaseURL = "http://ws.audioscrobbler.com/2.0/"

// LastFMTag is one community tag with its weight.
type LastFMTag struct {
	Name  string
	Count int
}

// LastFMService fetches community tags for a track.
type LastFMService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLastFMService creates a Last.fm client; an empty API key disables it.
func NewLastFMService(baseURL, apiKey string) *LastFMService {
	if baseURL == "" {
		baseURL = defaultLastFMBaseURL
	}
	return &LastFMService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (l *LastFMService) Configured() bool { return l.apiKey != "" }

// TopTags retrieves up to ten top tags for the given artist/title pair.
func (l *LastFMService) TopTags(ctx context.Context, artist, title string) ([]LastFMTag, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("%w: lastfm API key not configured", shared.ErrMissingCredentials)
	}
	if artist == "" || title == "" {
		return nil, fmt.Errorf("%w: artist and title required", shared.ErrInvalidInput)
	}

	params := url.Values{
		"method":  {"track.getTopTags"},
		"artist":  {artist},
		"track":   {title},
		"api_key": {l.apiKey},
		"format":  {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: lastfm status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Error   int `json:"error"`
		TopTags struct {
			Tag []struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			} `json:"tag"`
		} `json:"toptags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Error != 0 {
		return nil, fmt.Errorf("%w: lastfm error %d", shared.ErrAPIRequest, payload.Error)
	}

	tags := make([]LastFMTag, 0, 10)
	for _, tag := range payload.TopTags.Tag {
		tags = append(tags, LastFMTag{Name: tag.Name, Count: tag.Count})
		if len(tags) == 10 {
			break
		}
	}

	return tags, nil
}
