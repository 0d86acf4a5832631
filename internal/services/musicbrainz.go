// MusicBrainz client used by metadata enrichment (recording lookup by ISRC).
//
// MusicBrainz requires a descriptive User-Agent and allows roughly one
// request per second; the enricher paces calls through a rate limiter.
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

const defaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"

const musicBrainzUserAgent = "mixspace/1.0 (mixspace@local)"

// MusicBrainzRecording is the subset of a recording result enrichment uses.
type MusicBrainzRecording struct {
	MBID string
	Tags []string
}

// MusicBrainzService looks up recording tags by ISRC.
type MusicBrainzService struct {
	baseURL    string
	httpClient *http.Client
}

// NewMusicBrainzService creates a MusicBrainz client.
func NewMusicBrainzService(baseURL string) *MusicBrainzService {
	if baseURL == "" {
		baseURL = defaultMusicBrainzBaseURL
	}
	return &MusicBrainzService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// RecordingByISRC queries recordings for the given ISRC and merges the
// recording's tags with its first release group's tags, capped at five.
func (m *MusicBrainzService) RecordingByISRC(ctx context.Context, isrc string) (*MusicBrainzRecording, error) {
	if isrc == "" {
		return nil, fmt.Errorf("%w: isrc required", shared.ErrInvalidInput)
	}

	params := url.Values{
		"query": {"isrc:" + isrc},
		"fmt":   {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/recording?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", musicBrainzUserAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: musicbrainz status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Recordings []struct {
			ID   string `json:"id"`
			Tags []struct {
				Name string `json:"name"`
			} `json:"tags"`
			ReleaseGroups []struct {
				Tags []struct {
					Name string `json:"name"`
				} `json:"tags"`
			} `json:"release-groups"`
		} `json:"recordings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(payload.Recordings) == 0 {
		return nil, shared.ErrTrackNotFound
	}

	recording := payload.Recordings[0]
	seen := make(map[string]struct{})
	var tags []string
	add := func(name string) {
		if _, dup := seen[name]; dup || name == "" || len(tags) >= 5 {
			return
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	for _, tag := range recording.Tags {
		add(tag.Name)
	}
	if len(recording.ReleaseGroups) > 0 {
		for _, tag := range recording.ReleaseGroups[0].Tags {
			add(tag.Name)
		}
	}

	return &MusicBrainzRecording{MBID: recording.ID, Tags: tags}, nil
}
