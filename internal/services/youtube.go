// YouTube Data API v3 client
//
// Playlist items paginate with an opaque pageToken; durations come from a
// second /videos lookup as ISO-8601 strings (PT#H#M#S).
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

const youtubePageSize = 50

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts an ISO-8601 duration like "PT3M12S" to whole
// seconds. Unparsable values fall back to zero.
func ParseISODuration(value string) int {
	match := isoDurationPattern.FindStringSubmatch(value)
	if match == nil {
		return 0
	}

	seconds := 0
	for i, factor := range []int{3600, 60, 1} {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return 0
		}
		seconds += n * factor
	}
	return seconds
}

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeThumbnails struct {
	High    *youtubeThumbnail `json:"high"`
	Default *youtubeThumbnail `json:"default"`
}

func (t youtubeThumbnails) best() string {
	if t.High != nil {
		return t.High.URL
	}
	if t.Default != nil {
		return t.Default.URL
	}
	return ""
}

type youtubePlaylistItem struct {
	Snippet struct {
		Title                  string            `json:"title"`
		VideoOwnerChannelTitle string            `json:"videoOwnerChannelTitle"`
		Thumbnails             youtubeThumbnails `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

type youtubeItemPage struct {
	Items         []youtubePlaylistItem `json:"items"`
	NextPageToken string                `json:"nextPageToken"`
}

type youtubeVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// YouTubeService implements [Service] for the YouTube Data API.
//
// Authentication is by API key; the token argument of the [Service] methods
// is ignored.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewYouTubeService creates a YouTube client with the given API key.
func NewYouTubeService(baseURL, apiKey string, logger *log.Logger) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &YouTubeService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (y *YouTubeService) Platform() models.Platform { return models.PlatformYouTube }

func (y *YouTubeService) Name() string { return "YouTube" }

// Configured reports whether an API key is present.
func (y *YouTubeService) Configured() bool { return y.apiKey != "" }

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if y.apiKey == "" {
		return fmt.Errorf("%w: youtube API key not configured", shared.ErrMissingCredentials)
	}

	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: youtube status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Playlist retrieves playlist metadata by id.
func (y *YouTubeService) Playlist(ctx context.Context, _, playlistID string) (*Playlist, error) {
	params := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {playlistID},
	}

	var response struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title        string            `json:"title"`
				Description  string            `json:"description"`
				ChannelTitle string            `json:"channelTitle"`
				Thumbnails   youtubeThumbnails `json:"thumbnails"`
			} `json:"snippet"`
			ContentDetails struct {
				ItemCount int `json:"itemCount"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := y.doRequest(ctx, "/playlists", params, &response); err != nil {
		return nil, err
	}
	if len(response.Items) == 0 {
		return nil, shared.ErrPlaylistNotFound
	}

	item := response.Items[0]
	return &Playlist{
		ID:          item.ID,
		Name:        item.Snippet.Title,
		Description: item.Snippet.Description,
		Owner:       item.Snippet.ChannelTitle,
		Image:       item.Snippet.Thumbnails.best(),
		TrackCount:  item.ContentDetails.ItemCount,
	}, nil
}

// PlaylistTracks walks /playlistItems with pageToken pagination, resolving
// durations and channel titles through /videos per page.
func (y *YouTubeService) PlaylistTracks(ctx context.Context, _, playlistID string) ([]Track, error) {
	var tracks []Track
	pageToken := ""

	for {
		params := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {fmt.Sprintf("%d", youtubePageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page youtubeItemPage
		if err := y.doRequest(ctx, "/playlistItems", params, &page); err != nil {
			if len(tracks) == 0 {
				return nil, err
			}
			y.logger.Warn("pagination aborted, returning partial result", "playlist", playlistID, "fetched", len(tracks), "err", err)
			return tracks, nil
		}
		if len(page.Items) == 0 {
			return tracks, nil
		}

		details := y.videoDetails(ctx, page.Items)

		for _, item := range page.Items {
			videoID := item.ContentDetails.VideoID
			if videoID == "" {
				continue
			}

			track := Track{
				PlatformID: videoID,
				Title:      item.Snippet.Title,
				Artist:     item.Snippet.VideoOwnerChannelTitle,
				Artwork:    item.Snippet.Thumbnails.best(),
			}
			if d, ok := details[videoID]; ok {
				track.Duration = ParseISODuration(d.ContentDetails.Duration)
				if d.Snippet.ChannelTitle != "" {
					track.Artist = d.Snippet.ChannelTitle
				}
			}
			if track.Artist == "" {
				track.Artist = models.UnknownArtist
			}
			tracks = append(tracks, track)
		}

		if page.NextPageToken == "" {
			return tracks, nil
		}
		pageToken = page.NextPageToken

		if err := sleepWithContext(ctx, pageDelay); err != nil {
			return tracks, nil
		}
	}
}

// videoDetails resolves durations for one page of playlist items.
// Failures degrade to zero durations rather than aborting the page.
func (y *YouTubeService) videoDetails(ctx context.Context, items []youtubePlaylistItem) map[string]youtubeVideo {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ContentDetails.VideoID != "" {
			ids = append(ids, item.ContentDetails.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	params := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {strings.Join(ids, ",")},
	}

	var response struct {
		Items []youtubeVideo `json:"items"`
	}
	if err := y.doRequest(ctx, "/videos", params, &response); err != nil {
		y.logger.Warn("video detail lookup failed, durations default to zero", "err", err)
		return nil
	}

	details := make(map[string]youtubeVideo, len(response.Items))
	for _, video := range response.Items {
		details[video.ID] = video
	}
	return details
}

// SearchPlaylist returns the first playlist match for a title.
func (y *YouTubeService) SearchPlaylist(ctx context.Context, _, title string) (*Playlist, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"playlist"},
		"q":          {title},
		"maxResults": {"1"},
	}

	var response struct {
		Items []struct {
			ID struct {
				PlaylistID string `json:"playlistId"`
			} `json:"id"`
			Snippet struct {
				Title        string            `json:"title"`
				Description  string            `json:"description"`
				ChannelTitle string            `json:"channelTitle"`
				Thumbnails   youtubeThumbnails `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := y.doRequest(ctx, "/search", params, &response); err != nil {
		return nil, err
	}
	if len(response.Items) == 0 {
		return nil, shared.ErrPlaylistNotFound
	}

	item := response.Items[0]
	return &Playlist{
		ID:          item.ID.PlaylistID,
		Name:        item.Snippet.Title,
		Description: item.Snippet.Description,
		Owner:       item.Snippet.ChannelTitle,
		Image:       item.Snippet.Thumbnails.best(),
	}, nil
}
