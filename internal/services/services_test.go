package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/shared"
)

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Playlist Maps Metadata", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl-1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
				t.Errorf("expected bearer token, got %q", got)
			}
			fmt.Fprint(w, `{
				"id": "pl-1",
				"name": "Morning Mix",
				"description": "wake up",
				"owner": {"id": "u1", "display_name": "Avery"},
				"images": [{"url": "https://img/cover.jpg"}],
				"tracks": {"total": 42}
			}`)
		}))
		defer server.Close()

		svc := NewSpotifyService(server.URL, nil)
		playlist, err := svc.Playlist(ctx, "token-1", "pl-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlist.Name != "Morning Mix" || playlist.Owner != "Avery" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if playlist.Image != "https://img/cover.jpg" {
			t.Errorf("expected first image, got %q", playlist.Image)
		}
		if playlist.TrackCount != 42 {
			t.Errorf("expected 42 tracks, got %d", playlist.TrackCount)
		}
	})

	t.Run("PlaylistTracks Follows Pagination", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("offset") == "0" {
				fmt.Fprint(w, `{
					"items": [
						{"track": {
							"id": "sp-1", "name": "First",
							"artists": [{"name": "A"}, {"name": "B"}],
							"album": {"name": "LP", "release_date": "2021-03", "images": [{"url": "https://img/a.jpg"}]},
							"duration_ms": 192500,
							"external_ids": {"isrc": "USAB12100001"},
							"popularity": 61
						}},
						{"track": null}
					],
					"total": 3,
					"next": "more"
				}`)
				return
			}
			fmt.Fprint(w, `{
				"items": [{"track": {"id": "sp-2", "name": "Second", "artists": [{"name": "C"}], "album": {}, "duration_ms": 60000}}],
				"total": 3,
				"next": null
			}`)
		}))
		defer server.Close()

		svc := NewSpotifyService(server.URL, nil)
		tracks, err := svc.PlaylistTracks(ctx, "token-1", "pl-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected null track dropped and both pages walked, got %d tracks", len(tracks))
		}
		first := tracks[0]
		if first.Artist != "A, B" {
			t.Errorf("expected joined artists, got %q", first.Artist)
		}
		if first.Duration != 192 {
			t.Errorf("expected duration in seconds, got %d", first.Duration)
		}
		if first.ISRC != "USAB12100001" || first.Popularity != 61 {
			t.Errorf("unexpected track %+v", first)
		}
		if first.ReleaseDate != "2021-03-01" {
			t.Errorf("expected padded release date, got %q", first.ReleaseDate)
		}
		if first.Artwork != "https://img/a.jpg" {
			t.Errorf("expected album artwork, got %q", first.Artwork)
		}
		if tracks[1].PlatformID != "sp-2" {
			t.Errorf("expected second page track, got %+v", tracks[1])
		}
	})

	t.Run("PlaylistTracks Returns Partial Result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("offset") != "0" {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `{
				"items": [{"track": {"id": "sp-1", "name": "Only", "artists": [{"name": "A"}], "album": {}, "duration_ms": 1000}}],
				"total": 200,
				"next": "more"
			}`)
		}))
		defer server.Close()

		svc := NewSpotifyService(server.URL, nil)
		tracks, err := svc.PlaylistTracks(ctx, "token-1", "pl-1")
		if err != nil {
			t.Fatalf("expected partial result, got error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].PlatformID != "sp-1" {
			t.Errorf("expected first page only, got %+v", tracks)
		}
	})

	t.Run("PlaylistTracks First Page Failure Is An Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		svc := NewSpotifyService(server.URL, nil)
		if _, err := svc.PlaylistTracks(ctx, "bad", "pl-1"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("SearchPlaylist Without Matches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"playlists": {"items": []}}`)
		}))
		defer server.Close()

		svc := NewSpotifyService(server.URL, nil)
		if _, err := svc.SearchPlaylist(ctx, "token-1", "gone"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		value string
		want  int
	}{
		{"PT3M12S", 192},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT0S", 0},
		{"", 0},
		{"3:12", 0},
		{"P1DT1S", 0},
	}

	for _, tc := range cases {
		if got := ParseISODuration(tc.value); got != tc.want {
			t.Errorf("ParseISODuration(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("Without API Key", func(t *testing.T) {
		svc := NewYouTubeService("http://unused", "", nil)
		if svc.Configured() {
			t.Error("expected Configured to report false")
		}
		if _, err := svc.Playlist(ctx, "", "PLabc"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("PlaylistTracks Merges Video Details", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("key"); got != "yt-key" {
				t.Errorf("expected api key, got %q", got)
			}
			switch r.URL.Path {
			case "/playlistItems":
				if r.URL.Query().Get("pageToken") == "" {
					fmt.Fprint(w, `{
						"items": [
							{"snippet": {"title": "Video One", "videoOwnerChannelTitle": "Channel A", "thumbnails": {"high": {"url": "https://img/hi.jpg"}}}, "contentDetails": {"videoId": "v1"}},
							{"snippet": {"title": "Deleted video"}, "contentDetails": {"videoId": ""}}
						],
						"nextPageToken": "page2"
					}`)
					return
				}
				fmt.Fprint(w, `{
					"items": [{"snippet": {"title": "Video Two", "thumbnails": {"default": {"url": "https://img/lo.jpg"}}}, "contentDetails": {"videoId": "v2"}}]
				}`)
			case "/videos":
				fmt.Fprint(w, `{
					"items": [
						{"id": "v1", "snippet": {"channelTitle": "Artist One"}, "contentDetails": {"duration": "PT3M12S"}},
						{"id": "v2", "snippet": {}, "contentDetails": {"duration": "PT1H2M3S"}}
					]
				}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, "yt-key", nil)
		tracks, err := svc.PlaylistTracks(ctx, "", "PLabc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected empty video id dropped, got %d tracks", len(tracks))
		}
		if tracks[0].Duration != 192 || tracks[1].Duration != 3723 {
			t.Errorf("expected parsed durations, got %d and %d", tracks[0].Duration, tracks[1].Duration)
		}
		if tracks[0].Artist != "Artist One" {
			t.Errorf("expected channel title from video details, got %q", tracks[0].Artist)
		}
		if tracks[1].Artist != models.UnknownArtist {
			t.Errorf("expected unknown artist fallback, got %q", tracks[1].Artist)
		}
		if tracks[0].Artwork != "https://img/hi.jpg" || tracks[1].Artwork != "https://img/lo.jpg" {
			t.Errorf("unexpected thumbnails %q and %q", tracks[0].Artwork, tracks[1].Artwork)
		}
	})

	t.Run("PlaylistTracks Degrades When Video Lookup Fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/playlistItems":
				fmt.Fprint(w, `{"items": [{"snippet": {"title": "Video One", "videoOwnerChannelTitle": "Channel A"}, "contentDetails": {"videoId": "v1"}}]}`)
			case "/videos":
				w.WriteHeader(http.StatusInternalServerError)
			}
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, "yt-key", nil)
		tracks, err := svc.PlaylistTracks(ctx, "", "PLabc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].Duration != 0 {
			t.Errorf("expected zero duration track, got %+v", tracks)
		}
		if tracks[0].Artist != "Channel A" {
			t.Errorf("expected snippet owner kept, got %q", tracks[0].Artist)
		}
	})

	t.Run("Playlist Without Matches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items": []}`)
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, "yt-key", nil)
		if _, err := svc.Playlist(ctx, "", "PLmissing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestTidalService(t *testing.T) {
	ctx := context.Background()

	t.Run("PlaylistTracks Unwraps Items", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Accept"); got != "application/vnd.tidal.v1+json" {
				t.Errorf("unexpected accept header %q", got)
			}
			if got := r.URL.Query().Get("countryCode"); got != "US" {
				t.Errorf("expected default country code, got %q", got)
			}
			if r.URL.Query().Get("offset") == "0" {
				fmt.Fprint(w, `{
					"items": [
						{"item": {"id": 100, "title": "One", "duration": 210, "isrc": "GBXY12200001", "artists": [{"id": 1, "name": "A"}], "album": {"title": "LP", "releaseDate": "2019-07-01"}, "popularity": 40}, "type": "track"},
						{"item": {"id": 101, "title": "A Video"}, "type": "video"}
					],
					"totalNumberOfItems": 3,
					"limit": 100,
					"offset": 0
				}`)
				return
			}
			fmt.Fprint(w, `{
				"items": [{"item": {"id": 102, "title": "Two", "duration": 95, "artist": {"id": 2, "name": "Solo"}}, "type": "track"}],
				"totalNumberOfItems": 3,
				"limit": 100,
				"offset": 2
			}`)
		}))
		defer server.Close()

		svc := NewTidalService(server.URL, "", nil)
		tracks, err := svc.PlaylistTracks(ctx, "app-token", "9a8b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected video item dropped, got %d tracks", len(tracks))
		}
		if tracks[0].PlatformID != "100" || tracks[0].ISRC != "GBXY12200001" {
			t.Errorf("unexpected first track %+v", tracks[0])
		}
		if tracks[0].Album != "LP" || tracks[0].ReleaseDate != "2019-07-01" {
			t.Errorf("expected album fields mapped, got %+v", tracks[0])
		}
		if tracks[1].Artist != "Solo" {
			t.Errorf("expected singular artist fallback, got %q", tracks[1].Artist)
		}
	})

	t.Run("Playlist Prefers Square Image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"uuid": "9a8b",
				"title": "Deep Cuts",
				"numberOfTracks": 12,
				"image": "wide",
				"squareImage": "square",
				"creator": {"name": "DJ"}
			}`)
		}))
		defer server.Close()

		svc := NewTidalService(server.URL, "DE", nil)
		playlist, err := svc.Playlist(ctx, "app-token", "9a8b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlist.Image != "square" {
			t.Errorf("expected square image preferred, got %q", playlist.Image)
		}
		if playlist.Owner != "DJ" || playlist.TrackCount != 12 {
			t.Errorf("unexpected playlist %+v", playlist)
		}
	})

	t.Run("UserPlaylists Requires User ID", func(t *testing.T) {
		svc := NewTidalService("http://unused", "", nil)
		if _, err := svc.UserPlaylists(ctx, "app-token", "", 10, 0); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("SearchPlaylist Without Matches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"playlists": {"items": []}}`)
		}))
		defer server.Close()

		svc := NewTidalService(server.URL, "", nil)
		if _, err := svc.SearchPlaylist(ctx, "app-token", "gone"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestITunesService(t *testing.T) {
	ctx := context.Background()

	t.Run("Search Maps Results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("entity") != "song" || q.Get("media") != "music" {
				t.Errorf("unexpected query %v", q)
			}
			if q.Get("limit") != "25" {
				t.Errorf("expected default limit, got %q", q.Get("limit"))
			}
			fmt.Fprint(w, `{
				"results": [
					{"trackId": 900, "trackName": "Found", "artistName": "Someone", "collectionName": "LP", "trackTimeMillis": 185000, "artworkUrl100": "https://img/i.jpg", "releaseDate": "2020-05-17T07:00:00Z", "primaryGenreName": "Rock"},
					{"trackId": 901, "trackName": "Anon", "trackTimeMillis": 1000}
				]
			}`)
		}))
		defer server.Close()

		svc := NewITunesService(server.URL)
		tracks, err := svc.Search(ctx, "found", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].PlatformID != "900" || tracks[0].Duration != 185 {
			t.Errorf("unexpected track %+v", tracks[0])
		}
		if tracks[0].ReleaseDate != "2020-05-17" {
			t.Errorf("expected truncated release date, got %q", tracks[0].ReleaseDate)
		}
		if tracks[1].Artist != models.UnknownArtist {
			t.Errorf("expected unknown artist fallback, got %q", tracks[1].Artist)
		}
	})

	t.Run("Search Upstream Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc := NewITunesService(server.URL)
		if _, err := svc.Search(ctx, "anything", 5); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestLastFMService(t *testing.T) {
	ctx := context.Background()

	t.Run("Without API Key", func(t *testing.T) {
		svc := NewLastFMService("http://unused", "")
		if svc.Configured() {
			t.Error("expected Configured to report false")
		}
		if _, err := svc.TopTags(ctx, "Artist", "Title"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("TopTags Caps At Ten", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("method") != "track.getTopTags" || q.Get("api_key") != "fm-key" {
				t.Errorf("unexpected query %v", q)
			}
			fmt.Fprint(w, `{"toptags": {"tag": [
				{"name": "t1", "count": 100}, {"name": "t2", "count": 90}, {"name": "t3", "count": 80},
				{"name": "t4", "count": 70}, {"name": "t5", "count": 60}, {"name": "t6", "count": 50},
				{"name": "t7", "count": 40}, {"name": "t8", "count": 30}, {"name": "t9", "count": 20},
				{"name": "t10", "count": 10}, {"name": "t11", "count": 5}
			]}}`)
		}))
		defer server.Close()

		svc := NewLastFMService(server.URL, "fm-key")
		tags, err := svc.TopTags(ctx, "Artist", "Title")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tags) != 10 {
			t.Fatalf("expected 10 tags, got %d", len(tags))
		}
		if tags[0].Name != "t1" || tags[0].Count != 100 {
			t.Errorf("unexpected first tag %+v", tags[0])
		}
	})

	t.Run("TopTags Surfaces API Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error": 6, "message": "Track not found"}`)
		}))
		defer server.Close()

		svc := NewLastFMService(server.URL, "fm-key")
		if _, err := svc.TopTags(ctx, "Artist", "Missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("TopTags Requires Artist And Title", func(t *testing.T) {
		svc := NewLastFMService("http://unused", "fm-key")
		if _, err := svc.TopTags(ctx, "", "Title"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestMusicBrainzService(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordingByISRC Merges Tags", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got == "" {
				t.Error("expected a descriptive user agent")
			}
			if got := r.URL.Query().Get("query"); got != "isrc:USAB12100001" {
				t.Errorf("unexpected query %q", got)
			}
			fmt.Fprint(w, `{"recordings": [{
				"id": "mbid-1",
				"tags": [{"name": "indie"}, {"name": "rock"}],
				"release-groups": [
					{"tags": [{"name": "rock"}, {"name": "shoegaze"}, {"name": "dream pop"}, {"name": "lo-fi"}, {"name": "extra"}]},
					{"tags": [{"name": "ignored"}]}
				]
			}]}`)
		}))
		defer server.Close()

		svc := NewMusicBrainzService(server.URL)
		recording, err := svc.RecordingByISRC(ctx, "USAB12100001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recording.MBID != "mbid-1" {
			t.Errorf("unexpected mbid %q", recording.MBID)
		}
		want := []string{"indie", "rock", "shoegaze", "dream pop", "lo-fi"}
		if len(recording.Tags) != len(want) {
			t.Fatalf("expected %d deduplicated tags capped at five, got %v", len(want), recording.Tags)
		}
		for i, tag := range want {
			if recording.Tags[i] != tag {
				t.Errorf("tag %d = %q, want %q", i, recording.Tags[i], tag)
			}
		}
	})

	t.Run("RecordingByISRC Without Matches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"recordings": []}`)
		}))
		defer server.Close()

		svc := NewMusicBrainzService(server.URL)
		if _, err := svc.RecordingByISRC(ctx, "ZZZZ00000000"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("RecordingByISRC Requires ISRC", func(t *testing.T) {
		svc := NewMusicBrainzService("http://unused")
		if _, err := svc.RecordingByISRC(ctx, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
