package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/repositories"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
	mixtest "github.com/desertthunder/mixspace/internal/testing"
)

// testStores opens a fresh database and wraps it with the real repositories.
func testStores(t *testing.T) (*repositories.TrackRepository, *repositories.PlaylistRepository) {
	t.Helper()
	db := mixtest.MustOpenDB(t)
	return repositories.NewTrackRepository(db), repositories.NewPlaylistRepository(db)
}

func TestReconciler(t *testing.T) {
	t.Run("MatchesByPlatformID", func(t *testing.T) {
		tracks, _ := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)

		stored := &models.Track{Title: "Seeds", Artist: "Hey Rosetta!", SpotifyID: "spot-1"}
		if err := tracks.Create(stored); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		id, err := reconciler.Reconcile(models.PlatformSpotify, services.Track{
			PlatformID: "spot-1",
			Title:      "Seeds (Remaster)",
			Artist:     "Hey Rosetta!",
		})
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if id != stored.ID {
			t.Errorf("expected existing track %d, got %d", stored.ID, id)
		}
	})

	t.Run("BackfillsPlatformIDOnISRCMatch", func(t *testing.T) {
		tracks, _ := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)

		stored := &models.Track{Title: "Yer Spring", Artist: "Hey Rosetta!", ISRC: "CAB391300102", SpotifyID: "spot-2"}
		if err := tracks.Create(stored); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		id, err := reconciler.Reconcile(models.PlatformTidal, services.Track{
			PlatformID: "tidal-2",
			Title:      "Yer Spring",
			Artist:     "Hey Rosetta!",
			ISRC:       "CAB391300102",
		})
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if id != stored.ID {
			t.Errorf("expected existing track %d, got %d", stored.ID, id)
		}

		retrieved, err := tracks.Get(stored.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.TidalID != "tidal-2" {
			t.Errorf("expected tidal id backfilled, got %q", retrieved.TidalID)
		}
	})

	t.Run("MatchesByTitleArtist", func(t *testing.T) {
		tracks, _ := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)

		stored := &models.Track{Title: "Welcome", Artist: "Hey Rosetta!"}
		if err := tracks.Create(stored); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		id, err := reconciler.Reconcile(models.PlatformYouTube, services.Track{
			PlatformID: "yt-3",
			Title:      "Welcome",
			Artist:     "Hey Rosetta!",
		})
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if id != stored.ID {
			t.Errorf("expected existing track %d, got %d", stored.ID, id)
		}
	})

	t.Run("InsertsNewTrackWithMetadata", func(t *testing.T) {
		tracks, _ := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)

		id, err := reconciler.Reconcile(models.PlatformSpotify, services.Track{
			PlatformID: "spot-4",
			Title:      "Gold Teeth",
			Artist:     "Dance Gavin Dance",
			ISRC:       "USRW31900101",
			Artwork:    "https://img.example/cover.jpg",
		})
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		inserted, err := tracks.Get(id)
		if err != nil {
			t.Fatalf("failed to get inserted track: %v", err)
		}
		if inserted.SpotifyID != "spot-4" {
			t.Errorf("expected spotify id stored, got %q", inserted.SpotifyID)
		}
		if !strings.Contains(inserted.Metadata, `"native_id":"spot-4"`) {
			t.Errorf("metadata blob missing native id: %q", inserted.Metadata)
		}
	})

	t.Run("DefaultsUnknownArtist", func(t *testing.T) {
		tracks, _ := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)

		id, err := reconciler.Reconcile(models.PlatformYouTube, services.Track{
			PlatformID: "yt-5",
			Title:      "Untitled Upload",
		})
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		inserted, _ := tracks.Get(id)
		if inserted.Artist != models.UnknownArtist {
			t.Errorf("expected artist %q, got %q", models.UnknownArtist, inserted.Artist)
		}
	})
}

func TestImporter(t *testing.T) {
	remotePlaylist := &services.Playlist{
		ID:          "ext-100",
		Name:        "Summer Haze",
		Description: "warm weather songs",
		Image:       "",
		TrackCount:  2,
	}
	remoteTracks := []services.Track{
		{PlatformID: "s1", Title: "First", Artist: "Band A"},
		{PlatformID: "s2", Title: "Second", Artist: "Band B"},
	}

	newImporter := func(t *testing.T, mock *mixtest.MockService) (*Importer, *repositories.PlaylistRepository) {
		t.Helper()
		tracks, playlists := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)
		svcs := map[models.Platform]services.Service{models.PlatformSpotify: mock}
		return NewImporter(playlists, reconciler, svcs, nil, nil), playlists
	}

	t.Run("ImportsPlaylist", func(t *testing.T) {
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return remotePlaylist, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return remoteTracks, nil
			},
		}
		importer, playlists := newImporter(t, mock)

		result, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-100", nil)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !result.Success {
			t.Fatalf("expected success, got %+v", result)
		}
		if result.ImportedTracks != 2 || result.TotalTracks != 2 {
			t.Errorf("expected 2/2 tracks, got %d/%d", result.ImportedTracks, result.TotalTracks)
		}

		playlist, err := playlists.Get(result.PlaylistID)
		if err != nil {
			t.Fatalf("failed to get imported playlist: %v", err)
		}
		if playlist.Space != models.SpaceExplore {
			t.Errorf("imported playlist should land in EMS, got %q", playlist.Space)
		}
		if playlist.Status != models.StatusPending {
			t.Errorf("imported playlist should be pending review, got %q", playlist.Status)
		}
		if playlist.Source != models.SourcePlatform {
			t.Errorf("expected Platform source, got %q", playlist.Source)
		}
		if playlist.SourcePlatform != models.PlatformSpotify {
			t.Errorf("expected spotify source platform, got %q", playlist.SourcePlatform)
		}

		stored, _ := playlists.Tracks(result.PlaylistID)
		if len(stored) != 2 || stored[0].Title != "First" || stored[1].Title != "Second" {
			t.Errorf("membership order not preserved: %+v", stored)
		}
	})

	t.Run("SkipsAlreadyImported", func(t *testing.T) {
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return remotePlaylist, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return remoteTracks, nil
			},
		}
		importer, _ := newImporter(t, mock)

		first, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-100", nil)
		if err != nil {
			t.Fatalf("first import failed: %v", err)
		}

		second, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-100", nil)
		if err != nil {
			t.Fatalf("second import errored: %v", err)
		}
		if !second.Skipped {
			t.Error("expected second import to be skipped")
		}
		if second.PlaylistID != first.PlaylistID {
			t.Errorf("skip should reference existing playlist %d, got %d", first.PlaylistID, second.PlaylistID)
		}
	})

	t.Run("EmptyPlaylistCreatesNoRow", func(t *testing.T) {
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return &services.Playlist{ID: "ext-empty", Name: "Empty"}, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return nil, nil
			},
		}
		importer, playlists := newImporter(t, mock)

		result, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-empty", nil)
		if err != nil {
			t.Fatalf("import errored: %v", err)
		}
		if result.Success || result.ImportedTracks != 0 {
			t.Errorf("expected zero-track result, got %+v", result)
		}

		rows, err := playlists.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("no playlist row should exist, got %d", len(rows))
		}
	})

	t.Run("TrackFailuresAreIsolated", func(t *testing.T) {
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return remotePlaylist, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return []services.Track{
					{PlatformID: "s1", Title: "Good", Artist: "Band"},
					{PlatformID: "s2"}, // no title, fails validation
					{PlatformID: "s3", Title: "Also Good", Artist: "Band"},
				}, nil
			},
		}
		importer, playlists := newImporter(t, mock)

		result, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-100", nil)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.ImportedTracks != 2 || result.TotalTracks != 3 {
			t.Errorf("expected 2/3 tracks, got %d/%d", result.ImportedTracks, result.TotalTracks)
		}

		stored, _ := playlists.Tracks(result.PlaylistID)
		if len(stored) != 2 {
			t.Errorf("expected 2 stored tracks, got %d", len(stored))
		}
	})

	t.Run("DeduplicatesRepeatedTracks", func(t *testing.T) {
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return remotePlaylist, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return []services.Track{
					{PlatformID: "s1", Title: "First", Artist: "Band A"},
					{PlatformID: "s2", Title: "Second", Artist: "Band B"},
					{PlatformID: "s1", Title: "First", Artist: "Band A"},
				}, nil
			},
		}
		importer, playlists := newImporter(t, mock)

		result, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-100", nil)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.ImportedTracks != 2 || result.TotalTracks != 3 {
			t.Errorf("expected 2/3 tracks, got %d/%d", result.ImportedTracks, result.TotalTracks)
		}

		stored, _ := playlists.Tracks(result.PlaylistID)
		if len(stored) != 2 || stored[0].Title != "First" || stored[1].Title != "Second" {
			t.Errorf("repeated track should keep its first position only, got %+v", stored)
		}
	})

	t.Run("UnknownPlatform", func(t *testing.T) {
		importer, _ := newImporter(t, &mixtest.MockService{})
		if _, err := importer.Import(context.Background(), "deezer", "token", 1, "x", nil); err == nil {
			t.Error("expected error for unregistered platform")
		}
	})
}

// staticTokens satisfies TokenSource with a fixed token for every platform.
type staticTokens struct{}

func (staticTokens) PlatformToken(ctx context.Context, platform models.Platform) (string, bool) {
	return "token", true
}

// noTokens reports every platform as unauthenticated.
type noTokens struct{}

func (noTokens) PlatformToken(ctx context.Context, platform models.Platform) (string, bool) {
	return "", false
}

func TestClassifyPlatform(t *testing.T) {
	cases := []struct {
		name     string
		playlist models.Playlist
		want     models.Platform
	}{
		{
			name:     "PersistedPlatformWins",
			playlist: models.Playlist{SourcePlatform: models.PlatformYouTube, ExternalID: "0f9dc12b-1111-2222-3333-444455556666"},
			want:     models.PlatformYouTube,
		},
		{
			name:     "TidalUUID",
			playlist: models.Playlist{ExternalID: "0f9dc12b-1111-2222-3333-444455556666"},
			want:     models.PlatformTidal,
		},
		{
			name:     "YouTubePrefix",
			playlist: models.Playlist{ExternalID: "PLabc123"},
			want:     models.PlatformYouTube,
		},
		{
			name:     "YouTubeDescription",
			playlist: models.Playlist{ExternalID: "abc123", Description: "Imported from YouTube"},
			want:     models.PlatformYouTube,
		},
		{
			name:     "DefaultsToSpotify",
			playlist: models.Playlist{ExternalID: "37i9dQZF1DXcBWIGoYBM5M"},
			want:     models.PlatformSpotify,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyPlatform(&tc.playlist); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResyncAll(t *testing.T) {
	importInitial := func(t *testing.T, mock *mixtest.MockService) (*Importer, *repositories.PlaylistRepository, int64) {
		t.Helper()
		tracks, playlists := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)
		svcs := map[models.Platform]services.Service{models.PlatformSpotify: mock}
		importer := NewImporter(playlists, reconciler, svcs, nil, nil)

		result, err := importer.Import(context.Background(), models.PlatformSpotify, "token", 1, "ext-200", nil)
		if err != nil || !result.Success {
			t.Fatalf("seed import failed: result=%+v err=%v", result, err)
		}
		return importer, playlists, result.PlaylistID
	}

	t.Run("ReplacesMembership", func(t *testing.T) {
		current := []services.Track{{PlatformID: "s1", Title: "Old", Artist: "Band"}}
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return &services.Playlist{ID: "ext-200", Name: "Live Set"}, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return current, nil
			},
		}
		importer, playlists, playlistID := importInitial(t, mock)

		// The platform playlist gained a track since import.
		current = []services.Track{
			{PlatformID: "s1", Title: "Old", Artist: "Band"},
			{PlatformID: "s9", Title: "New", Artist: "Band"},
		}

		outcomes, err := importer.ResyncAll(context.Background(), staticTokens{}, nil)
		if err != nil {
			t.Fatalf("resync failed: %v", err)
		}
		if len(outcomes) != 1 || outcomes[0].Error != "" {
			t.Fatalf("unexpected outcomes: %+v", outcomes)
		}
		if outcomes[0].Synced != 2 {
			t.Errorf("expected 2 synced tracks, got %d", outcomes[0].Synced)
		}

		stored, _ := playlists.Tracks(playlistID)
		if len(stored) != 2 {
			t.Errorf("expected membership replaced with 2 tracks, got %d", len(stored))
		}
	})

	t.Run("RepairsStaleExternalID", func(t *testing.T) {
		fresh := []services.Track{{PlatformID: "s1", Title: "Only", Artist: "Band"}}
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return &services.Playlist{ID: "ext-200", Name: "Renamed Set"}, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				if id == "ext-200" {
					return nil, shared.ErrPlaylistNotFound
				}
				return fresh, nil
			},
			SearchPlaylistFn: func(ctx context.Context, token, title string) (*services.Playlist, error) {
				return &services.Playlist{ID: "ext-201", Name: title}, nil
			},
		}

		tracks, playlists := testStores(t)
		reconciler := NewReconciler(tracks, nil, nil)
		svcs := map[models.Platform]services.Service{models.PlatformSpotify: mock}
		importer := NewImporter(playlists, reconciler, svcs, nil, nil)

		seeded := &models.Playlist{
			UserID:         1,
			Title:          "Renamed Set",
			Source:         models.SourcePlatform,
			SourcePlatform: models.PlatformSpotify,
			ExternalID:     "ext-200",
		}
		if err := playlists.Create(seeded); err != nil {
			t.Fatalf("failed to seed playlist: %v", err)
		}

		outcomes, err := importer.ResyncAll(context.Background(), staticTokens{}, nil)
		if err != nil {
			t.Fatalf("resync failed: %v", err)
		}
		if len(outcomes) != 1 || outcomes[0].Error != "" {
			t.Fatalf("unexpected outcomes: %+v", outcomes)
		}

		repaired, err := playlists.Get(seeded.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if repaired.ExternalID != "ext-201" {
			t.Errorf("expected corrected external id ext-201, got %q", repaired.ExternalID)
		}
	})

	t.Run("MissingTokenReportsNotAuthenticated", func(t *testing.T) {
		mock := &mixtest.MockService{
			PlaylistFn: func(ctx context.Context, token, id string) (*services.Playlist, error) {
				return &services.Playlist{ID: "ext-200", Name: "Set"}, nil
			},
			PlaylistTracksFn: func(ctx context.Context, token, id string) ([]services.Track, error) {
				return []services.Track{{PlatformID: "s1", Title: "Only", Artist: "Band"}}, nil
			},
		}
		importer, playlists, playlistID := importInitial(t, mock)

		outcomes, err := importer.ResyncAll(context.Background(), noTokens{}, nil)
		if err != nil {
			t.Fatalf("resync failed: %v", err)
		}
		if len(outcomes) != 1 || outcomes[0].Error == "" {
			t.Fatalf("expected per-playlist error, got %+v", outcomes)
		}

		// Failed playlists keep their previous membership.
		stored, _ := playlists.Tracks(playlistID)
		if len(stored) != 1 {
			t.Errorf("membership should be untouched on failure, got %d tracks", len(stored))
		}
	})
}

func TestMergeGenres(t *testing.T) {
	t.Run("DeduplicatesCaseInsensitively", func(t *testing.T) {
		got := mergeGenres("Pop Punk", []string{"pop punk", "Emo", "emo", "Indie"})
		if got != "Pop Punk, Emo, Indie" {
			t.Errorf("unexpected merge: %q", got)
		}
	})

	t.Run("CapsAtTen", func(t *testing.T) {
		incoming := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
		got := mergeGenres("", incoming)
		if len(strings.Split(got, ", ")) != 10 {
			t.Errorf("expected 10 genres, got %q", got)
		}
	})

	t.Run("EmptyInputs", func(t *testing.T) {
		if got := mergeGenres("", nil); got != "" {
			t.Errorf("expected empty result, got %q", got)
		}
		if got := mergeGenres("rock", []string{"", "  "}); got != "rock" {
			t.Errorf("expected existing genre preserved, got %q", got)
		}
	})
}

func TestComputeScore(t *testing.T) {
	t.Run("FullCoverage", func(t *testing.T) {
		playlist := &models.Playlist{Description: "described", CoverImage: "cover.jpg"}
		tracks := make([]*models.Track, 20)
		for i := range tracks {
			tracks[i] = &models.Track{Genre: "rock", Artwork: "a.jpg", ISRC: "X"}
		}

		if got := computeScore(playlist, tracks); got != 100 {
			t.Errorf("expected 100, got %d", got)
		}
	})

	t.Run("SparseMetadata", func(t *testing.T) {
		playlist := &models.Playlist{}
		tracks := []*models.Track{{}, {}, {}, {}, {}}

		if got := computeScore(playlist, tracks); got != 5 {
			t.Errorf("expected 5 (track count only), got %d", got)
		}
	})

	t.Run("EmptyPlaylist", func(t *testing.T) {
		if got := computeScore(&models.Playlist{}, nil); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("PartialCoverage", func(t *testing.T) {
		playlist := &models.Playlist{Description: "desc"}
		tracks := []*models.Track{
			{Genre: "rock", ISRC: "X"},
			{},
		}

		// 2 count + 15 genre + 0 artwork + 7 isrc + 10 description
		if got := computeScore(playlist, tracks); got != 34 {
			t.Errorf("expected 34, got %d", got)
		}
	})
}

func TestScorer(t *testing.T) {
	t.Run("PersistsScoreAndPromotes", func(t *testing.T) {
		tracks, playlists := testStores(t)

		playlist := &models.Playlist{
			UserID:      1,
			Title:       "Complete",
			Description: "fully tagged",
			CoverImage:  "cover.jpg",
		}
		if err := playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		ids := make([]int64, 0, 20)
		for i := 0; i < 20; i++ {
			track := &models.Track{
				Title:   "T" + string(rune('a'+i)),
				Artist:  "Band",
				Genre:   "rock",
				Artwork: "a.jpg",
				ISRC:    "ISRC" + string(rune('a'+i)),
			}
			if err := tracks.Create(track); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
			ids = append(ids, track.ID)
		}
		if err := playlists.ReplaceTracks(playlist.ID, ids); err != nil {
			t.Fatalf("failed to fill playlist: %v", err)
		}

		scorer := NewScorer(playlists, nil)
		score, err := scorer.Score(playlist.ID)
		if err != nil {
			t.Fatalf("scoring failed: %v", err)
		}
		if score != 100 {
			t.Errorf("expected score 100, got %d", score)
		}

		scored, _ := playlists.Get(playlist.ID)
		if scored.Score != 100 {
			t.Errorf("score not persisted, got %d", scored.Score)
		}
		if scored.Status != models.StatusFeatured {
			t.Errorf("expected promotion to featured, got %q", scored.Status)
		}
	})

	t.Run("MissingPlaylist", func(t *testing.T) {
		_, playlists := testStores(t)
		scorer := NewScorer(playlists, nil)
		if _, err := scorer.Score(9999); err == nil {
			t.Error("expected error for missing playlist")
		}
	})
}

// staticClientToken satisfies ClientTokenSource with a fixed app token.
type staticClientToken struct{}

func (staticClientToken) ClientToken(ctx context.Context) (string, error) {
	return "app-token", nil
}

func TestEnricher(t *testing.T) {
	t.Run("EnqueueNeverBlocks", func(t *testing.T) {
		tracks, _ := testStores(t)
		enricher := NewEnricher(shared.EnrichmentConfig{QueueSize: 1}, tracks, nil, nil, nil, nil, nil)

		// Workers not started; the second enqueue must drop, not block.
		enricher.Enqueue(1)
		enricher.Enqueue(2)
	})

	t.Run("FetchesArtistGenresForStoredSpotifyID", func(t *testing.T) {
		tracks, _ := testStores(t)

		var artistCalls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/tracks/sp-1":
				json.NewEncoder(w).Encode(map[string]any{
					"id":         "sp-1",
					"name":       "Glow",
					"artists":    []map[string]any{{"id": "artist-1", "name": "Neon"}},
					"popularity": 64,
				})
			case "/artists/artist-1":
				artistCalls.Add(1)
				json.NewEncoder(w).Encode(map[string]any{"id": "artist-1", "genres": []string{"synthpop"}})
			case "/audio-features/sp-1":
				json.NewEncoder(w).Encode(map[string]any{"tempo": 118.0})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		track := &models.Track{Title: "Glow", Artist: "Neon", SpotifyID: "sp-1"}
		if err := tracks.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		spotify := services.NewSpotifyService(server.URL, nil)
		cfg := shared.EnrichmentConfig{Workers: 1, Spotify: true}
		enricher := NewEnricher(cfg, tracks, spotify, staticClientToken{}, nil, nil, nil)
		enricher.Start(context.Background())
		enricher.Enqueue(track.ID)
		enricher.Stop()

		if got := artistCalls.Load(); got != 1 {
			t.Errorf("expected one artist lookup, got %d", got)
		}

		enriched, err := tracks.Get(track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if enriched.Genre != "synthpop" {
			t.Errorf("expected artist genre stored, got %q", enriched.Genre)
		}
		if enriched.Popularity != 64 {
			t.Errorf("expected popularity 64, got %d", enriched.Popularity)
		}
	})

	t.Run("StartStopDrains", func(t *testing.T) {
		tracks, _ := testStores(t)

		track := &models.Track{Title: "Queued", Artist: "Band"}
		if err := tracks.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		enricher := NewEnricher(shared.EnrichmentConfig{Workers: 1}, tracks, nil, nil, nil, nil, nil)
		enricher.Start(context.Background())
		enricher.Enqueue(track.ID)
		enricher.Stop()

		// With no providers configured the track is left untouched.
		retrieved, err := tracks.Get(track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.Genre != "" {
			t.Errorf("expected no enrichment, got genre %q", retrieved.Genre)
		}
	})
}
