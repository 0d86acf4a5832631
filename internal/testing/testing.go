// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/desertthunder/mixspace/internal/models"
	"github.com/desertthunder/mixspace/internal/services"
	"github.com/desertthunder/mixspace/internal/shared"
)

// MustOpenDB opens an in-memory SQLite database with all migrations applied.
// The handle is closed when the test ends.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// MockService is a configurable test double for [services.Service].
//
// Unset funcs report not-found rather than panicking.
type MockService struct {
	PlatformValue    models.Platform
	PlaylistFn       func(ctx context.Context, token, playlistID string) (*services.Playlist, error)
	PlaylistTracksFn func(ctx context.Context, token, playlistID string) ([]services.Track, error)
	SearchPlaylistFn func(ctx context.Context, token, title string) (*services.Playlist, error)
}

func (m *MockService) Platform() models.Platform {
	if m.PlatformValue == models.PlatformUnknown {
		return models.PlatformSpotify
	}
	return m.PlatformValue
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) Playlist(ctx context.Context, token, playlistID string) (*services.Playlist, error) {
	if m.PlaylistFn != nil {
		return m.PlaylistFn(ctx, token, playlistID)
	}
	return nil, shared.ErrPlaylistNotFound
}

func (m *MockService) PlaylistTracks(ctx context.Context, token, playlistID string) ([]services.Track, error) {
	if m.PlaylistTracksFn != nil {
		return m.PlaylistTracksFn(ctx, token, playlistID)
	}
	return nil, shared.ErrPlaylistNotFound
}

func (m *MockService) SearchPlaylist(ctx context.Context, token, title string) (*services.Playlist, error) {
	if m.SearchPlaylistFn != nil {
		return m.SearchPlaylistFn(ctx, token, title)
	}
	return nil, shared.ErrPlaylistNotFound
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
