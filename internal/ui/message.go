package ui

import (
	"github.com/desertthunder/mixspace/internal/models"
)

// playlistsLoadedMsg carries the playlist list for the current space filter.
type playlistsLoadedMsg struct {
	playlists []*models.Playlist
	err       error
}

// tracksLoadedMsg carries one playlist's tracks in membership order.
type tracksLoadedMsg struct {
	playlist *models.Playlist
	tracks   []*models.Track
	err      error
}
