package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixspace/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist *models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Title }
func (i playlistItem) Title() string       { return i.playlist.Title }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%s · %s", i.playlist.Space, i.playlist.Status)
	if i.playlist.SourcePlatform != models.PlatformUnknown {
		desc = fmt.Sprintf("%s · %s", desc, i.playlist.SourcePlatform)
	}
	if i.playlist.Score > 0 {
		desc = fmt.Sprintf("%s · score %d", desc, i.playlist.Score)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track *models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s · %s", desc, i.track.Album)
	}
	if i.track.Genre != "" {
		desc = fmt.Sprintf("%s · %s", desc, i.track.Genre)
	}
	return desc
}
