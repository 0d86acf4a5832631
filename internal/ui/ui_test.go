package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixspace/internal/models"
)

// fakeLibrary serves canned playlists and tracks to the model.
type fakeLibrary struct {
	playlists []*models.Playlist
	tracks    []*models.Track
	err       error

	lastCriteria map[string]any
}

func (f *fakeLibrary) List(criteria map[string]any) ([]*models.Playlist, error) {
	f.lastCriteria = criteria
	return f.playlists, f.err
}

func (f *fakeLibrary) Tracks(playlistID int64) ([]*models.Track, error) {
	return f.tracks, f.err
}

// run executes a command and feeds its message back into the model.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next
}

func TestModelLoadsPlaylists(t *testing.T) {
	library := &fakeLibrary{playlists: []*models.Playlist{
		{ID: 1, Title: "Morning Mix", Space: models.SpaceExplore, Status: models.StatusImported},
		{ID: 2, Title: "Deep Cuts", Space: models.SpaceCurated, Status: models.StatusPending},
	}}

	model := NewModel(library)
	next := run(t, model, model.Init())

	m, ok := next.(*Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	if m.view != PlaylistListView {
		t.Errorf("expected playlist view, got %d", m.view)
	}
	if got := len(m.playlistList.Items()); got != 2 {
		t.Errorf("expected 2 playlists listed, got %d", got)
	}
	if len(library.lastCriteria) != 0 {
		t.Errorf("expected unfiltered initial load, got %v", library.lastCriteria)
	}
}

func TestModelCyclesSpaceFilter(t *testing.T) {
	library := &fakeLibrary{}
	model := NewModel(library)
	run(t, model, model.Init())

	next, cmd := model.Update(tea.KeyMsg{Type: tea.KeyTab})
	run(t, next, cmd)

	if library.lastCriteria["space"] != models.SpaceExplore {
		t.Errorf("expected explore filter after one tab, got %v", library.lastCriteria)
	}
}

func TestModelShowsTracksOnEnter(t *testing.T) {
	library := &fakeLibrary{
		playlists: []*models.Playlist{{ID: 1, Title: "Morning Mix"}},
		tracks:    []*models.Track{{ID: 10, Title: "One", Artist: "A"}},
	}

	model := NewModel(library)
	run(t, model, model.Init())

	next, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, next, cmd)

	if model.view != TrackListView {
		t.Errorf("expected track view, got %d", model.view)
	}
	if got := len(model.trackList.Items()); got != 1 {
		t.Errorf("expected 1 track listed, got %d", got)
	}
	if model.selected == nil || model.selected.Title != "Morning Mix" {
		t.Errorf("expected selection recorded, got %+v", model.selected)
	}
}

func TestModelErrorQuits(t *testing.T) {
	library := &fakeLibrary{err: errors.New("db closed")}
	model := NewModel(library)

	next, cmd := model.Update(model.Init()())
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	m := next.(*Model)
	if m.err == nil {
		t.Error("expected error recorded")
	}
}
