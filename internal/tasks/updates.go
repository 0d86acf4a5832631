package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	FetchTracks
	Reconcile
	Persist
	Resync
	DownloadCover
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchTracks:
		return "fetch_tracks"
	case Reconcile:
		return "reconcile"
	case Persist:
		return "persist"
	case Resync:
		return "resync"
	case DownloadCover:
		return "download_cover"
	default:
		return ""
	}
}

// sendProgress sends a progress update without blocking.
// A full or nil channel drops the update rather than stalling the operation.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist from %s...", name),
	}
}

func fetchTracksUpdate(fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   fetched,
		Message: fmt.Sprintf("Fetched %d tracks", fetched),
	}
}

func reconcileUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func persistUpdate(title string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %s (%d tracks)", title, count),
	}
}

func resyncUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resync,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Re-syncing: %s", step, total, title),
	}
}
