package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a snapshot build.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Build phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Build phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	FetchFeatures
	Aggregate
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchFeatures:
		return "fetch_features"
	case Aggregate:
		return "aggregate"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
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
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist (%s)...", name),
	}
}

func foundPlaylistUpdate(name string, slots, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks, %d unavailable)", name, tracks, slots-tracks),
	}
}

func fetchFeaturesUpdate(step, total, fetched, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching audio features (%d/%d tracks)...", step, total, fetched, tracks),
	}
}

func aggregateUpdate(rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Computing correlations and histograms over %d tracks...", rows),
	}
}

func completeUpdate(snapshot *Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Built %s (%d tracks)", snapshot.Playlist.Name, snapshot.Table.Len()),
		Data:    snapshot,
	}
}
