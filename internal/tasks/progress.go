package tasks

import (
	"fmt"

	"github.com/desertthunder/textify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Line    string // Raw line being resolved, if any
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ResolveLines Phase = iota
	CreatePlaylist
	ApplyMutation
	FetchTracks
)

func (p Phase) String() string {
	switch p {
	case ResolveLines:
		return "resolve_lines"
	case CreatePlaylist:
		return "create_playlist"
	case ApplyMutation:
		return "apply_mutation"
	case FetchTracks:
		return "fetch_tracks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolveStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveLines,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d lines...", total),
	}
}

func resolveLineUpdate(step, total int, line string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveLines,
		Step:    step,
		Total:   total,
		Line:    line,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, line),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func playlistCreatedUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func mutationUpdate(target Target, op Operation, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyMutation,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Applying %s of %d tracks to %s...", op, count, target),
	}
}

func fetchPageUpdate(page, fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("Fetched page %d (%d/%d tracks)", page, fetched, total),
	}
}
