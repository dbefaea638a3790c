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
	FetchPlaylists Phase = iota
	FetchTracks
	NormalizeTracks
	CacheTracks
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case NormalizeTracks:
		return "normalize_tracks"
	case CacheTracks:
		return "cache_tracks"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: "Fetching your playlists...",
	}
}

func fetchTracksUpdate(fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks... (%d/%d)", fetched, total),
	}
}

func normalizedUpdate(playable, raw int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   NormalizeTracks,
		Step:    playable,
		Total:   raw,
		Message: fmt.Sprintf("Found %d playable tracks out of %d", playable, raw),
	}
}

func cachedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheTracks,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Cached %d tracks", count),
	}
}
