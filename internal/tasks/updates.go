package tasks

import (
	"fmt"

	"github.com/tunemerge/tunemerge/internal/models"
)

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
	Authenticating Phase = iota
	FetchSource
	FetchTarget
	MatchTracks
	CreateTarget
	AddTracks
	Compare
	Reporting
)

func (p Phase) String() string {
	switch p {
	case Authenticating:
		return "authenticating"
	case FetchSource:
		return "fetch_source"
	case FetchTarget:
		return "fetch_target"
	case MatchTracks:
		return "match_tracks"
	case CreateTarget:
		return "create_target"
	case AddTracks:
		return "add_tracks"
	case Compare:
		return "compare"
	case Reporting:
		return "reporting"
	default:
		return ""
	}
}

func authenticatingUpdate(provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticating,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Checking %s credentials...", provider),
	}
}

func fetchSourceUpdate(provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source playlist from %s...", provider),
	}
}

func foundSourceUpdate(playlist *models.Playlist, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", playlist.Name, trackCount),
		Data:    playlist,
	}
}

func fetchTargetUpdate(provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist from %s...", provider),
	}
}

func matchTrackUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func matchMissUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s", step, total, title),
	}
}

func createTargetUpdate(provider, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on %s...", name, provider),
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func compareUpdate(matched, sourceTotal int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Compared: %d of %d source tracks present", matched, sourceTotal),
	}
}

func reportUpdate(report *models.SyncReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reporting,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Done: %d matched, %d unmatched", len(report.Matched), len(report.Unmatched)),
		Data:    report,
	}
}
