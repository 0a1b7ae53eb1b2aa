package ui

import (
	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/tasks"
)

// playlistsFetchedMsg delivers the source playlist listing.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// entriesFetchedMsg delivers a selected playlist's entries for preview.
type entriesFetchedMsg struct {
	playlist models.Playlist
	entries  []models.PlaylistEntry
	err      error
}

// progressUpdateMsg carries one engine progress update into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg delivers the final report once the run finishes.
type syncCompleteMsg struct {
	report *models.SyncReport
	err    error
}
