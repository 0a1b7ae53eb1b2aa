// package services defines the provider catalog interface for music services
//
// Spotify, YouTube
package services

import (
	"context"

	"github.com/tunemerge/tunemerge/internal/models"
)

// Service defines the catalog capability interface for a music provider.
// One implementation exists per provider; the orchestrator selects one by
// provider identifier instead of branching on provider types.
type Service interface {
	// SearchTracks searches the provider catalog for tracks matching the
	// query. Results are returned in the provider's relevance order.
	SearchTracks(ctx context.Context, query string, cred *models.Credential) ([]models.CandidateMatch, error)

	// ListPlaylistTracks retrieves all entries of a playlist in playlist order.
	ListPlaylistTracks(ctx context.Context, playlistID string, cred *models.Credential) ([]models.PlaylistEntry, error)

	// ListPlaylists retrieves the authenticated user's playlists.
	ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error)

	// GetPlaylist retrieves a playlist's metadata by ID.
	GetPlaylist(ctx context.Context, playlistID string, cred *models.Credential) (*models.Playlist, error)

	// CreatePlaylist creates a new playlist and returns its provider ID.
	CreatePlaylist(ctx context.Context, name, description string, private bool, cred *models.Credential) (string, error)

	// AddTracks appends the given provider track IDs to a playlist in order.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string, cred *models.Credential) error

	// Name returns the provider identifier (e.g. "spotify", "youtube")
	Name() string
}
