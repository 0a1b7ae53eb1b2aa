package main

import (
	"context"
	"fmt"

	"github.com/tunemerge/tunemerge/internal/formatter"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistsList lists the authenticated user's playlists for one provider.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")

	svc, err := r.resolveProvider(provider)
	if err != nil {
		return err
	}
	manager, err := r.authManager()
	if err != nil {
		return err
	}

	cred, err := manager.ValidCredential(ctx, r.userID, provider)
	if err != nil {
		return err
	}

	playlists, err := svc.ListPlaylists(ctx, cred)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s playlists (%d)", provider, len(playlists)))
	for i, playlist := range playlists {
		r.writePlain("%d. %s (%d tracks, %s)\n", i+1, playlist.Name, playlist.TrackCount, shared.VisibilityString(playlist.Public))
		r.writePlain("   ID: %s\n", playlist.ID)
	}

	return nil
}

// PlaylistsTracks lists the entries of one playlist.
func (r *Runner) PlaylistsTracks(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")
	playlistID := cmd.String("id")

	svc, err := r.resolveProvider(provider)
	if err != nil {
		return err
	}
	manager, err := r.authManager()
	if err != nil {
		return err
	}

	cred, err := manager.ValidCredential(ctx, r.userID, provider)
	if err != nil {
		return err
	}

	entries, err := svc.ListPlaylistTracks(ctx, playlistID, cred)
	if err != nil {
		return fmt.Errorf("failed to list playlist tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	for i, entry := range entries {
		if entry.Artist != "" {
			r.writePlain("%d. %s - %s\n", i+1, entry.Artist, entry.Title)
		} else {
			r.writePlain("%d. %s\n", i+1, entry.Title)
		}
	}
	r.writePlainln("%d tracks", len(entries))

	return nil
}

// PlaylistsExport writes a playlist to CSV with a JSON metadata sidecar.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")
	playlistID := cmd.String("id")
	output := cmd.String("output")

	svc, err := r.resolveProvider(provider)
	if err != nil {
		return err
	}
	manager, err := r.authManager()
	if err != nil {
		return err
	}

	cred, err := manager.ValidCredential(ctx, r.userID, provider)
	if err != nil {
		return err
	}

	playlist, err := svc.GetPlaylist(ctx, playlistID, cred)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	entries, err := svc.ListPlaylistTracks(ctx, playlistID, cred)
	if err != nil {
		return fmt.Errorf("failed to list playlist tracks: %w", err)
	}

	result, err := formatter.WriteCSVExport(playlist, entries, output)
	if err != nil {
		return err
	}

	r.logger.Info("playlist exported", "playlist", playlist.Name, "tracks", len(entries))
	r.writePlain("✓ Exported %d tracks\n", len(entries))
	r.writePlain("Tracks: %s\n", result.TracksFile)
	r.writePlain("Metadata: %s\n", result.MetadataFile)

	return nil
}
