// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyPlaylistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Owner       spotifyOwner             `json:"owner"`
	Public      bool                     `json:"public"`
	Tracks      spotifyPlaylistTracksRef `json:"tracks"`
	URI         string                   `json:"uri"`
}

// SpotifyPlaylistItem represents a track within a playlist context.
type SpotifyPlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type spotifyPlaylistItemsPage struct {
	Items []SpotifyPlaylistItem `json:"items"`
	Total int                   `json:"total"`
	Next  *string               `json:"next"`
}

type spotifyPlaylistsPage struct {
	Items []SpotifyPlaylist `json:"items"`
	Total int               `json:"total"`
	Next  *string           `json:"next"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements [Service] against the Spotify Web API.
//
// Structured catalog: playlist entries carry artist metadata and track IDs,
// so the cross-provider title normalization is unnecessary for this source.
type SpotifyService struct {
	baseURL        string
	httpClient     *http.Client
	paginateSource bool
}

// SpotifyOpts configures a SpotifyService.
type SpotifyOpts struct {
	BaseURL        string       // Override for tests, defaults to the public API
	HTTPClient     *http.Client // Defaults to http.DefaultClient
	PaginateSource bool         // Follow pagination cursors when listing playlist tracks
}

// NewSpotifyService creates a Spotify catalog client.
func NewSpotifyService(opts SpotifyOpts) *SpotifyService {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &SpotifyService{
		baseURL:        opts.BaseURL,
		httpClient:     opts.HTTPClient,
		paginateSource: opts.PaginateSource,
	}
}

func (s *SpotifyService) Name() string {
	return "spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, cred *models.Credential, body, result any) error {
	if cred == nil || cred.AccessToken == "" {
		return fmt.Errorf("%w: no access token for spotify request", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrParseFailed, err)
		}
	}

	return nil
}

// SearchTracks searches the Spotify catalog, returning candidates in
// Spotify's relevance order.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, cred *models.Credential) ([]models.CandidateMatch, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=10", url.QueryEscape(query))

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(response.Tracks.Items))
	for _, track := range response.Tracks.Items {
		candidate := models.CandidateMatch{
			ProviderTrackID: track.ID,
			Name:            track.Name,
		}
		if len(track.Artists) > 0 {
			candidate.Artist = track.Artists[0].Name
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// ListPlaylistTracks retrieves the entries of a playlist in playlist order.
//
// By default only the first page is fetched, mirroring the original
// behavior; pagination is followed when the service was built with
// PaginateSource enabled.
func (s *SpotifyService) ListPlaylistTracks(ctx context.Context, playlistID string, cred *models.Credential) ([]models.PlaylistEntry, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	var entries []models.PlaylistEntry
	for {
		var page spotifyPlaylistItemsPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			entry := models.PlaylistEntry{
				Title:           item.Track.Name,
				ProviderTrackID: item.Track.ID,
			}
			if len(item.Track.Artists) > 0 {
				entry.Artist = item.Track.Artists[0].Name
			}
			entries = append(entries, entry)
		}

		if !s.paginateSource || page.Next == nil || *page.Next == "" {
			break
		}

		next, err := url.Parse(*page.Next)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pagination cursor: %v", shared.ErrParseFailed, err)
		}

		// The cursor is an absolute URL whose path repeats the base
		// URL's /v1 prefix; doRequest prepends the base URL again.
		path := next.Path
		if base, err := url.Parse(s.baseURL); err == nil {
			path = strings.TrimPrefix(path, base.Path)
		}
		endpoint = path
		if next.RawQuery != "" {
			endpoint = path + "?" + next.RawQuery
		}
	}

	return entries, nil
}

// ListPlaylists retrieves the current user's playlists (first page of 50).
func (s *SpotifyService) ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error) {
	var page spotifyPlaylistsPage
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists?limit=50", cred, nil, &page); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, sp := range page.Items {
		playlists = append(playlists, models.Playlist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			TrackCount:  sp.Tracks.Total,
			Public:      sp.Public,
		})
	}

	return playlists, nil
}

// GetPlaylist retrieves a playlist's metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string, cred *models.Credential) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &sp); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// CreatePlaylist creates a playlist for the current user and returns its ID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, private bool, cred *models.Credential) (string, error) {
	var me struct {
		ID string `json:"id"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me", cred, nil, &me); err != nil {
		return "", err
	}
	if me.ID == "" {
		return "", fmt.Errorf("%w: user profile missing id", shared.ErrParseFailed)
	}

	createReq := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}{
		Name:        name,
		Description: description,
		Public:      !private,
	}

	var created struct {
		ID string `json:"id"`
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(me.ID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, cred, createReq, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create playlist response missing id", shared.ErrParseFailed)
	}

	return created.ID, nil
}

// AddTracks appends tracks to a playlist in the given order.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string, cred *models.Credential) error {
	if len(trackIDs) == 0 {
		return nil
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}

	addReq := struct {
		URIs []string `json:"uris"`
	}{URIs: uris}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, cred, addReq, nil)
}
