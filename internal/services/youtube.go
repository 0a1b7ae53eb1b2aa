// YouTube Data API implementation of [Service]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

type youtubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubeSnippet struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ChannelTitle string            `json:"channelTitle"`
	ResourceID   youtubeResourceID `json:"resourceId"`
	Position     int               `json:"position"`
	PlaylistID   string            `json:"playlistId"`
}

type youtubeSearchItem struct {
	ID      youtubeResourceID `json:"id"`
	Snippet youtubeSnippet    `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items         []youtubeSearchItem `json:"items"`
	NextPageToken string              `json:"nextPageToken"`
}

type youtubePlaylistItem struct {
	ID      string         `json:"id"`
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubePlaylistItemsPage struct {
	Items         []youtubePlaylistItem `json:"items"`
	NextPageToken string                `json:"nextPageToken"`
}

type youtubeContentDetails struct {
	ItemCount int `json:"itemCount"`
}

type youtubePlaylist struct {
	ID             string                `json:"id"`
	Snippet        youtubeSnippet        `json:"snippet"`
	ContentDetails youtubeContentDetails `json:"contentDetails"`
	Status         struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

type youtubePlaylistsPage struct {
	Items         []youtubePlaylist `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

// YouTubeService implements [Service] against the YouTube Data API v3.
//
// Free-text catalog: playlist entries carry the raw video title only, so
// sources read from YouTube go through title normalization before search.
type YouTubeService struct {
	baseURL        string
	httpClient     *http.Client
	paginateSource bool
}

// YouTubeOpts configures a YouTubeService.
type YouTubeOpts struct {
	BaseURL        string       // Override for tests, defaults to the public API
	HTTPClient     *http.Client // Defaults to http.DefaultClient
	PaginateSource bool         // Follow page tokens when listing playlist items
}

// NewYouTubeService creates a YouTube catalog client.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = youtubeBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:        opts.BaseURL,
		httpClient:     opts.HTTPClient,
		paginateSource: opts.PaginateSource,
	}
}

func (s *YouTubeService) Name() string {
	return "youtube"
}

// doRequest performs an authenticated HTTP request to the YouTube API.
func (s *YouTubeService) doRequest(ctx context.Context, method, endpoint string, cred *models.Credential, body, result any) error {
	if cred == nil || cred.AccessToken == "" {
		return fmt.Errorf("%w: no access token for youtube request", shared.ErrNotAuthenticated)
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
		return fmt.Errorf("%w: youtube returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrParseFailed, err)
		}
	}

	return nil
}

// SearchTracks searches YouTube for videos matching the query, returning
// candidates in YouTube's relevance order.
func (s *YouTubeService) SearchTracks(ctx context.Context, query string, cred *models.Credential) ([]models.CandidateMatch, error) {
	endpoint := fmt.Sprintf("/search?part=snippet&type=video&maxResults=10&q=%s", url.QueryEscape(query))

	var response youtubeSearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(response.Items))
	for _, item := range response.Items {
		candidates = append(candidates, models.CandidateMatch{
			ProviderTrackID: item.ID.VideoID,
			Name:            item.Snippet.Title,
			Artist:          item.Snippet.ChannelTitle,
		})
	}

	return candidates, nil
}

// ListPlaylistTracks retrieves the items of a playlist in playlist order.
// Entries carry the raw video title; artist metadata is not available.
func (s *YouTubeService) ListPlaylistTracks(ctx context.Context, playlistID string, cred *models.Credential) ([]models.PlaylistEntry, error) {
	base := fmt.Sprintf("/playlistItems?part=snippet&maxResults=50&playlistId=%s", url.QueryEscape(playlistID))
	endpoint := base

	var entries []models.PlaylistEntry
	for {
		var page youtubePlaylistItemsPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			entries = append(entries, models.PlaylistEntry{
				Title:           item.Snippet.Title,
				ProviderTrackID: item.Snippet.ResourceID.VideoID,
			})
		}

		if !s.paginateSource || page.NextPageToken == "" {
			break
		}
		endpoint = base + "&pageToken=" + url.QueryEscape(page.NextPageToken)
	}

	return entries, nil
}

// ListPlaylists retrieves the current user's playlists (first page of 50).
func (s *YouTubeService) ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error) {
	var page youtubePlaylistsPage
	endpoint := "/playlists?part=snippet,contentDetails,status&mine=true&maxResults=50"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &page); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, yp := range page.Items {
		playlists = append(playlists, models.Playlist{
			ID:          yp.ID,
			Name:        yp.Snippet.Title,
			Description: yp.Snippet.Description,
			TrackCount:  yp.ContentDetails.ItemCount,
			Public:      yp.Status.PrivacyStatus == "public",
		})
	}

	return playlists, nil
}

// GetPlaylist retrieves a playlist's metadata by ID.
func (s *YouTubeService) GetPlaylist(ctx context.Context, playlistID string, cred *models.Credential) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists?part=snippet,contentDetails,status&id=%s", url.QueryEscape(playlistID))

	var page youtubePlaylistsPage
	if err := s.doRequest(ctx, http.MethodGet, endpoint, cred, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	yp := page.Items[0]
	return &models.Playlist{
		ID:          yp.ID,
		Name:        yp.Snippet.Title,
		Description: yp.Snippet.Description,
		TrackCount:  yp.ContentDetails.ItemCount,
		Public:      yp.Status.PrivacyStatus == "public",
	}, nil
}

// CreatePlaylist creates a playlist for the current user and returns its ID.
func (s *YouTubeService) CreatePlaylist(ctx context.Context, name, description string, private bool, cred *models.Credential) (string, error) {
	privacy := "public"
	if private {
		privacy = "private"
	}

	createReq := map[string]any{
		"snippet": map[string]string{
			"title":       name,
			"description": description,
		},
		"status": map[string]string{
			"privacyStatus": privacy,
		},
	}

	var created youtubePlaylist
	if err := s.doRequest(ctx, http.MethodPost, "/playlists?part=snippet,status", cred, createReq, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create playlist response missing id", shared.ErrParseFailed)
	}

	return created.ID, nil
}

// AddTracks appends videos to a playlist one at a time, preserving order.
// The playlistItems endpoint accepts a single resource per insert.
func (s *YouTubeService) AddTracks(ctx context.Context, playlistID string, trackIDs []string, cred *models.Credential) error {
	for _, videoID := range trackIDs {
		insertReq := map[string]any{
			"snippet": map[string]any{
				"playlistId": playlistID,
				"resourceId": map[string]string{
					"kind":    "youtube#video",
					"videoId": videoID,
				},
			},
		}

		if err := s.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet", cred, insertReq, nil); err != nil {
			return fmt.Errorf("failed to add video %s: %w", videoID, err)
		}
	}

	return nil
}
