package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

func youtubeCred() *models.Credential {
	return &models.Credential{
		UserID:      "user-1",
		Provider:    "youtube",
		AccessToken: "youtube_access_token",
	}
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{})
			if svc.baseURL != youtubeBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", youtubeBaseURL, svc.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if svc := NewYouTubeService(YouTubeOpts{BaseURL: customURL}); svc.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService(YouTubeOpts{}); svc.Name() != "youtube" {
			t.Errorf("expected name to be 'youtube', got %s", svc.Name())
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("type") != "video" {
				t.Errorf("expected type=video, got %s", r.URL.Query().Get("type"))
			}
			if r.Header.Get("Authorization") != "Bearer youtube_access_token" {
				t.Errorf("expected bearer auth header, got %q", r.Header.Get("Authorization"))
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id": map[string]any{"kind": "youtube#video", "videoId": "vid1"},
						"snippet": map[string]any{
							"title":        "Kavinsky - Nightcall (Official Video)",
							"channelTitle": "KavinskyVEVO",
						},
					},
					{
						"id": map[string]any{"kind": "youtube#video", "videoId": "vid2"},
						"snippet": map[string]any{
							"title":        "Nightcall (Lyrics)",
							"channelTitle": "LyricChannel",
						},
					},
				},
			})
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})

		candidates, err := svc.SearchTracks(ctx, "Kavinsky Nightcall", youtubeCred())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		if candidates[0].ProviderTrackID != "vid1" {
			t.Errorf("expected first candidate vid1, got %s", candidates[0].ProviderTrackID)
		}
		if candidates[0].Name != "Kavinsky - Nightcall (Official Video)" {
			t.Errorf("unexpected candidate name %q", candidates[0].Name)
		}
	})

	t.Run("ListPlaylistTracks", func(t *testing.T) {
		t.Run("single page by default", func(t *testing.T) {
			var requests int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				if r.URL.Path != "/playlistItems" {
					t.Errorf("expected path /playlistItems, got %s", r.URL.Path)
				}
				if r.URL.Query().Get("playlistId") != "PLyt1" {
					t.Errorf("expected playlistId PLyt1, got %s", r.URL.Query().Get("playlistId"))
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{
						{
							"id": "item1",
							"snippet": map[string]any{
								"title":      "Daft Punk - One More Time (Official Video)",
								"resourceId": map[string]any{"videoId": "vid1"},
							},
						},
					},
					"nextPageToken": "CAUQAA",
				})
			}))
			defer server.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})

			entries, err := svc.ListPlaylistTracks(ctx, "PLyt1", youtubeCred())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if requests != 1 {
				t.Errorf("expected 1 request without pagination, got %d", requests)
			}
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0].Structured() {
				t.Error("expected youtube entry to be free-text, not structured")
			}
			if entries[0].ProviderTrackID != "vid1" {
				t.Errorf("expected video id vid1, got %s", entries[0].ProviderTrackID)
			}
		})

		t.Run("follows page token when pagination enabled", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")

				if r.URL.Query().Get("pageToken") == "" {
					json.NewEncoder(w).Encode(map[string]any{
						"items": []map[string]any{
							{"snippet": map[string]any{
								"title":      "First",
								"resourceId": map[string]any{"videoId": "v1"},
							}},
						},
						"nextPageToken": "tok2",
					})
					return
				}

				if r.URL.Query().Get("pageToken") != "tok2" {
					t.Errorf("expected pageToken tok2, got %s", r.URL.Query().Get("pageToken"))
				}
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{
						{"snippet": map[string]any{
							"title":      "Second",
							"resourceId": map[string]any{"videoId": "v2"},
						}},
					},
				})
			}))
			defer server.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL, PaginateSource: true})

			entries, err := svc.ListPlaylistTracks(ctx, "PLyt1", youtubeCred())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries across pages, got %d", len(entries))
			}
			if entries[0].Title != "First" || entries[1].Title != "Second" {
				t.Errorf("expected page order preserved, got %+v", entries)
			}
		})
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists" {
				t.Errorf("expected path /playlists, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id": "PLyt1",
						"snippet": map[string]any{
							"title":       "Synthwave",
							"description": "Neon tracks",
						},
						"contentDetails": map[string]any{"itemCount": 17},
						"status":         map[string]any{"privacyStatus": "private"},
					},
				},
			})
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})

		playlist, err := svc.GetPlaylist(ctx, "PLyt1", youtubeCred())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.Name != "Synthwave" || playlist.TrackCount != 17 || playlist.Public {
			t.Errorf("unexpected playlist %+v", playlist)
		}

		t.Run("not found", func(t *testing.T) {
			empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
			}))
			defer empty.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: empty.URL})
			if _, err := svc.GetPlaylist(ctx, "missing", youtubeCred()); !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists" || r.Method != http.MethodPost {
				t.Errorf("expected POST /playlists, got %s %s", r.Method, r.URL.Path)
			}

			var body struct {
				Snippet struct {
					Title string `json:"title"`
				} `json:"snippet"`
				Status struct {
					PrivacyStatus string `json:"privacyStatus"`
				} `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode create body: %v", err)
			}
			if body.Snippet.Title != "Synthwave (TuneMerge)" {
				t.Errorf("unexpected playlist title %q", body.Snippet.Title)
			}
			if body.Status.PrivacyStatus != "private" {
				t.Errorf("expected private playlist, got %s", body.Status.PrivacyStatus)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "newYTPL"})
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})

		id, err := svc.CreatePlaylist(ctx, "Synthwave (TuneMerge)", "", true, youtubeCred())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != "newYTPL" {
			t.Errorf("expected playlist id newYTPL, got %s", id)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		var inserted []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlistItems" || r.Method != http.MethodPost {
				t.Errorf("expected POST /playlistItems, got %s %s", r.Method, r.URL.Path)
			}

			var body struct {
				Snippet struct {
					PlaylistID string `json:"playlistId"`
					ResourceID struct {
						VideoID string `json:"videoId"`
					} `json:"resourceId"`
				} `json:"snippet"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode insert body: %v", err)
			}
			if body.Snippet.PlaylistID != "newYTPL" {
				t.Errorf("expected playlistId newYTPL, got %s", body.Snippet.PlaylistID)
			}
			inserted = append(inserted, body.Snippet.ResourceID.VideoID)

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})

		if err := svc.AddTracks(ctx, "newYTPL", []string{"v1", "v2", "v3"}, youtubeCred()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(inserted) != 3 || inserted[0] != "v1" || inserted[2] != "v3" {
			t.Errorf("expected one insert per video in order, got %v", inserted)
		}

		t.Run("stops on first failure", func(t *testing.T) {
			var calls int
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls == 2 {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer failing.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: failing.URL})

			err := svc.AddTracks(ctx, "newYTPL", []string{"v1", "v2", "v3"}, youtubeCred())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if calls != 2 {
				t.Errorf("expected insert loop to stop at failure, got %d calls", calls)
			}
		})
	})

	t.Run("error handling", func(t *testing.T) {
		t.Run("missing credential", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{})
			if _, err := svc.SearchTracks(ctx, "query", nil); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("malformed response body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			}))
			defer server.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})
			if _, err := svc.SearchTracks(ctx, "query", youtubeCred()); !errors.Is(err, shared.ErrParseFailed) {
				t.Errorf("expected ErrParseFailed, got %v", err)
			}
		})
	})
}
