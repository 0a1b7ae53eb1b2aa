package models

import "time"

// Playlist represents a music playlist from any provider
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// PlaylistEntry represents one item of a source playlist.
//
// Entries from structured catalogs (Spotify) carry Artist and ProviderTrackID;
// entries from free-text catalogs (YouTube) carry only the raw Title.
type PlaylistEntry struct {
	Title           string
	Artist          string
	ProviderTrackID string
}

// Structured reports whether the entry already carries provider-native
// artist metadata, making title normalization unnecessary.
func (e PlaylistEntry) Structured() bool {
	return e.Artist != ""
}

// Credential holds the access/refresh token pair for one (user, provider).
//
// ExpiresAt is always set whenever AccessToken is set. Refresh mutates the
// record in place; the sync core never deletes credentials.
type Credential struct {
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TrackQuery is the normalized search query derived from one source entry.
// Ephemeral: created per entry and discarded after matching.
type TrackQuery struct {
	Raw    string // Original title as the source provider reported it
	Artist string // Artist guess, empty when no separator was found
	Track  string // Track title guess
}

// Terms returns the text to submit to a provider search.
func (q TrackQuery) Terms() string {
	if q.Artist == "" {
		return q.Track
	}
	return q.Artist + " " + q.Track
}

// CandidateMatch is a single scored search result from the target provider.
type CandidateMatch struct {
	ProviderTrackID string  `json:"id"`
	Name            string  `json:"name"`
	Artist          string  `json:"artist"`
	Similarity      float64 `json:"similarity"`
}

// SyncReport is the outcome of one sync run.
//
// Matched and Unmatched preserve source playlist order. Immutable once
// returned by the orchestrator.
type SyncReport struct {
	SourceName       string           `json:"source_name,omitempty"`
	TargetPlaylistID string           `json:"target_playlist_id,omitempty"`
	Matched          []CandidateMatch `json:"matched"`
	Unmatched        []string         `json:"unmatched"`
}
