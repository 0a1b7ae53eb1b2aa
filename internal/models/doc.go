// Package models defines domain entities and persistence interfaces for the TuneMerge sync engine.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs passed through the sync pipeline
//   - [Playlist] : Basic playlist metadata from music providers
//   - [PlaylistEntry] : One source playlist item, structured or free-text
//   - [Credential] : Access/refresh token pair with expiry for one (user, provider)
//   - [TrackQuery] : Normalized (artist, track) guess derived from a raw title
//   - [CandidateMatch] : A scored search result from the target provider
//   - [SyncReport] : Ordered matched/unmatched outcome of one sync run
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [StoredPlaylist] : Cached playlists with provider metadata
//   - [StoredTrack] : Cached tracks seen during sync runs
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
