// Package repositories provides SQLite persistence for credentials, cached
// playlists and tracks, and sync run history.
//
// Playlist, track, and sync run repositories implement models.Repository[T]
// with soft deletes and per-table sequence generation. CredentialRepository
// implements auth.CredentialStore so the token lifecycle manager can load
// and persist provider credentials without knowing about SQL.
package repositories
