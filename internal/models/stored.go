package models

import (
	"fmt"
	"time"
)

// base carries the lifecycle fields shared by all persistent entities.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func (b *base) ID() string                  { return b.id }
func (b *base) SetID(id string)             { b.id = id }
func (b *base) Sequence() int               { return b.sequence }
func (b *base) CreatedAt() time.Time        { return b.createdAt }
func (b *base) UpdatedAt() time.Time        { return b.updatedAt }
func (b *base) SetUpdatedAt(t time.Time)    { b.updatedAt = t }
func (b *base) DeletedAt() *time.Time       { return b.deletedAt }
func (b *base) SetDeletedAt(t *time.Time)   { b.deletedAt = t }
func (b *base) SetCreatedAt(t time.Time)    { b.createdAt = t }

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

// StoredPlaylist is a cached playlist as last seen on a provider.
type StoredPlaylist struct {
	base
	userID             string
	provider           string
	providerPlaylistID string
	name               string
	description        string
	trackCount         int
	public             bool
}

// NewStoredPlaylist creates a cached playlist record from provider metadata.
func NewStoredPlaylist(sequence int, userID, provider, providerPlaylistID string, pl Playlist) *StoredPlaylist {
	return &StoredPlaylist{
		base:               newBase(sequence),
		userID:             userID,
		provider:           provider,
		providerPlaylistID: providerPlaylistID,
		name:               pl.Name,
		description:        pl.Description,
		trackCount:         pl.TrackCount,
		public:             pl.Public,
	}
}

func (p *StoredPlaylist) UserID() string             { return p.userID }
func (p *StoredPlaylist) Provider() string           { return p.provider }
func (p *StoredPlaylist) ProviderPlaylistID() string { return p.providerPlaylistID }
func (p *StoredPlaylist) Name() string               { return p.name }
func (p *StoredPlaylist) Description() string        { return p.description }
func (p *StoredPlaylist) TrackCount() int            { return p.trackCount }
func (p *StoredPlaylist) Public() bool               { return p.public }

func (p *StoredPlaylist) SetName(name string)        { p.name = name }
func (p *StoredPlaylist) SetDescription(desc string) { p.description = desc }
func (p *StoredPlaylist) SetTrackCount(n int)        { p.trackCount = n }
func (p *StoredPlaylist) SetPublic(public bool)      { p.public = public }

// Validate checks required fields for persistence.
func (p *StoredPlaylist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("stored playlist missing user id")
	}
	if p.provider == "" {
		return fmt.Errorf("stored playlist missing provider")
	}
	if p.providerPlaylistID == "" {
		return fmt.Errorf("stored playlist missing provider playlist id")
	}
	if p.name == "" {
		return fmt.Errorf("stored playlist missing name")
	}
	return nil
}

// Playlist converts the stored record back to its DTO form.
func (p *StoredPlaylist) Playlist() Playlist {
	return Playlist{
		ID:          p.providerPlaylistID,
		Name:        p.name,
		Description: p.description,
		TrackCount:  p.trackCount,
		Public:      p.public,
	}
}

// StoredTrack is a cached track seen during a sync run.
type StoredTrack struct {
	base
	provider        string
	providerTrackID string
	title           string
	artist          string
	album           string
	duration        int
}

// NewStoredTrack creates a cached track record.
func NewStoredTrack(sequence int, provider, providerTrackID, title, artist, album string, duration int) *StoredTrack {
	return &StoredTrack{
		base:            newBase(sequence),
		provider:        provider,
		providerTrackID: providerTrackID,
		title:           title,
		artist:          artist,
		album:           album,
		duration:        duration,
	}
}

func (t *StoredTrack) Provider() string        { return t.provider }
func (t *StoredTrack) ProviderTrackID() string { return t.providerTrackID }
func (t *StoredTrack) Title() string           { return t.title }
func (t *StoredTrack) Artist() string          { return t.artist }
func (t *StoredTrack) Album() string           { return t.album }
func (t *StoredTrack) Duration() int           { return t.duration }

// Validate checks required fields for persistence.
func (t *StoredTrack) Validate() error {
	if t.provider == "" {
		return fmt.Errorf("stored track missing provider")
	}
	if t.providerTrackID == "" {
		return fmt.Errorf("stored track missing provider track id")
	}
	if t.title == "" {
		return fmt.Errorf("stored track missing title")
	}
	return nil
}
