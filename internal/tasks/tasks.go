package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/tunemerge/tunemerge/internal/auth"
	"github.com/tunemerge/tunemerge/internal/match"
	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/services"
	"github.com/tunemerge/tunemerge/internal/shared"
)

// playlistNameSuffix marks playlists created by a sync run.
const playlistNameSuffix = " (TuneMerge)"

// CompareResult contains the differences between two playlists.
type CompareResult struct {
	SourcePlaylist *models.Playlist
	TargetPlaylist *models.Playlist
	MatchedCount   int
	MissingInDest  []models.PlaylistEntry // Entries in source but not in target
	ExtraInDest    []models.PlaylistEntry // Entries in target but not in source
}

// TrackCacher persists matched tracks during a sync run.
//
// Caching is opportunistic: failures are logged and never interrupt a run.
type TrackCacher interface {
	CacheMatch(provider string, match models.CandidateMatch) error
}

// SyncEngine defines playlist operations across providers.
type SyncEngine interface {
	// SyncPlaylist copies a playlist from one provider to another, matching
	// each source entry against the target catalog.
	SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, userID, sourcePlaylistID, sourceProvider, targetProvider string) (*models.SyncReport, error)

	// Compare diffs two playlists across providers by normalized title/artist key.
	Compare(ctx context.Context, progress chan<- ProgressUpdate, userID, sourceProvider, sourcePlaylistID, targetProvider, targetPlaylistID string) (*CompareResult, error)
}

// Engine implements SyncEngine over a registry of provider catalog clients.
type Engine struct {
	providers map[string]services.Service
	auth      *auth.Manager
	cfg       shared.SyncConfig
	limiter   *rate.Limiter
	cache     TrackCacher
	logger    *log.Logger
}

// EngineOpts configures an Engine.
type EngineOpts struct {
	Providers map[string]services.Service
	Auth      *auth.Manager
	Sync      shared.SyncConfig
	Cache     TrackCacher // Optional matched-track cache
	Logger    *log.Logger
}

// NewEngine creates a sync engine with the provided provider registry and
// credential manager.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Providers == nil {
		opts.Providers = map[string]services.Service{}
	}

	searchRate := rate.Limit(opts.Sync.SearchesPerSecond)
	if searchRate <= 0 {
		searchRate = rate.Inf
	}

	return &Engine{
		providers: opts.Providers,
		auth:      opts.Auth,
		cfg:       opts.Sync,
		limiter:   rate.NewLimiter(searchRate, 1),
		cache:     opts.Cache,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func (e *Engine) provider(name string) (services.Service, error) {
	svc, ok := e.providers[name]
	if !ok || svc == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownProvider, name)
	}
	return svc, nil
}

func (e *Engine) callTimeout() time.Duration {
	if e.cfg.CallTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.cfg.CallTimeoutSeconds) * time.Second
}

// entryLabel is the human-readable form of an entry used in reports.
func entryLabel(entry models.PlaylistEntry) string {
	if entry.Artist != "" {
		return entry.Artist + " - " + entry.Title
	}
	return entry.Title
}

// searchQuery builds the target catalog query for a source entry. Entries
// with artist metadata query directly; free-text titles are normalized first.
func searchQuery(entry models.PlaylistEntry) models.TrackQuery {
	if entry.Structured() {
		return models.TrackQuery{Raw: entry.Title, Artist: entry.Artist, Track: entry.Title}
	}
	return match.Normalize(entry.Title)
}

// candidateText is the side of the comparison drawn from a search result.
func candidateText(candidate models.CandidateMatch) string {
	if candidate.Artist != "" {
		return candidate.Artist + " " + candidate.Name
	}
	return candidate.Name
}

// searchTarget runs one rate-limited, timeout-bounded search against the
// target provider, retrying once on failure. Reads are cheap to repeat;
// mutating calls elsewhere never retry.
func (e *Engine) searchTarget(ctx context.Context, target services.Service, query string, cred *models.Credential) ([]models.CandidateMatch, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
		candidates, err := target.SearchTracks(callCtx, query, cred)
		cancel()

		if err == nil {
			return candidates, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("search failed, retrying", "query", query, "error", err)
	}

	return nil, fmt.Errorf("%w: %v", shared.ErrSearchFailed, lastErr)
}

// cacheMatch records a matched track when a cache is configured.
func (e *Engine) cacheMatch(provider string, match models.CandidateMatch) {
	if e.cache == nil {
		return
	}
	if err := e.cache.CacheMatch(provider, match); err != nil {
		e.logger.Debug("track cache write failed", "track", match.Name, "error", err)
	}
}

// SyncPlaylist copies a playlist from sourceProvider to targetProvider for
// the given user.
//
// Matched and unmatched entries preserve source playlist order. A failed
// search leaves its entry unmatched with an error annotation and the run
// continues; a failed playlist creation or track insertion aborts the run.
func (e *Engine) SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, userID, sourcePlaylistID, sourceProvider, targetProvider string) (*models.SyncReport, error) {
	source, err := e.provider(sourceProvider)
	if err != nil {
		return nil, err
	}
	target, err := e.provider(targetProvider)
	if err != nil {
		return nil, err
	}

	// Credentials for both sides resolved before any catalog call so an
	// unauthenticated user fails fast instead of mid-run.
	e.sendProgress(progress, authenticatingUpdate(sourceProvider))
	sourceCred, err := e.auth.ValidCredential(ctx, userID, sourceProvider)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, authenticatingUpdate(targetProvider))
	targetCred, err := e.auth.ValidCredential(ctx, userID, targetProvider)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchSourceUpdate(sourceProvider))

	sourcePlaylist, err := source.GetPlaylist(ctx, sourcePlaylistID, sourceCred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}

	entries, err := source.ListPlaylistTracks(ctx, sourcePlaylistID, sourceCred)
	if err != nil {
		return nil, fmt.Errorf("failed to list source tracks: %w", err)
	}

	e.sendProgress(progress, foundSourceUpdate(sourcePlaylist, len(entries)))

	threshold := e.cfg.Threshold(targetProvider)
	report := &models.SyncReport{
		SourceName: sourcePlaylist.Name,
		Matched:    []models.CandidateMatch{},
		Unmatched:  []string{},
	}

	for i, entry := range entries {
		e.sendProgress(progress, matchTrackUpdate(i+1, len(entries), entryLabel(entry)))

		query := searchQuery(entry)
		candidates, err := e.searchTarget(ctx, target, query.Terms(), targetCred)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("entry unmatched after search failure", "entry", entryLabel(entry), "error", err)
			report.Unmatched = append(report.Unmatched, fmt.Sprintf("%s (Error: %v)", entryLabel(entry), err))
			e.sendProgress(progress, matchMissUpdate(i+1, len(entries), entryLabel(entry)))
			continue
		}

		if len(candidates) == 0 {
			report.Unmatched = append(report.Unmatched, entryLabel(entry))
			e.sendProgress(progress, matchMissUpdate(i+1, len(entries), entryLabel(entry)))
			continue
		}

		// First result wins: the provider's top-ranked hit is scored and
		// accepted or rejected, never the runners-up.
		top := candidates[0]
		top.Similarity = match.Similarity(query.Terms(), candidateText(top))

		if match.Acceptable(top.Similarity, threshold) {
			report.Matched = append(report.Matched, top)
			e.cacheMatch(targetProvider, top)
		} else {
			report.Unmatched = append(report.Unmatched, entryLabel(entry))
			e.sendProgress(progress, matchMissUpdate(i+1, len(entries), entryLabel(entry)))
		}
	}

	targetName := sourcePlaylist.Name + playlistNameSuffix
	e.sendProgress(progress, createTargetUpdate(targetProvider, targetName))

	targetPlaylistID, err := target.CreatePlaylist(ctx, targetName, fmt.Sprintf("Synced from %s", sourceProvider), true, targetCred)
	if err != nil {
		return nil, fmt.Errorf("%w: create playlist: %v", shared.ErrExportFailed, err)
	}
	report.TargetPlaylistID = targetPlaylistID

	if len(report.Matched) > 0 {
		e.sendProgress(progress, addTracksUpdate(len(report.Matched)))

		trackIDs := make([]string, len(report.Matched))
		for i, m := range report.Matched {
			trackIDs[i] = m.ProviderTrackID
		}

		if err := target.AddTracks(ctx, targetPlaylistID, trackIDs, targetCred); err != nil {
			return nil, fmt.Errorf("%w: add tracks: %v", shared.ErrExportFailed, err)
		}
	}

	e.logger.Info("sync complete",
		"source", sourceProvider,
		"target", targetProvider,
		"playlist", sourcePlaylist.Name,
		"matched", len(report.Matched),
		"unmatched", len(report.Unmatched))
	e.sendProgress(progress, reportUpdate(report))

	return report, nil
}

// Compare diffs two playlists across providers.
func (e *Engine) Compare(ctx context.Context, progress chan<- ProgressUpdate, userID, sourceProvider, sourcePlaylistID, targetProvider, targetPlaylistID string) (*CompareResult, error) {
	source, err := e.provider(sourceProvider)
	if err != nil {
		return nil, err
	}
	target, err := e.provider(targetProvider)
	if err != nil {
		return nil, err
	}

	sourceCred, err := e.auth.ValidCredential(ctx, userID, sourceProvider)
	if err != nil {
		return nil, err
	}
	targetCred, err := e.auth.ValidCredential(ctx, userID, targetProvider)
	if err != nil {
		return nil, err
	}

	result := &CompareResult{}

	e.sendProgress(progress, fetchSourceUpdate(sourceProvider))
	result.SourcePlaylist, err = source.GetPlaylist(ctx, sourcePlaylistID, sourceCred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}
	sourceEntries, err := source.ListPlaylistTracks(ctx, sourcePlaylistID, sourceCred)
	if err != nil {
		return nil, fmt.Errorf("failed to list source tracks: %w", err)
	}

	e.sendProgress(progress, fetchTargetUpdate(targetProvider))
	result.TargetPlaylist, err = target.GetPlaylist(ctx, targetPlaylistID, targetCred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target playlist: %w", err)
	}
	targetEntries, err := target.ListPlaylistTracks(ctx, targetPlaylistID, targetCred)
	if err != nil {
		return nil, fmt.Errorf("failed to list target tracks: %w", err)
	}

	targetKeys := make(map[string]bool, len(targetEntries))
	for _, entry := range targetEntries {
		query := searchQuery(entry)
		targetKeys[shared.NormalizeTrackKey(query.Track, query.Artist)] = true
	}

	sourceKeys := make(map[string]bool, len(sourceEntries))
	for _, entry := range sourceEntries {
		query := searchQuery(entry)
		key := shared.NormalizeTrackKey(query.Track, query.Artist)
		sourceKeys[key] = true

		if targetKeys[key] {
			result.MatchedCount++
		} else {
			result.MissingInDest = append(result.MissingInDest, entry)
		}
	}

	for _, entry := range targetEntries {
		query := searchQuery(entry)
		if !sourceKeys[shared.NormalizeTrackKey(query.Track, query.Artist)] {
			result.ExtraInDest = append(result.ExtraInDest, entry)
		}
	}

	e.sendProgress(progress, compareUpdate(result.MatchedCount, len(sourceEntries)))

	return result, nil
}
