package models

import (
	"fmt"
	"time"
)

// Sync run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// StoredSyncRun is the persisted record of one playlist sync.
//
// The final report is stored as JSON so a completed run can be re-rendered
// without touching the providers again.
type StoredSyncRun struct {
	base
	userID           string
	sourceProvider   string
	sourcePlaylistID string
	targetProvider   string
	targetPlaylistID string
	status           string
	tracksTotal      int
	tracksMatched    int
	tracksFailed     int
	errorMessage     string
	reportJSON       string
	startedAt        *time.Time
	completedAt      *time.Time
}

// NewStoredSyncRun creates a running sync record.
func NewStoredSyncRun(sequence int, userID, sourceProvider, sourcePlaylistID, targetProvider string) *StoredSyncRun {
	now := time.Now()
	return &StoredSyncRun{
		base:             newBase(sequence),
		userID:           userID,
		sourceProvider:   sourceProvider,
		sourcePlaylistID: sourcePlaylistID,
		targetProvider:   targetProvider,
		status:           RunStatusRunning,
		startedAt:        &now,
	}
}

func (r *StoredSyncRun) UserID() string           { return r.userID }
func (r *StoredSyncRun) SourceProvider() string   { return r.sourceProvider }
func (r *StoredSyncRun) SourcePlaylistID() string { return r.sourcePlaylistID }
func (r *StoredSyncRun) TargetProvider() string   { return r.targetProvider }
func (r *StoredSyncRun) TargetPlaylistID() string { return r.targetPlaylistID }
func (r *StoredSyncRun) Status() string           { return r.status }
func (r *StoredSyncRun) TracksTotal() int         { return r.tracksTotal }
func (r *StoredSyncRun) TracksMatched() int       { return r.tracksMatched }
func (r *StoredSyncRun) TracksFailed() int        { return r.tracksFailed }
func (r *StoredSyncRun) ErrorMessage() string     { return r.errorMessage }
func (r *StoredSyncRun) ReportJSON() string       { return r.reportJSON }
func (r *StoredSyncRun) StartedAt() *time.Time    { return r.startedAt }
func (r *StoredSyncRun) CompletedAt() *time.Time  { return r.completedAt }

func (r *StoredSyncRun) SetTargetPlaylistID(id string) { r.targetPlaylistID = id }
func (r *StoredSyncRun) SetStartedAt(t *time.Time)     { r.startedAt = t }
func (r *StoredSyncRun) SetCompletedAt(t *time.Time)   { r.completedAt = t }
func (r *StoredSyncRun) SetStatus(status string)       { r.status = status }
func (r *StoredSyncRun) SetReportJSON(report string)   { r.reportJSON = report }
func (r *StoredSyncRun) SetErrorMessage(msg string)    { r.errorMessage = msg }

func (r *StoredSyncRun) SetCounts(total, matched, failed int) {
	r.tracksTotal = total
	r.tracksMatched = matched
	r.tracksFailed = failed
}

// Complete marks the run finished with its final counts and report.
func (r *StoredSyncRun) Complete(targetPlaylistID, reportJSON string, total, matched, failed int) {
	now := time.Now()
	r.targetPlaylistID = targetPlaylistID
	r.reportJSON = reportJSON
	r.SetCounts(total, matched, failed)
	r.status = RunStatusCompleted
	r.completedAt = &now
}

// Fail marks the run failed with the given error message.
func (r *StoredSyncRun) Fail(message string) {
	now := time.Now()
	r.errorMessage = message
	r.status = RunStatusFailed
	r.completedAt = &now
}

// Validate checks required fields for persistence.
func (r *StoredSyncRun) Validate() error {
	if r.userID == "" {
		return fmt.Errorf("sync run missing user id")
	}
	if r.sourceProvider == "" {
		return fmt.Errorf("sync run missing source provider")
	}
	if r.sourcePlaylistID == "" {
		return fmt.Errorf("sync run missing source playlist id")
	}
	if r.targetProvider == "" {
		return fmt.Errorf("sync run missing target provider")
	}
	switch r.status {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
	default:
		return fmt.Errorf("sync run has invalid status %q", r.status)
	}
	return nil
}
