package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

// SyncRunRepository implements models.Repository[*models.StoredSyncRun] for
// sync run history.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new sync run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.StoredSyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (
			id, sequence, user_id, source_provider, source_playlist_id,
			target_provider, target_playlist_id, status, tracks_total,
			tracks_matched, tracks_failed, error_message, report_json,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.UserID(),
		run.SourceProvider(),
		run.SourcePlaylistID(),
		run.TargetProvider(),
		nullIfEmpty(run.TargetPlaylistID()),
		run.Status(),
		run.TracksTotal(),
		run.TracksMatched(),
		run.TracksFailed(),
		nullIfEmpty(run.ErrorMessage()),
		nullIfEmpty(run.ReportJSON()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a sync run by ID, excluding soft-deleted runs
func (r *SyncRunRepository) Get(id string) (*models.StoredSyncRun, error) {
	query := syncRunSelect + ` WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// Latest retrieves the most recent sync run for a user.
// Returns nil with no error when the user has no runs.
func (r *SyncRunRepository) Latest(userID string) (*models.StoredSyncRun, error) {
	query := syncRunSelect + ` WHERE user_id = ? AND deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`

	run, err := r.scan(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// Update modifies an existing sync run in the database
func (r *SyncRunRepository) Update(run *models.StoredSyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET target_playlist_id = ?, status = ?, tracks_total = ?,
			tracks_matched = ?, tracks_failed = ?, error_message = ?,
			report_json = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		nullIfEmpty(run.TargetPlaylistID()),
		run.Status(),
		run.TracksTotal(),
		run.TracksMatched(),
		run.TracksFailed(),
		nullIfEmpty(run.ErrorMessage()),
		nullIfEmpty(run.ReportJSON()),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	query := `
		UPDATE sync_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all sync runs matching the given criteria, excluding soft-deleted runs
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.StoredSyncRun, error) {
	query := syncRunSelect + ` WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.StoredSyncRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

const syncRunSelect = `
	SELECT id, sequence, user_id, source_provider, source_playlist_id,
		target_provider, target_playlist_id, status, tracks_total,
		tracks_matched, tracks_failed, error_message, report_json,
		started_at, completed_at, created_at, updated_at, deleted_at
	FROM sync_runs
`

func (r *SyncRunRepository) scanOne(row *sql.Row) (*models.StoredSyncRun, error) {
	run, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found")
	}
	return run, err
}

func (r *SyncRunRepository) scan(row rowScanner) (*models.StoredSyncRun, error) {
	var (
		id               string
		sequence         int
		userID           string
		sourceProvider   string
		sourcePlaylistID string
		targetProvider   string
		targetPlaylistID sql.NullString
		status           string
		tracksTotal      int
		tracksMatched    int
		tracksFailed     int
		errorMessage     sql.NullString
		reportJSON       sql.NullString
		startedAt        sql.NullTime
		completedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := row.Scan(&id, &sequence, &userID, &sourceProvider, &sourcePlaylistID,
		&targetProvider, &targetPlaylistID, &status, &tracksTotal,
		&tracksMatched, &tracksFailed, &errorMessage, &reportJSON,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewStoredSyncRun(sequence, userID, sourceProvider, sourcePlaylistID, targetProvider)
	run.SetID(id)
	run.SetTargetPlaylistID(targetPlaylistID.String)
	run.SetStatus(status)
	run.SetCounts(tracksTotal, tracksMatched, tracksFailed)
	run.SetReportJSON(reportJSON.String)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.SetErrorMessage(errorMessage.String)
	if startedAt.Valid {
		run.SetStartedAt(&startedAt.Time)
	} else {
		run.SetStartedAt(nil)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	} else {
		run.SetCompletedAt(nil)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
