package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

// CredentialRepository persists provider credentials keyed by
// (user_id, provider). It implements auth.CredentialStore.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load retrieves the credential for a (user, provider) pair.
// Returns nil with no error when no record exists.
func (r *CredentialRepository) Load(userID, provider string) (*models.Credential, error) {
	query := `
		SELECT user_id, provider, access_token, refresh_token, expires_at
		FROM credentials
		WHERE user_id = ? AND provider = ? AND deleted_at IS NULL
	`

	cred := &models.Credential{}
	err := r.db.QueryRow(query, userID, provider).Scan(
		&cred.UserID,
		&cred.Provider,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	return cred, nil
}

// Save upserts a credential on the (user_id, provider) key. A refresh that
// rotated tokens overwrites the previous record in place.
func (r *CredentialRepository) Save(cred *models.Credential) error {
	if cred.UserID == "" || cred.Provider == "" {
		return fmt.Errorf("%w: credential missing user id or provider", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "credentials")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO credentials (id, sequence, user_id, provider, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.Exec(query,
		shared.GenerateID(),
		sequence,
		cred.UserID,
		cred.Provider,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// Delete soft-deletes the credential for a (user, provider) pair.
func (r *CredentialRepository) Delete(userID, provider string) error {
	query := `
		UPDATE credentials
		SET deleted_at = ?
		WHERE user_id = ? AND provider = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("credential not found: %s/%s", userID, provider)
	}

	return nil
}

// ListProviders returns the providers a user currently has credentials for.
func (r *CredentialRepository) ListProviders(userID string) ([]string, error) {
	query := `
		SELECT provider
		FROM credentials
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var providers []string
	for rows.Next() {
		var provider string
		if err := rows.Scan(&provider); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		providers = append(providers, provider)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return providers, nil
}
