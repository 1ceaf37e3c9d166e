package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// UserActivityRepository tracks when users last touched the API. The
// reprocessor consults it so background AI passes stop for users who
// have gone quiet.
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	activity := &models.UserActivity{}

	query := `
		SELECT user_id, last_api_interaction, reprocessing_paused, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&activity.LastAPIInteraction,
		&activity.ReprocessingPaused,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}

	return activity, nil
}

// UpdateLastInteraction records an API interaction. Any interaction
// also lifts a reprocessing pause.
func (r *UserActivityRepository) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO user_activity (user_id, last_api_interaction, reprocessing_paused, created_at, updated_at)
		VALUES ($1, $2, false, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_api_interaction = EXCLUDED.last_api_interaction,
		    reprocessing_paused = false,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}

	return nil
}

// PauseStale pauses reprocessing for every user whose last interaction
// is older than the window. Returns how many users were paused.
func (r *UserActivityRepository) PauseStale(ctx context.Context, inactiveFor time.Duration) (int64, error) {
	query := `
		UPDATE user_activity
		SET reprocessing_paused = true, updated_at = $2
		WHERE last_api_interaction < $1
		  AND reprocessing_paused = false
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, now.Add(-inactiveFor), now)
	if err != nil {
		return 0, fmt.Errorf("failed to pause stale users: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
