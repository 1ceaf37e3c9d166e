package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// DefaultFocusSessionLimit caps how many recent sessions a listing returns
const DefaultFocusSessionLimit = 10

// FocusSessionRepository handles focus session database operations
type FocusSessionRepository struct {
	db *DB
}

// NewFocusSessionRepository creates a new focus session repository
func NewFocusSessionRepository(db *DB) *FocusSessionRepository {
	return &FocusSessionRepository{db: db}
}

// Create starts a new focus session
func (r *FocusSessionRepository) Create(ctx context.Context, session *models.FocusSession) error {
	query := `
		INSERT INTO focus_sessions (id, user_id, task_id, duration_minutes, completed, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING started_at
	`

	err := r.db.QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		session.TaskID,
		session.DurationMinutes,
		session.Completed,
		time.Now(),
	).Scan(&session.StartedAt)

	if err != nil {
		return fmt.Errorf("failed to create focus session: %w", err)
	}

	return nil
}

// GetByID retrieves a focus session by ID
func (r *FocusSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FocusSession, error) {
	session := &models.FocusSession{}
	var completedAt sql.NullTime

	query := `
		SELECT id, user_id, task_id, duration_minutes, completed, started_at, completed_at
		FROM focus_sessions
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.TaskID,
		&session.DurationMinutes,
		&session.Completed,
		&session.StartedAt,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("focus session not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get focus session: %w", err)
	}

	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return session, nil
}

// Complete marks a focus session as completed
func (r *FocusSessionRepository) Complete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE focus_sessions
		SET completed = true, completed_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to complete focus session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("focus session not found")
	}

	return nil
}

// ListByUser retrieves a user's most recent sessions, newest first.
// A limit of 0 falls back to DefaultFocusSessionLimit.
func (r *FocusSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.FocusSession, error) {
	if limit <= 0 {
		limit = DefaultFocusSessionLimit
	}

	query := `
		SELECT id, user_id, task_id, duration_minutes, completed, started_at, completed_at
		FROM focus_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query focus sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.FocusSession
	for rows.Next() {
		session := &models.FocusSession{}
		var completedAt sql.NullTime

		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.TaskID,
			&session.DurationMinutes,
			&session.Completed,
			&session.StartedAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan focus session: %w", err)
		}

		if completedAt.Valid {
			session.CompletedAt = &completedAt.Time
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating focus sessions: %w", err)
	}

	return sessions, nil
}
