package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// DailyNoteRepository handles daily note database operations
type DailyNoteRepository struct {
	db *DB
}

// NewDailyNoteRepository creates a new daily note repository
func NewDailyNoteRepository(db *DB) *DailyNoteRepository {
	return &DailyNoteRepository{db: db}
}

// Upsert saves a daily note, replacing the content if a note already
// exists for the same user and date.
func (r *DailyNoteRepository) Upsert(ctx context.Context, note *models.DailyNote) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	query := `
		INSERT INTO daily_notes (id, user_id, date_string, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, date_string) DO UPDATE
		SET content = EXCLUDED.content,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		note.ID,
		note.UserID,
		note.DateString,
		note.Content,
		time.Now(),
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save daily note: %w", err)
	}

	return nil
}

// GetByDate retrieves a user's note for a specific date
func (r *DailyNoteRepository) GetByDate(ctx context.Context, userID uuid.UUID, dateString string) (*models.DailyNote, error) {
	note := &models.DailyNote{}

	query := `
		SELECT id, user_id, date_string, content, created_at, updated_at
		FROM daily_notes
		WHERE user_id = $1 AND date_string = $2
	`

	err := r.db.QueryRowContext(ctx, query, userID, dateString).Scan(
		&note.ID,
		&note.UserID,
		&note.DateString,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("daily note not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily note: %w", err)
	}

	return note, nil
}

// ListByUser retrieves all of a user's notes, newest date first
func (r *DailyNoteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DailyNote, error) {
	query := `
		SELECT id, user_id, date_string, content, created_at, updated_at
		FROM daily_notes
		WHERE user_id = $1
		ORDER BY date_string DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.DailyNote
	for rows.Next() {
		note := &models.DailyNote{}
		err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.DateString,
			&note.Content,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily notes: %w", err)
	}

	return notes, nil
}
