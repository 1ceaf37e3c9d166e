package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// CategoryStatisticsRepository maintains the per-category rollup table.
// Rows are derived entirely from the tasks table, so a recompute can run
// any number of times and always converges on the same result.
type CategoryStatisticsRepository struct {
	db *DB
}

// NewCategoryStatisticsRepository creates a new category statistics repository
func NewCategoryStatisticsRepository(db *DB) *CategoryStatisticsRepository {
	return &CategoryStatisticsRepository{db: db}
}

// GetByUserID retrieves a user's category rollup, most used first
func (r *CategoryStatisticsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.CategoryStats, error) {
	query := `
		SELECT user_id, category, tasks_created, tasks_completed, total_minutes, last_used
		FROM category_statistics
		WHERE user_id = $1
		ORDER BY tasks_created DESC, category ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category statistics: %w", err)
	}
	defer rows.Close()

	var stats []*models.CategoryStats
	for rows.Next() {
		cs := &models.CategoryStats{}
		err := rows.Scan(
			&cs.UserID,
			&cs.Category,
			&cs.TasksCreated,
			&cs.TasksCompleted,
			&cs.TotalMinutes,
			&cs.LastUsed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category statistics: %w", err)
		}
		stats = append(stats, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category statistics: %w", err)
	}

	return stats, nil
}

// RecomputeForUser rebuilds a user's rollup from the tasks table. The
// delete and insert run in one transaction so readers never see a
// half-rebuilt rollup. Total minutes count completed tasks only.
func (r *CategoryStatisticsRepository) RecomputeForUser(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := `DELETE FROM category_statistics WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, deleteQuery, userID); err != nil {
		return fmt.Errorf("failed to clear category statistics: %w", err)
	}

	insertQuery := `
		INSERT INTO category_statistics (user_id, category, tasks_created, tasks_completed, total_minutes, last_used)
		SELECT
			user_id,
			category,
			COUNT(*),
			COUNT(*) FILTER (WHERE completed),
			COALESCE(SUM(duration) FILTER (WHERE completed), 0),
			MAX(created_at)
		FROM tasks
		WHERE user_id = $1
		GROUP BY user_id, category
	`
	if _, err := tx.ExecContext(ctx, insertQuery, userID); err != nil {
		return fmt.Errorf("failed to rebuild category statistics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteForUser removes a user's rollup rows
func (r *CategoryStatisticsRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM category_statistics WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete category statistics: %w", err)
	}

	return nil
}
