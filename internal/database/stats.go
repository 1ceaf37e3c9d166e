package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// StatsRepository computes live user statistics from the tasks and
// focus session tables.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetUserStats aggregates a user's task and focus activity. The
// per-category breakdown is read from the rollup table, so it reflects
// the last stats analyzer run rather than this instant.
func (r *StatsRepository) GetUserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	stats := &models.UserStats{}

	taskQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE completed),
			COUNT(*) FILTER (WHERE priority = 'high' AND NOT completed),
			COALESCE(AVG(duration), 0)
		FROM tasks
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, taskQuery, userID).Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.HighPriorityPending,
		&stats.AvgDurationMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}

	focusQuery := `
		SELECT
			COUNT(*),
			COALESCE(SUM(duration_minutes) FILTER (WHERE completed), 0)
		FROM focus_sessions
		WHERE user_id = $1 AND started_at::date = CURRENT_DATE
	`

	err = r.db.QueryRowContext(ctx, focusQuery, userID).Scan(
		&stats.FocusSessionsToday,
		&stats.FocusMinutesToday,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get focus stats: %w", err)
	}

	categoryQuery := `
		SELECT user_id, category, tasks_created, tasks_completed, total_minutes, last_used
		FROM category_statistics
		WHERE user_id = $1
		ORDER BY tasks_created DESC, category ASC
	`

	rows, err := r.db.QueryContext(ctx, categoryQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs models.CategoryStats
		err := rows.Scan(
			&cs.UserID,
			&cs.Category,
			&cs.TasksCreated,
			&cs.TasksCompleted,
			&cs.TotalMinutes,
			&cs.LastUsed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats.Categories = append(stats.Categories, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}

	return stats, nil
}
