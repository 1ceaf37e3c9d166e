package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// taskColumns is the column list every task SELECT uses, in scanTask order.
const taskColumns = `id, user_id, text, category, priority, completed, duration,
		scheduled_time, scheduled_day, is_appointment, preferred_time,
		ai_enhanced, energy_level, optimal_time, adhd_tips, scheduling_suggestions,
		created_at, updated_at, completed_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var tipsJSON, suggestionsJSON []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Text,
		&task.Category,
		&task.Priority,
		&task.Completed,
		&task.Duration,
		&task.ScheduledTime,
		&task.ScheduledDay,
		&task.IsAppointment,
		&task.PreferredTime,
		&task.AIEnhanced,
		&task.EnergyLevel,
		&task.OptimalTime,
		&tipsJSON,
		&suggestionsJSON,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tipsJSON) > 0 {
		if err := json.Unmarshal(tipsJSON, &task.ADHDTips); err != nil {
			return nil, fmt.Errorf("failed to unmarshal adhd tips: %w", err)
		}
	}
	if len(suggestionsJSON) > 0 {
		if err := json.Unmarshal(suggestionsJSON, &task.SchedulingSuggestions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scheduling suggestions: %w", err)
		}
	}
	if completedAt.Valid {
		completed := completedAt.Time
		task.CompletedAt = &completed
	}

	return task, nil
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			id, user_id, text, category, priority, completed, duration,
			scheduled_time, scheduled_day, is_appointment, preferred_time,
			ai_enhanced, energy_level, optimal_time, adhd_tips, scheduling_suggestions,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING created_at, updated_at
	`

	tipsJSON, err := json.Marshal(task.ADHDTips)
	if err != nil {
		return fmt.Errorf("failed to marshal adhd tips: %w", err)
	}
	suggestionsJSON, err := json.Marshal(task.SchedulingSuggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal scheduling suggestions: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Text,
		task.Category,
		task.Priority,
		task.Completed,
		task.Duration,
		task.ScheduledTime,
		task.ScheduledDay,
		task.IsAppointment,
		task.PreferredTime,
		task.AIEnhanced,
		task.EnergyLevel,
		task.OptimalTime,
		tipsJSON,
		suggestionsJSON,
		time.Now(),
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// CreateBatch inserts a batch of tasks in a single transaction so a
// schedule request persists all of its tasks or none of them.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO tasks (
			id, user_id, text, category, priority, completed, duration,
			scheduled_time, scheduled_day, is_appointment, preferred_time,
			ai_enhanced, energy_level, optimal_time, adhd_tips, scheduling_suggestions,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	for _, task := range tasks {
		tipsJSON, err := json.Marshal(task.ADHDTips)
		if err != nil {
			return fmt.Errorf("failed to marshal adhd tips: %w", err)
		}
		suggestionsJSON, err := json.Marshal(task.SchedulingSuggestions)
		if err != nil {
			return fmt.Errorf("failed to marshal scheduling suggestions: %w", err)
		}

		err = tx.QueryRowContext(ctx, query,
			task.ID,
			task.UserID,
			task.Text,
			task.Category,
			task.Priority,
			task.Completed,
			task.Duration,
			task.ScheduledTime,
			task.ScheduledDay,
			task.IsAppointment,
			task.PreferredTime,
			task.AIEnhanced,
			task.EnergyLevel,
			task.OptimalTime,
			tipsJSON,
			suggestionsJSON,
			now,
		).Scan(&task.CreatedAt, &task.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// GetByUserID retrieves tasks for a user, newest first, optionally
// filtered by completion state. A limit of 0 returns everything.
func (r *TaskRepository) GetByUserID(ctx context.Context, userID uuid.UUID, completed *bool, limit, offset int) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if completed != nil {
		query += fmt.Sprintf(" AND completed = $%d", argIndex)
		args = append(args, *completed)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetWeek retrieves a user's week view: every pending task plus tasks
// completed since the cutoff, pending first, oldest first within each
// group.
func (r *TaskRepository) GetWeek(ctx context.Context, userID uuid.UUID, completedSince time.Time) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND (completed = false OR completed_at >= $2)
		ORDER BY completed ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, completedSince)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetByIDs retrieves tasks by ID, preserving the order of ids. Missing
// ids are skipped, so enrichment jobs tolerate tasks deleted in flight.
func (r *TaskRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*models.Task, len(ids))
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		byID[task.ID] = task
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		if task, ok := byID[id]; ok {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

// GetPendingUnenhanced retrieves a user's pending tasks that have not
// been through a successful AI pass, oldest first.
func (r *TaskRepository) GetPendingUnenhanced(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND completed = false AND ai_enhanced = false
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// ListUserIDsWithPendingUnenhanced returns the users who have pending
// tasks still waiting for an AI pass.
func (r *TaskRepository) ListUserIDsWithPendingUnenhanced(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM tasks
		WHERE completed = false AND ai_enhanced = false
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var userIDs []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return userIDs, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET text = $2, category = $3, priority = $4, completed = $5, duration = $6,
		    scheduled_time = $7, scheduled_day = $8, is_appointment = $9,
		    preferred_time = $10, ai_enhanced = $11, energy_level = $12,
		    optimal_time = $13, adhd_tips = $14, scheduling_suggestions = $15,
		    updated_at = $16, completed_at = $17
		WHERE id = $1
		RETURNING updated_at
	`

	tipsJSON, err := json.Marshal(task.ADHDTips)
	if err != nil {
		return fmt.Errorf("failed to marshal adhd tips: %w", err)
	}
	suggestionsJSON, err := json.Marshal(task.SchedulingSuggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal scheduling suggestions: %w", err)
	}

	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}

	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Text,
		task.Category,
		task.Priority,
		task.Completed,
		task.Duration,
		task.ScheduledTime,
		task.ScheduledDay,
		task.IsAppointment,
		task.PreferredTime,
		task.AIEnhanced,
		task.EnergyLevel,
		task.OptimalTime,
		tipsJSON,
		suggestionsJSON,
		time.Now(),
		completedAt,
	).Scan(&task.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// MarkCompleted marks a task as completed
func (r *TaskRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET completed = true, completed_at = $2, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

// Delete deletes a task by ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

// DeleteCompletedBefore removes completed tasks whose completion is
// older than the cutoff. Returns the number of tasks removed.
func (r *TaskRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM tasks WHERE completed = true AND completed_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed tasks: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
