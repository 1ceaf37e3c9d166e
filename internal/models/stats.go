package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStats aggregates a user's task and focus activity. Task counts are
// computed live; the per-category breakdown comes from the rollup table
// maintained by the stats worker.
type UserStats struct {
	TotalTasks          int             `json:"total_tasks"`
	CompletedTasks      int             `json:"completed_tasks"`
	CompletionRate      float64         `json:"completion_rate"`
	HighPriorityPending int             `json:"high_priority_pending"`
	AvgDurationMinutes  float64         `json:"avg_duration_minutes"`
	FocusSessionsToday  int             `json:"focus_sessions_today"`
	FocusMinutesToday   int             `json:"focus_minutes_today"`
	Categories          []CategoryStats `json:"categories,omitempty"`
}

// CategoryStats is the per-category rollup row for one user
type CategoryStats struct {
	UserID         uuid.UUID    `json:"user_id"`
	Category       TaskCategory `json:"category"`
	TasksCreated   int          `json:"tasks_created"`
	TasksCompleted int          `json:"tasks_completed"`
	TotalMinutes   int          `json:"total_minutes"`
	LastUsed       time.Time    `json:"last_used"`
}
