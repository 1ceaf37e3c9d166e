package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// TaskRepositoryInterface covers the task operations the background
// workers need, so worker tests can swap in mocks.
type TaskRepositoryInterface interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Task, error)
	GetPendingUnenhanced(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	ListUserIDsWithPendingUnenhanced(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, task *models.Task) error
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserActivityRepositoryInterface covers the activity operations the
// reprocessor needs
type UserActivityRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
	PauseStale(ctx context.Context, inactiveFor time.Duration) (int64, error)
}

// CategoryStatisticsRepositoryInterface covers the rollup operations
// the stats analyzer needs
type CategoryStatisticsRepositoryInterface interface {
	RecomputeForUser(ctx context.Context, userID uuid.UUID) error
}

// ChatContextRepositoryInterface covers chat context persistence
type ChatContextRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ChatContext, error)
	Create(ctx context.Context, chatContext *models.ChatContext) error
	Update(ctx context.Context, chatContext *models.ChatContext) error
	Upsert(ctx context.Context, chatContext *models.ChatContext) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface               = (*TaskRepository)(nil)
	_ UserActivityRepositoryInterface       = (*UserActivityRepository)(nil)
	_ CategoryStatisticsRepositoryInterface = (*CategoryStatisticsRepository)(nil)
	_ ChatContextRepositoryInterface        = (*ChatContextRepository)(nil)
)
