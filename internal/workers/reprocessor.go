package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/queue"
)

// Reprocessing cadence and housekeeping windows.
const (
	morningReprocessHour = 8
	eveningReprocessHour = 20

	// Users who have not touched the API this long stop getting
	// background passes until they come back.
	reprocessInactivityWindow = 3 * 24 * time.Hour

	// Completed tasks older than this are removed on the housekeeping tick.
	completedTaskRetention = 90 * 24 * time.Hour
)

// Reprocessor schedules background enrichment passes. Twice a day it
// enqueues a reprocess_user job for every user still holding tasks
// without AI fields, and on the same tick it runs housekeeping: pausing
// users gone quiet and pruning old completed tasks.
type Reprocessor struct {
	jobQueue     queue.JobQueue
	taskRepo     database.TaskRepositoryInterface
	activityRepo database.UserActivityRepositoryInterface
	logger       *zap.Logger
}

// NewReprocessor creates a new reprocessor.
func NewReprocessor(
	jobQueue queue.JobQueue,
	taskRepo database.TaskRepositoryInterface,
	activityRepo database.UserActivityRepositoryInterface,
	logger *zap.Logger,
) *Reprocessor {
	return &Reprocessor{
		jobQueue:     jobQueue,
		taskRepo:     taskRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ScheduleReprocessingJobs enqueues the next morning and evening pass for
// every eligible user. Housekeeping runs first so the pause sweep affects
// this round's eligibility.
func (r *Reprocessor) ScheduleReprocessingJobs(ctx context.Context) error {
	r.runHousekeeping(ctx)

	now := time.Now()
	nextMorning := time.Date(now.Year(), now.Month(), now.Day(), morningReprocessHour, 0, 0, 0, now.Location())
	nextEvening := time.Date(now.Year(), now.Month(), now.Day(), eveningReprocessHour, 0, 0, 0, now.Location())

	if now.After(nextMorning) {
		nextMorning = nextMorning.Add(24 * time.Hour)
	}
	if now.After(nextEvening) {
		nextEvening = nextEvening.Add(24 * time.Hour)
	}

	eligibleUsers, err := r.GetEligibleUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to get eligible users: %w", err)
	}

	for _, userID := range eligibleUsers {
		if err := r.createReprocessingJob(ctx, userID, nextMorning); err != nil {
			r.logger.Warn("failed_to_schedule_morning_reprocessing_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			// Continue with other users
		}

		if err := r.createReprocessingJob(ctx, userID, nextEvening); err != nil {
			r.logger.Warn("failed_to_schedule_evening_reprocessing_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			// Continue with other users
		}
	}

	r.logger.Info("scheduled_reprocessing_jobs",
		zap.Int("user_count", len(eligibleUsers)),
		zap.Time("next_morning", nextMorning),
		zap.Time("next_evening", nextEvening),
	)

	return nil
}

// GetEligibleUsers returns the users who still have pending tasks without
// AI fields and have not paused out through inactivity. A user with no
// activity row at all counts as eligible.
func (r *Reprocessor) GetEligibleUsers(ctx context.Context) ([]uuid.UUID, error) {
	userIDs, err := r.taskRepo.ListUserIDsWithPendingUnenhanced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with pending tasks: %w", err)
	}

	eligible := make([]uuid.UUID, 0, len(userIDs))
	for _, userID := range userIDs {
		activity, err := r.activityRepo.GetByUserID(ctx, userID)
		if err == nil && activity != nil && activity.ReprocessingPaused {
			continue
		}
		eligible = append(eligible, userID)
	}

	return eligible, nil
}

// createReprocessingJob enqueues one reprocessing pass for a user. The job
// expires a day after its scheduled time so stale passes never run.
func (r *Reprocessor) createReprocessingJob(ctx context.Context, userID uuid.UUID, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeReprocessUser, userID, nil)
	job.NotBefore = &notBefore

	notAfter := notBefore.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := r.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue reprocessing job: %w", err)
	}

	return nil
}

// runHousekeeping pauses users gone quiet and prunes old completed tasks.
// Both are best effort; a failed sweep only narrows or widens the next
// round and never blocks scheduling.
func (r *Reprocessor) runHousekeeping(ctx context.Context) {
	paused, err := r.activityRepo.PauseStale(ctx, reprocessInactivityWindow)
	if err != nil {
		r.logger.Warn("failed_to_pause_stale_users", zap.Error(err))
	} else if paused > 0 {
		r.logger.Info("paused_stale_users",
			zap.Int64("users", paused),
			zap.Duration("inactive_for", reprocessInactivityWindow),
		)
	}

	pruned, err := r.taskRepo.DeleteCompletedBefore(ctx, time.Now().Add(-completedTaskRetention))
	if err != nil {
		r.logger.Warn("failed_to_prune_completed_tasks", zap.Error(err))
	} else if pruned > 0 {
		r.logger.Info("pruned_completed_tasks",
			zap.Int64("tasks", pruned),
			zap.Duration("retention", completedTaskRetention),
		)
	}
}
