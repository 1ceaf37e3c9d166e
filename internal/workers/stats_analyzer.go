package workers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starcrunch/starcrunch-api/internal/database"
	logpkg "github.com/starcrunch/starcrunch-api/internal/logger"
	"github.com/starcrunch/starcrunch-api/internal/queue"
)

// JobProcessor handles one decoded job.
type JobProcessor func(ctx context.Context, job *queue.Job) error

// StatsAnalyzer keeps the per-user category rollup current. Task creation
// and completion enqueue stats_rollup jobs; each one recomputes the
// affected user's rollup from the live task table.
type StatsAnalyzer struct {
	statsRepo database.CategoryStatisticsRepositoryInterface
	logger    *zap.Logger
	registry  map[queue.JobType]JobProcessor
}

// NewStatsAnalyzer creates a stats analyzer and registers the
// stats_rollup processor.
func NewStatsAnalyzer(statsRepo database.CategoryStatisticsRepositoryInterface, logger *zap.Logger) *StatsAnalyzer {
	a := &StatsAnalyzer{
		statsRepo: statsRepo,
		logger:    logger,
		registry:  make(map[queue.JobType]JobProcessor),
	}
	a.RegisterProcessor(queue.JobTypeStatsRollup, a.ProcessStatsRollupJob)
	return a
}

// RegisterProcessor registers a processor for a job type.
func (a *StatsAnalyzer) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	a.registry[typ] = proc
}

// ProcessStatsRollupJob recomputes the category rollup for one user.
func (a *StatsAnalyzer) ProcessStatsRollupJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required for stats rollup job")
	}

	a.logger.Debug("processing_stats_rollup_job",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
	)

	if err := a.statsRepo.RecomputeForUser(ctx, job.UserID); err != nil {
		return fmt.Errorf("failed to recompute category statistics: %w", err)
	}

	a.logger.Info("recomputed_category_statistics",
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
	)
	return nil
}

// ProcessJob dispatches via the processor registry, owning the ack/nack.
func (a *StatsAnalyzer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeUserID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		a.logger.Debug("stats_rollup_job_not_ready", fields...)
		if ackErr := msg.Ack(); ackErr != nil {
			a.logger.Warn("failed_to_ack_job_for_later_processing",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	proc, ok := a.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := proc(ctx, job); err != nil {
		a.logger.Error("stats_rollup_job_failed",
			zap.String("operation", "process_job"),
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		// The next task change enqueues a fresh rollup; no point requeueing.
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Warn("failed_to_nack_stats_rollup_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("stats rollup failed: %w", err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack stats rollup job: %w", ackErr)
	}
	return nil
}
