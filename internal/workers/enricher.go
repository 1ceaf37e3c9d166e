package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starcrunch/starcrunch-api/internal/database"
	logpkg "github.com/starcrunch/starcrunch-api/internal/logger"
	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/queue"
	"github.com/starcrunch/starcrunch-api/internal/services/ai"
)

// reprocessBatchSize bounds how many tasks go into one model round trip
// when reprocessing a user's backlog.
const reprocessBatchSize = 10

// TaskEnhancer is the slice of the scheduling enhancer the worker needs.
// *scheduling.Enhancer satisfies it.
type TaskEnhancer interface {
	TryEnhanceTasks(ctx context.Context, tasks []*models.Task, rawText string, prefs models.UserPreferences) error
	AIAvailable() bool
}

// PreferencesGetter loads a user's scheduling preferences.
// *database.PreferencesCache satisfies it.
type PreferencesGetter interface {
	Get(ctx context.Context, userID uuid.UUID) (models.UserPreferences, error)
}

// Enricher retries AI enrichment for task batches that were stored off the
// rule-based path, either one batch at a time (enrich_tasks) or a whole
// user backlog (reprocess_user).
type Enricher struct {
	enhancer     TaskEnhancer
	taskRepo     database.TaskRepositoryInterface
	prefs        PreferencesGetter
	activityRepo database.UserActivityRepositoryInterface
	jobQueue     queue.JobQueue // for re-enqueueing jobs with delays
	logger       *zap.Logger
}

// NewEnricher creates a new enrichment worker.
func NewEnricher(
	enhancer TaskEnhancer,
	taskRepo database.TaskRepositoryInterface,
	prefs PreferencesGetter,
	activityRepo database.UserActivityRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *Enricher {
	return &Enricher{
		enhancer:     enhancer,
		taskRepo:     taskRepo,
		prefs:        prefs,
		activityRepo: activityRepo,
		jobQueue:     jobQueue,
		logger:       logger,
	}
}

// ProcessEnrichTasksJob re-runs the AI pass for one stored batch.
func (e *Enricher) ProcessEnrichTasksJob(ctx context.Context, job *queue.Job) error {
	if len(job.TaskIDs) == 0 {
		return fmt.Errorf("task_ids are required for enrichment job")
	}

	if !e.enhancer.AIAvailable() {
		e.logger.Warn("enrichment_skipped_ai_disabled",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		)
		return nil
	}

	if e.reprocessingPaused(ctx, job.UserID) {
		e.logger.Info("skipping_enrichment_reprocessing_paused",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		)
		return nil
	}

	// Reload the batch in its original order; the AI merge is positional.
	tasks, err := e.taskRepo.GetByIDs(ctx, job.TaskIDs)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}

	for _, task := range tasks {
		if task.UserID != job.UserID {
			return fmt.Errorf("task does not belong to user")
		}
	}

	// Drop entries finished or enhanced since the job was enqueued.
	pending := make([]*models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed || task.AIEnhanced {
			continue
		}
		pending = append(pending, task)
	}
	if len(pending) == 0 {
		e.logger.Info("enrichment_batch_already_settled",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		)
		return nil
	}

	// The stored input line only matches the batch while every task in it
	// survives; the merge is positional, so otherwise rebuild the line
	// from the tasks themselves.
	rawText := job.RawText
	if rawText == "" || len(pending) != len(job.TaskIDs) {
		rawText = rebuildRawText(pending)
	}

	prefs := e.loadPreferences(ctx, job.UserID)

	if err := e.enhancer.TryEnhanceTasks(ctx, pending, rawText, prefs); err != nil {
		return fmt.Errorf("failed to enhance tasks: %w", err)
	}

	updated := 0
	for _, task := range pending {
		if err := e.taskRepo.Update(ctx, task); err != nil {
			e.logger.Warn("failed_to_persist_enriched_task",
				zap.String("task_id", logpkg.SanitizeUserID(task.ID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			continue
		}
		updated++
	}
	if updated == 0 {
		return fmt.Errorf("failed to persist any enriched task")
	}

	e.logger.Info("enriched_task_batch",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("tasks", len(pending)),
		zap.Int("updated", updated),
	)
	return nil
}

// ProcessReprocessUserJob re-runs enrichment over everything a user still
// has pending without an AI pass, in bounded batches.
func (e *Enricher) ProcessReprocessUserJob(ctx context.Context, job *queue.Job) error {
	if e.reprocessingPaused(ctx, job.UserID) {
		e.logger.Info("skipping_reprocessing_paused",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		)
		return nil
	}

	if !e.enhancer.AIAvailable() {
		e.logger.Warn("reprocessing_skipped_ai_disabled",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		)
		return nil
	}

	tasks, err := e.taskRepo.GetPendingUnenhanced(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	prefs := e.loadPreferences(ctx, job.UserID)

	enhanced := 0
	for start := 0; start < len(tasks); start += reprocessBatchSize {
		end := start + reprocessBatchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		chunk := tasks[start:end]

		if err := e.enhancer.TryEnhanceTasks(ctx, chunk, rebuildRawText(chunk), prefs); err != nil {
			// Later chunks would hit the same limit; hand the whole job
			// back so it retries after the advertised delay.
			if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
				return fmt.Errorf("failed to enhance tasks: %w", err)
			}
			e.logger.Warn("reprocess_chunk_not_enhanced",
				zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
				zap.Int("chunk_start", start),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			continue
		}

		for _, task := range chunk {
			if err := e.taskRepo.Update(ctx, task); err != nil {
				e.logger.Warn("failed_to_persist_enriched_task",
					zap.String("task_id", logpkg.SanitizeUserID(task.ID.String())),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				continue
			}
			enhanced++
		}
	}

	e.logger.Info("reprocessed_user_tasks",
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("pending", len(tasks)),
		zap.Int("enhanced", enhanced),
	)
	return nil
}

// ProcessJob dispatches one delivery by job type and owns the ack/nack.
func (e *Enricher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeUserID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		e.logger.Debug("job_not_ready", fields...)
		// Without the delayed exchange this delivery arrived early. Drop
		// it; the reprocessor sweeps anything still unenhanced.
		if ackErr := msg.Ack(); ackErr != nil {
			e.logger.Warn("failed_to_ack_early_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeEnrichTasks:
		if err := e.ProcessEnrichTasksJob(ctx, job); err != nil {
			return e.handleJobError(ctx, msg, job, err, "enrichment")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeReprocessUser:
		if err := e.ProcessReprocessUserJob(ctx, job); err != nil {
			return e.handleJobError(ctx, msg, job, err, "reprocessing")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack reprocessing job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // unknown job type, dead-letter it
			e.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError sorts a failure into the retry ladder. Exhausted quotas
// re-enqueue far in the future regardless of the retry budget; rate limits
// and other errors re-enqueue after a backoff while the budget lasts, then
// dead-letter. Re-enqueueing a fresh copy is what makes RetryCount real:
// a nack(true) redelivers the original bytes with the old count.
func (e *Enricher) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobKind string) error {
	if ai.IsQuotaError(err) {
		if e.jobQueue == nil {
			// No way to park the job for later.
			e.nackToDLQ(msg, job)
			return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
		}

		notBefore := time.Now().Add(ai.GetRetryDelay(err, job.RetryCount))
		if enqueueErr := e.jobQueue.Enqueue(ctx, delayedRetry(job, notBefore)); enqueueErr != nil {
			e.nackToDLQ(msg, job)
			return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
		}
		e.ackHandled(msg, job)

		e.logger.Warn("quota_exhausted_delayed_job",
			zap.String("job_kind", jobKind),
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.Time("not_before", notBefore),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return nil
	}

	if ai.IsRateLimitError(err) {
		if job.CanRetry() && e.jobQueue != nil {
			notBefore := time.Now().Add(ai.GetRetryDelay(err, job.RetryCount))
			if enqueueErr := e.jobQueue.Enqueue(ctx, delayedRetry(job, notBefore)); enqueueErr != nil {
				if nackErr := msg.Nack(true); nackErr != nil {
					e.logger.Warn("failed_to_nack_rate_limited_job",
						zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
						zap.String("error", logpkg.SanitizeError(nackErr)),
					)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}
			e.ackHandled(msg, job)

			e.logger.Warn("rate_limited_delayed_job",
				zap.String("job_kind", jobKind),
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.Time("not_before", notBefore),
			)
			return nil
		}

		if job.CanRetry() {
			// No queue access; retry in place while the budget lasts.
			job.IncrementRetry()
			if nackErr := msg.Nack(true); nackErr != nil {
				e.logger.Warn("failed_to_nack_rate_limited_job",
					zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
					zap.String("error", logpkg.SanitizeError(nackErr)),
				)
			}
			return fmt.Errorf("rate limited (will retry): %w", err)
		}
	}

	if job.CanRetry() {
		if e.jobQueue != nil {
			notBefore := time.Now().Add(ai.GetRetryDelay(err, job.RetryCount))
			if enqueueErr := e.jobQueue.Enqueue(ctx, delayedRetry(job, notBefore)); enqueueErr == nil {
				e.ackHandled(msg, job)
				e.logger.Warn("job_failed_will_retry",
					zap.String("job_kind", jobKind),
					zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
					zap.Int("attempt", job.RetryCount+1),
					zap.Int("max_retries", job.MaxRetries),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				return fmt.Errorf("job failed (will retry): %w", err)
			}
		}

		job.IncrementRetry()
		if nackErr := msg.Nack(true); nackErr != nil {
			e.logger.Warn("failed_to_nack_failed_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	e.logger.Error("job_failed_dead_lettering",
		zap.String("job_kind", jobKind),
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.Int("retries", job.RetryCount),
		zap.String("error", logpkg.SanitizeError(err)),
	)
	e.nackToDLQ(msg, job)
	return fmt.Errorf("job failed (max retries): %w", err)
}

// reprocessingPaused reports whether background passes should skip the
// user. A missing activity row means the user never opted out.
func (e *Enricher) reprocessingPaused(ctx context.Context, userID uuid.UUID) bool {
	activity, err := e.activityRepo.GetByUserID(ctx, userID)
	return err == nil && activity != nil && activity.ReprocessingPaused
}

// loadPreferences fetches the user's preferences; enrichment still works
// with the stock set when the lookup fails.
func (e *Enricher) loadPreferences(ctx context.Context, userID uuid.UUID) models.UserPreferences {
	prefs, err := e.prefs.Get(ctx, userID)
	if err != nil {
		e.logger.Warn("failed_to_load_preferences_for_enrichment",
			zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return models.DefaultPreferences()
	}
	return prefs
}

func (e *Enricher) ackHandled(msg queue.MessageInterface, job *queue.Job) {
	if ackErr := msg.Ack(); ackErr != nil {
		e.logger.Warn("failed_to_ack_delayed_job",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(ackErr)),
		)
	}
}

func (e *Enricher) nackToDLQ(msg queue.MessageInterface, job *queue.Job) {
	if nackErr := msg.Nack(false); nackErr != nil {
		e.logger.Warn("failed_to_nack_job_to_dlq",
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(nackErr)),
		)
	}
}

// delayedRetry copies a job for a future attempt, bumping the retry count.
func delayedRetry(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		TaskIDs:    job.TaskIDs,
		RawText:    job.RawText,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}

// rebuildRawText reassembles a batch input line from stored task texts,
// matching how batches are split out of one line on entry.
func rebuildRawText(tasks []*models.Task) string {
	texts := make([]string, len(tasks))
	for i, task := range tasks {
		texts[i] = task.Text
	}
	return strings.Join(texts, " and ")
}
