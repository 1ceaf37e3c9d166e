package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/queue"
	"github.com/starcrunch/starcrunch-api/internal/render"
	"github.com/starcrunch/starcrunch-api/internal/scheduling"
	"github.com/starcrunch/starcrunch-api/internal/taskparse"
	"github.com/starcrunch/starcrunch-api/internal/validation"
	"go.uber.org/zap"
)

// ScheduleHandler handles schedule requests: a free-form task string in,
// a persisted and enriched batch out.
type ScheduleHandler struct {
	taskRepo *database.TaskRepository
	enhancer *scheduling.Enhancer
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(taskRepo *database.TaskRepository, enhancer *scheduling.Enhancer, jobQueue queue.JobQueue, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		taskRepo: taskRepo,
		enhancer: enhancer,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// RegisterRoutes registers schedule routes on the given router.
// The router should already have the /schedule prefix.
func (h *ScheduleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreateSchedule).Methods("POST")
}

// ScheduleRequest represents a schedule request
type ScheduleRequest struct {
	Text string `json:"text" validate:"required,min=1,max=10000"`
}

// ScheduleResponse carries the persisted batch and a rendered reply
type ScheduleResponse struct {
	Tasks    []*models.Task  `json:"tasks"`
	Rendered *render.Message `json:"rendered"`
}

// CreateSchedule parses a comma-separated task string, enriches the
// batch (AI pass with rule-based fallback), persists it, and returns the
// records with a rendered schedule. A batch saved on the fallback path
// gets an enrichment job so the AI pass is retried in the background.
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	req.Text = validation.SanitizeText(req.Text)
	if req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}
	if len(req.Text) > MaxTaskTextLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Text exceeds maximum length of %d characters", MaxTaskTextLength))
		return
	}

	tasks := taskparse.ParseTasks(req.Text)
	if len(tasks) == 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "No tasks found in input")
		return
	}
	for _, task := range tasks {
		task.UserID = user.ID
	}

	ctx := r.Context()
	tasks = h.enhancer.EnhanceTasks(ctx, tasks, req.Text, user.Preferences)

	if err := h.taskRepo.CreateBatch(ctx, tasks); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save tasks")
		return
	}

	if !tasks[0].AIEnhanced {
		h.enqueueEnrichment(ctx, user.ID, tasks, req.Text)
	}
	enqueueStatsRollup(ctx, h.jobQueue, h.logger, user.ID)

	respondJSON(w, http.StatusCreated, ScheduleResponse{
		Tasks:    tasks,
		Rendered: render.RenderSchedule(tasks),
	})
}

// enqueueEnrichment queues an AI retry for a batch that was saved with
// rule-based enrichment only. The tasks are already persisted; a failed
// enqueue is logged and dropped.
func (h *ScheduleHandler) enqueueEnrichment(ctx context.Context, userID uuid.UUID, tasks []*models.Task, rawText string) {
	if h.jobQueue == nil {
		return
	}

	taskIDs := make([]uuid.UUID, len(tasks))
	for i, task := range tasks {
		taskIDs[i] = task.ID
	}

	job := queue.NewJob(queue.JobTypeEnrichTasks, userID, taskIDs)
	job.RawText = rawText

	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("failed to enqueue enrichment job",
			zap.String("user_id", userID.String()),
			zap.Int("task_count", len(tasks)),
			zap.Error(err))
	}
}
