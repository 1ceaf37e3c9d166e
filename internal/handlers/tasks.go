package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

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

const (
	// MaxTaskTextLength is the maximum length for task text
	MaxTaskTextLength = 10000
	// DefaultPageSize is the default number of tasks a list request returns
	DefaultPageSize = 100
	// MaxPageSize is the upper bound for a caller-supplied limit
	MaxPageSize = 500

	// weekCompletedWindow bounds how far back the week view shows
	// completed tasks
	weekCompletedWindow = 7 * 24 * time.Hour
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo  *database.TaskRepository
	scheduler *scheduling.Scheduler
	jobQueue  queue.JobQueue
	logger    *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo *database.TaskRepository, jobQueue queue.JobQueue, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskRepo:  taskRepo,
		scheduler: scheduling.NewScheduler(),
		jobQueue:  jobQueue,
		logger:    logger,
	}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix (e.g., from
// apiRouter.PathPrefix("/tasks")). "/week" must be registered before
// "/{id}" so it is not swallowed by the id pattern.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/week", h.GetWeek).Methods("GET")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

// CreateTaskRequest represents a manual single-task create request
type CreateTaskRequest struct {
	Text string `json:"text" validate:"required,min=1,max=10000"`
}

// UpdateTaskRequest represents a task update request. Nil fields are
// left unchanged.
type UpdateTaskRequest struct {
	Text     *string `json:"text,omitempty"`
	Category *string `json:"category,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Duration *int    `json:"duration,omitempty"`
}

// ListTasksResponse represents the response for listing tasks
type ListTasksResponse struct {
	Tasks  []*models.Task `json:"tasks"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Count  int            `json:"count"`
}

// WeekResponse represents the grouped week view
type WeekResponse struct {
	Days      map[string][]*models.Task `json:"days"`
	Flexible  []*models.Task            `json:"flexible"`
	Completed []*models.Task            `json:"completed"`
	Rendered  *render.Message           `json:"rendered"`
}

// taskListParams are the parsed query parameters for ListTasks
type taskListParams struct {
	completed *bool
	limit     int
	offset    int
}

// parseTaskListParams parses list query parameters. Unparseable values
// fall back to defaults rather than rejecting the request.
func parseTaskListParams(query url.Values) taskListParams {
	params := taskListParams{limit: DefaultPageSize}

	if c := query.Get("completed"); c != "" {
		if parsed, err := strconv.ParseBool(c); err == nil {
			params.completed = &parsed
		}
	}

	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxPageSize {
				params.limit = MaxPageSize
			} else {
				params.limit = parsed
			}
		}
	}

	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed > 0 {
			params.offset = parsed
		}
	}

	return params
}

// applyTaskUpdates applies the non-nil fields of req to task, validating
// each one. On error the task may be partially modified and must not be
// persisted.
func applyTaskUpdates(task *models.Task, req *UpdateTaskRequest) error {
	if req.Text != nil {
		sanitized := validation.SanitizeText(*req.Text)
		if sanitized == "" {
			return fmt.Errorf("text cannot be empty after sanitization")
		}
		if len(sanitized) > MaxTaskTextLength {
			return fmt.Errorf("text exceeds maximum length of %d characters", MaxTaskTextLength)
		}
		task.Text = sanitized
	}

	if req.Category != nil {
		if err := validation.ValidateTaskCategory(*req.Category); err != nil {
			return err
		}
		task.Category = models.TaskCategory(*req.Category)
	}

	if req.Priority != nil {
		if err := validation.ValidateTaskPriority(*req.Priority); err != nil {
			return err
		}
		task.Priority = models.TaskPriority(*req.Priority)
	}

	if req.Duration != nil {
		if err := validation.ValidateDuration(*req.Duration); err != nil {
			return err
		}
		task.Duration = *req.Duration
	}

	return nil
}

// groupWeekTasks splits a week's tasks into per-day buckets keyed by
// scheduled day, a flexible bucket for pending tasks without one, and
// the recently completed list.
func groupWeekTasks(tasks []*models.Task) (days map[string][]*models.Task, flexible, completed []*models.Task) {
	days = make(map[string][]*models.Task)
	for _, task := range tasks {
		switch {
		case task.Completed:
			completed = append(completed, task)
		case task.ScheduledDay != "":
			days[task.ScheduledDay] = append(days[task.ScheduledDay], task)
		default:
			flexible = append(flexible, task)
		}
	}
	return days, flexible, completed
}

// enqueueStatsRollup queues a stats refresh after a task mutation.
// Rollup staleness is tolerable, so failures are logged and swallowed.
func enqueueStatsRollup(ctx context.Context, jobQueue queue.JobQueue, logger *zap.Logger, userID uuid.UUID) {
	if jobQueue == nil {
		return
	}

	job := queue.NewJob(queue.JobTypeStatsRollup, userID, nil)
	if err := jobQueue.Enqueue(ctx, job); err != nil {
		logger.Warn("failed to enqueue stats rollup",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// ListTasks lists tasks for the authenticated user, newest first
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	params := parseTaskListParams(r.URL.Query())

	tasks, err := h.taskRepo.GetByUserID(r.Context(), user.ID, params.completed, params.limit, params.offset)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, ListTasksResponse{
		Tasks:  tasks,
		Limit:  params.limit,
		Offset: params.offset,
		Count:  len(tasks),
	})
}

// CreateTask creates a single task from one phrase. The phrase is
// classified and rule-enriched but not sent through the AI pass; commas
// are kept as part of the text.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
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

	task := taskparse.ParseTask(req.Text)
	task.UserID = user.ID
	h.scheduler.ScheduleTasks([]*models.Task{task}, user.Preferences)

	ctx := r.Context()
	if err := h.taskRepo.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	enqueueStatsRollup(ctx, h.jobQueue, h.logger, user.ID)

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// GetWeek returns the week view: pending tasks grouped by scheduled day
// plus a flexible bucket, recently completed tasks, and a rendered
// message.
func (h *TaskHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	cutoff := time.Now().Add(-weekCompletedWindow)
	tasks, err := h.taskRepo.GetWeek(r.Context(), user.ID, cutoff)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve week view")
		return
	}

	days, flexible, completed := groupWeekTasks(tasks)
	respondJSON(w, http.StatusOK, WeekResponse{
		Days:      days,
		Flexible:  flexible,
		Completed: completed,
		Rendered:  render.RenderWeek(tasks),
	})
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	ctx := r.Context()
	task, err := h.taskRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := applyTaskUpdates(task, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := h.taskRepo.Update(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	enqueueStatsRollup(ctx, h.jobQueue, h.logger, user.ID)

	respondJSON(w, http.StatusOK, task)
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	ctx := r.Context()
	task, err := h.taskRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return
	}

	if err := h.taskRepo.MarkCompleted(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete task")
		return
	}

	now := time.Now()
	task.Completed = true
	task.CompletedAt = &now

	enqueueStatsRollup(ctx, h.jobQueue, h.logger, user.ID)

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	ctx := r.Context()
	task, err := h.taskRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return
	}

	if err := h.taskRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	enqueueStatsRollup(ctx, h.jobQueue, h.logger, user.ID)

	w.WriteHeader(http.StatusNoContent)
}
