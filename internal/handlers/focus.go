package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// FocusHandler handles focus session requests
type FocusHandler struct {
	focusRepo *database.FocusSessionRepository
	taskRepo  *database.TaskRepository
}

// NewFocusHandler creates a new focus handler
func NewFocusHandler(focusRepo *database.FocusSessionRepository, taskRepo *database.TaskRepository) *FocusHandler {
	return &FocusHandler{
		focusRepo: focusRepo,
		taskRepo:  taskRepo,
	}
}

// RegisterRoutes registers focus session routes on the given router.
// The router should already have the /focus prefix.
func (h *FocusHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSessions).Methods("GET")
	r.HandleFunc("", h.StartSession).Methods("POST")
	r.HandleFunc("/{id}/complete", h.CompleteSession).Methods("POST")
}

// StartFocusRequest represents a focus session start request. TaskID is
// optional; a session can run untethered to any task.
type StartFocusRequest struct {
	TaskID          *uuid.UUID `json:"task_id,omitempty"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1,max=480"`
}

// StartSession starts a focus session, optionally tied to a task
func (h *FocusHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req StartFocusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	ctx := r.Context()
	if req.TaskID != nil {
		task, err := h.taskRepo.GetByID(ctx, *req.TaskID)
		if err != nil {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
			return
		}
		if task.UserID != user.ID {
			respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
			return
		}
	}

	session := &models.FocusSession{
		ID:              uuid.New(),
		UserID:          user.ID,
		TaskID:          req.TaskID,
		DurationMinutes: req.DurationMinutes,
	}

	if err := h.focusRepo.Create(ctx, session); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start focus session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// CompleteSession marks a focus session as completed
func (h *FocusHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid focus session ID")
		return
	}

	ctx := r.Context()
	session, err := h.focusRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Focus session not found")
		return
	}

	if session.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Focus session does not belong to user")
		return
	}

	if err := h.focusRepo.Complete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete focus session")
		return
	}

	now := time.Now()
	session.Completed = true
	session.CompletedAt = &now

	respondJSON(w, http.StatusOK, session)
}

// ListSessions lists the user's most recent focus sessions
func (h *FocusHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	sessions, err := h.focusRepo.ListByUser(r.Context(), user.ID, database.DefaultFocusSessionLimit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve focus sessions")
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}
