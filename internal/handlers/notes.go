package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/validation"
)

// MaxNoteLength is the maximum length for a daily note
const MaxNoteLength = 10000

// NotesHandler handles daily note requests
type NotesHandler struct {
	noteRepo *database.DailyNoteRepository
}

// NewNotesHandler creates a new notes handler
func NewNotesHandler(noteRepo *database.DailyNoteRepository) *NotesHandler {
	return &NotesHandler{noteRepo: noteRepo}
}

// RegisterRoutes registers note routes on the given router.
// The router should already have the /notes prefix.
func (h *NotesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListNotes).Methods("GET")
	r.HandleFunc("", h.UpsertNote).Methods("POST")
	r.HandleFunc("/{date}", h.GetNote).Methods("GET")
}

// UpsertNoteRequest represents a daily note save request
type UpsertNoteRequest struct {
	DateString string `json:"date_string" validate:"required,date_string"`
	Content    string `json:"content" validate:"required,min=1,max=10000"`
}

// ListNotes lists the user's notes, newest date first
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	notes, err := h.noteRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve notes")
		return
	}

	respondJSON(w, http.StatusOK, notes)
}

// UpsertNote saves a note for a date, replacing any existing content for
// the same date
func (h *NotesHandler) UpsertNote(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpsertNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	content := validation.SanitizeText(req.Content)
	if content == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Content cannot be empty after sanitization")
		return
	}

	note := &models.DailyNote{
		UserID:     user.ID,
		DateString: req.DateString,
		Content:    content,
	}

	if err := h.noteRepo.Upsert(r.Context(), note); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save note")
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// GetNote retrieves the user's note for a specific date
func (h *NotesHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	date := mux.Vars(r)["date"]
	if err := validation.ValidateDateString(date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	note, err := h.noteRepo.GetByDate(r.Context(), user.ID, date)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Note not found")
		return
	}

	respondJSON(w, http.StatusOK, note)
}
