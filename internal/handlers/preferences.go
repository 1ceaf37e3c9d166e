package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/validation"
)

// validPreferredTimes are the accepted time-of-day tags for preferred
// task times
var validPreferredTimes = map[string]bool{
	"morning":   true,
	"afternoon": true,
	"evening":   true,
	"weekend":   true,
	"any":       true,
}

// PreferencesHandler handles scheduling preference requests
type PreferencesHandler struct {
	userRepo   *database.UserRepository
	prefsCache *database.PreferencesCache
}

// NewPreferencesHandler creates a new preferences handler. prefsCache
// may be nil when Redis is not configured.
func NewPreferencesHandler(userRepo *database.UserRepository, prefsCache *database.PreferencesCache) *PreferencesHandler {
	return &PreferencesHandler{
		userRepo:   userRepo,
		prefsCache: prefsCache,
	}
}

// RegisterRoutes registers preference routes on the given router.
// The router should already have the /preferences prefix.
func (h *PreferencesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetPreferences).Methods("GET")
	r.HandleFunc("", h.UpdatePreferences).Methods("PUT")
	r.HandleFunc("/exclusions", h.AddExclusion).Methods("POST")
	r.HandleFunc("/durations", h.SetDuration).Methods("PUT")
}

// AddExclusionRequest represents a request to block out a weekly time window
type AddExclusionRequest struct {
	Day       string `json:"day" validate:"required,day_name"`
	TimeRange string `json:"time_range" validate:"required,time_range"`
}

// SetDurationRequest represents a per-category duration override request
type SetDurationRequest struct {
	Category string `json:"category" validate:"required,task_category"`
	Minutes  int    `json:"minutes" validate:"required,min=5,max=480"`
}

// validatePreferences checks every field of a full preferences document
func validatePreferences(prefs models.UserPreferences) error {
	for _, excluded := range prefs.ExcludedTimes {
		if err := validation.ValidateDayName(excluded.Day); err != nil {
			return err
		}
		if err := validation.ValidateTimeRange(excluded.TimeRange); err != nil {
			return err
		}
	}

	for category, minutes := range prefs.TaskDurations {
		if err := validation.ValidateTaskCategory(string(category)); err != nil {
			return err
		}
		if err := validation.ValidateDuration(minutes); err != nil {
			return err
		}
	}

	for category, timeOfDay := range prefs.PreferredTaskTimes {
		if err := validation.ValidateTaskCategory(string(category)); err != nil {
			return err
		}
		if !validPreferredTimes[timeOfDay] {
			return fmt.Errorf("invalid preferred time: %s (must be 'morning', 'afternoon', 'evening', 'weekend', or 'any')", timeOfDay)
		}
	}

	return nil
}

// savePreferences persists prefs and evicts the worker-side cache so the
// next enrichment pass sees the new values.
func (h *PreferencesHandler) savePreferences(w http.ResponseWriter, r *http.Request, userID uuid.UUID, prefs models.UserPreferences) {
	ctx := r.Context()
	if err := h.userRepo.UpdatePreferences(ctx, userID, prefs); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save preferences")
		return
	}

	if h.prefsCache != nil {
		h.prefsCache.Evict(ctx, userID)
	}

	respondJSON(w, http.StatusOK, prefs)
}

// GetPreferences returns the authenticated user's scheduling preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user.Preferences)
}

// UpdatePreferences replaces the full preferences document
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var prefs models.UserPreferences
	if !decodeJSON(w, r, &prefs) {
		return
	}

	if err := validatePreferences(prefs); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	h.savePreferences(w, r, user.ID, prefs)
}

// AddExclusion appends a blocked time window to the user's preferences
func (h *PreferencesHandler) AddExclusion(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req AddExclusionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	prefs := user.Preferences
	prefs.ExcludedTimes = append(prefs.ExcludedTimes, models.ExcludedTime{
		Day:       req.Day,
		TimeRange: req.TimeRange,
	})

	h.savePreferences(w, r, user.ID, prefs)
}

// SetDuration sets a per-category default duration override
func (h *PreferencesHandler) SetDuration(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req SetDurationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	prefs := user.Preferences
	if prefs.TaskDurations == nil {
		prefs.TaskDurations = make(map[models.TaskCategory]int)
	}
	prefs.TaskDurations[models.TaskCategory(req.Category)] = req.Minutes

	h.savePreferences(w, r, user.ID, prefs)
}
