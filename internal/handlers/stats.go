package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
)

// StatsHandler handles user statistics requests
type StatsHandler struct {
	statsRepo *database.StatsRepository
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsRepo *database.StatsRepository) *StatsHandler {
	return &StatsHandler{statsRepo: statsRepo}
}

// RegisterRoutes registers stats routes on the given router.
// The router should already have the /stats prefix.
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetStats).Methods("GET")
}

// GetStats returns live task and focus aggregates plus the per-category
// rollup breakdown
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	stats, err := h.statsRepo.GetUserStats(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
