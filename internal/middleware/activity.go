package middleware

import (
	"net/http"

	"github.com/starcrunch/starcrunch-api/internal/database"
	"go.uber.org/zap"
)

// ActivityTracking records the last API interaction for authenticated users.
// The reprocessing worker reads these timestamps to decide which users have
// gone quiet, and any tracked interaction lifts a standing reprocessing pause.
func ActivityTracking(activityRepo *database.UserActivityRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := UserFromContext(r); user != nil {
				// Tracking is best effort, never fail the request over it
				if err := activityRepo.UpdateLastInteraction(r.Context(), user.ID); err != nil {
					logger.Warn("activity_update_failed",
						zap.String("user_id", user.ID.String()),
						zap.Error(err),
					)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
