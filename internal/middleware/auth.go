package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/starcrunch/starcrunch-api/internal/database"
	logpkg "github.com/starcrunch/starcrunch-api/internal/logger"
	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/services/oidc"
	"go.uber.org/zap"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// Auth creates authentication middleware that validates JWT tokens
func Auth(db *database.DB, oidcProvider *oidc.Provider, jwksManager *oidc.JWKSManager, providerName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header", logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format", logger)
				return
			}

			tokenString := parts[1]

			ctx := r.Context()
			oidcConfig, err := oidcProvider.GetConfig(ctx, providerName)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to get OIDC configuration", logger)
				return
			}

			if oidcConfig.JWKSUrl == nil {
				respondError(w, http.StatusInternalServerError, "JWKS URL not configured", logger)
				return
			}

			verifier := oidc.NewVerifier(jwksManager, oidcConfig.Issuer)
			claims, err := verifier.Verify(ctx, tokenString, *oidcConfig.JWKSUrl)
			if err != nil {
				logger.Warn("token_verification_failed",
					zap.String("issuer", oidcConfig.Issuer),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
				return
			}

			userRepo := database.NewUserRepository(db)
			var name *string
			if claims.Name != "" {
				n := claims.Name
				name = &n
			}
			user, err := userRepo.GetOrCreateBySubject(ctx, claims.Sub, claims.Email, name)
			if err != nil {
				logger.Error("user_lookup_failed",
					zap.String("error", logpkg.SanitizeError(err)),
				)
				respondError(w, http.StatusInternalServerError, "Database error", logger)
				return
			}

			// Keep profile fields in sync with the identity provider
			updateNeeded := false
			if claims.Email != "" && user.Email != claims.Email {
				user.Email = claims.Email
				updateNeeded = true
			}
			if claims.Name != "" && (user.Name == nil || *user.Name != claims.Name) {
				n := claims.Name
				user.Name = &n
				updateNeeded = true
			}
			if updateNeeded {
				if err := userRepo.Update(ctx, user); err != nil {
					// Stale profile fields are not worth failing the request over
					logger.Warn("user_profile_sync_failed",
						zap.String("user_id", user.ID.String()),
						zap.String("error", logpkg.SanitizeError(err)),
					)
				}
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
		)
	}
}
