package middleware

import (
	"context"

	"github.com/starcrunch/starcrunch-api/internal/models"
)

// SetUserInContext injects a user into the context the way Auth does.
// Exported so handler tests can exercise authenticated paths without a
// real token.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
