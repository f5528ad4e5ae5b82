package middleware

import (
	"context"
	"net/http"
	"strings"

	"party-radar-backend/internal/models"
	"party-radar-backend/internal/services"
)

type contextKey string

const userKey contextKey = "auth_user"

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(identity *services.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			user, err := identity.ValidateToken(parts[1])
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser extracts the authenticated identity from the context.
// Returns nil when the request is unauthenticated.
func CurrentUser(ctx context.Context) *models.AuthUser {
	user, ok := ctx.Value(userKey).(*models.AuthUser)
	if !ok {
		return nil
	}
	return user
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
