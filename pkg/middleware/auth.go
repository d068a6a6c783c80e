package middleware

import (
	"context"
	"net/http"
	"strings"

	"foodshare-connect/pkg/response"
	"foodshare-connect/pkg/security"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// extractToken looks for the session cookie first, then the
// Authorization header. Returns "" when neither carries a token.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ""
	}
	return strings.TrimSpace(tokenString)
}

// AuthMiddleware gates a handler behind a valid session token and puts
// the authenticated user id on the request context.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			response.JSON(w, http.StatusUnauthorized, response.Body{
				"success": false,
				"message": "Please Login to Continue",
			})
			return
		}

		userID, err := security.VerifyJWT(tokenString)
		if err != nil {
			response.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// UserIDFromContext retrieves the authenticated user id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserContextKey).(string)
	return id, ok
}
