package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const viewerIDKey contextKey = "viewer_id"

// TokenValidator validates a viewer token and returns the viewer id
type TokenValidator interface {
	Validate(token string) (string, error)
}

// AuthMiddleware creates a middleware for viewer JWT authentication
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
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

			viewerID, err := tokens.Validate(parts[1])
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), viewerIDKey, viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewerID extracts viewer ID from context
func GetViewerID(ctx context.Context) string {
	viewerID, ok := ctx.Value(viewerIDKey).(string)
	if !ok {
		return ""
	}
	return viewerID
}

// ValidateWebSocketToken validates a viewer token from the WebSocket query parameter
func ValidateWebSocketToken(token string, tokens TokenValidator) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token required")
	}
	return tokens.Validate(token)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
