package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"signals-api/internal/token"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user id placed on the request
// context by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// AuthMiddleware verifies the Bearer token on protected routes and stores
// the token's user id on the request context. Requests with a missing,
// malformed or expired token are rejected with 401.
func AuthMiddleware(issuer *token.Issuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				respondWithError(w, logger, http.StatusUnauthorized, token.ErrInvalidToken, "Missing bearer token")
				return
			}

			userID, err := issuer.Verify(raw)
			if err != nil {
				respondWithError(w, logger, http.StatusUnauthorized, token.ErrInvalidToken, "Authentication failed")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
