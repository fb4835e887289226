package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// TokenParser resolves a bearer token to the authenticated user id.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// AuthMiddleware checks the bearer JWT and stores the user id in the request context.
func AuthMiddleware(tokens TokenParser, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header")
				writeJSON(w, logger, http.StatusUnauthorized, errorResponse{Error: "authorization header is required"})
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn("Malformed Authorization header")
				writeJSON(w, logger, http.StatusUnauthorized, errorResponse{Error: "invalid authorization header"})
				return
			}

			userID, err := tokens.ParseToken(parts[1])
			if err != nil {
				logger.WithError(err).Warn("Invalid token")
				writeJSON(w, logger, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the id stored by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// authenticated wraps a handler that needs the caller's id.
func authenticated(logger *logrus.Logger, fn func(w http.ResponseWriter, r *http.Request, userID uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			writeJSON(w, logger, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		fn(w, r, userID)
	}
}
