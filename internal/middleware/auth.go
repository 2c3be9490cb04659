package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Authenticator resolves a bearer token to the user ID of a live session
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// AuthMiddleware requires a bearer token belonging to an open session and
// stores the session's user ID in the request context
func AuthMiddleware(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			userID, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				switch {
				case errors.Is(err, domain.ErrTokenExpired):
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				case errors.Is(err, domain.ErrInvalidToken):
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				default:
					logger.Error("Session lookup failed", zap.Error(err))
					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			logger.Debug("User authenticated", zap.Int64("user_id", userID))
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
