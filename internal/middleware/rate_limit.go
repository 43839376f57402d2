package middleware

import (
	"log/slog"
	"net/http"

	"nations-server/internal/ratelimit"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/response"
)

// RateLimit charges each request to the caller's budget for command.
// It must run after authentication so the caller is known.
func RateLimit(limiter ratelimit.Limiter, command string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := slog.With(
				"middleware", "rate_limit",
				"command", command,
				"method", r.Method,
				"path", r.URL.Path,
			)

			claims := GetUserFromContext(r)
			if claims == nil {
				response.Error(w, r, logger, errors.Unauthorized("authentication required"))
				return
			}

			if err := limiter.Check(r.Context(), claims.UserID, command); err != nil {
				response.Error(w, r, logger.With("user_id", claims.UserID), err)
				return
			}

			logger.Debug("Request allowed through rate limiter", "user_id", claims.UserID)
			next.ServeHTTP(w, r)
		})
	}
}
