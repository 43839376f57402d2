package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"nations-server/internal/auth"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/response"
)

type contextKey string

const UserContextKey contextKey = "user"

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type Authenticator struct {
	validator TokenValidator
}

func NewAuthenticator(validator TokenValidator) *Authenticator {
	return &Authenticator{validator: validator}
}

// Require admits requests carrying a valid bearer token and stores its claims in the context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "jwt",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing JWT authentication")

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		claims, err := a.validator.Validate(strings.TrimSpace(token))
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}

		logger.Debug("JWT authentication successful",
			"user_id", claims.UserID,
			"username", claims.Username)

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// Helper to get user from context
func GetUserFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(UserContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
