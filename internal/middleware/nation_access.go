package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"nations-server/internal/nation"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/response"
)

const NationContextKey contextKey = "nation"

type NationAccessMiddleware struct {
	nations *nation.Service
}

func NewNationAccessMiddleware(nations *nation.Service) *NationAccessMiddleware {
	return &NationAccessMiddleware{nations: nations}
}

// Require resolves the caller's nation and stores it in the context.
// Callers without a nation are told to found one first.
func (m *NationAccessMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "nation_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		n, err := m.nations.GetByUser(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, errors.ErrorTypeNotFound) {
				err = errors.WithUserMessage(err, "You don't have a nation yet. Create one first.")
			}
			response.Error(w, r, logger.With("user_id", claims.UserID), err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), NationContextKey, n)))
	})
}

func GetNationFromContext(r *http.Request) *nation.Nation {
	if n, ok := r.Context().Value(NationContextKey).(*nation.Nation); ok {
		return n
	}
	return nil
}
