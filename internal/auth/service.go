package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"nations-server/internal/shared/errors"
	"nations-server/internal/user"
)

// Service mints tokens for the chat gateway, which vouches for the chat identity it forwards.
type Service struct {
	users     *user.Service
	issuer    *TokenIssuer
	botSecret string
	logger    *slog.Logger
}

func NewService(users *user.Service, issuer *TokenIssuer, botSecret string, logger *slog.Logger) *Service {
	logger.Debug("Initializing auth service")

	return &Service{
		users:     users,
		issuer:    issuer,
		botSecret: botSecret,
		logger:    logger,
	}
}

func (s *Service) Login(ctx context.Context, botSecret string, req TokenRequest) (*TokenResponse, error) {
	logger := s.logger.With(
		"component", "auth_service",
		"operation", "login",
		"chat_id", req.ChatID,
	)

	if s.botSecret == "" || subtle.ConstantTimeCompare([]byte(botSecret), []byte(s.botSecret)) != 1 {
		return nil, errors.Unauthorized("invalid gateway secret")
	}
	if req.ChatID <= 0 {
		return nil, errors.Validation("chat_id is required")
	}

	u, err := s.users.GetOrCreate(ctx, req.ChatID, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(u)
	if err != nil {
		return nil, err
	}

	logger.Debug("Token issued", "user_id", u.ID, "role", u.Role)
	return &TokenResponse{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *Service) Validate(token string) (*Claims, error) {
	return s.issuer.Validate(token)
}
