package user

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

type Service struct {
	db           *database.DB
	repo         *Repository
	adminChatIDs []int64
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(db *database.DB, repo *Repository, adminChatIDs []int64, logger *slog.Logger) *Service {
	logger.Debug("Initializing user service")

	return &Service{
		db:           db,
		repo:         repo,
		adminChatIDs: adminChatIDs,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return s.repo.GetByID(ctx, id)
}

// GetOrCreate resolves the account behind a chat id, registering it on first contact.
func (s *Service) GetOrCreate(ctx context.Context, chatID int64, username string) (*User, error) {
	logger := s.logger.With(
		"component", "user_service",
		"operation", "get_or_create",
		"chat_id", chatID,
	)

	if chatID == 0 {
		return nil, errors.Validation("chat_id is required")
	}
	username = strings.TrimSpace(username)
	if len(username) > 64 {
		username = username[:64]
	}

	role := RoleUser
	if slices.Contains(s.adminChatIDs, chatID) {
		role = RoleAdmin
	}

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	now := s.now()
	u, err := s.repo.GetByChatID(ctx, chatID)
	switch {
	case err == nil:
		if err := s.repo.Touch(ctx, u.ID, username, role, now); err != nil {
			return nil, err
		}
		u.Username = username
		u.Role = role
		u.LastActiveAt = now.UTC()
		return u, nil
	case !errors.Is(err, errors.ErrorTypeNotFound):
		return nil, err
	}

	u, err = s.repo.Create(ctx, chatID, username, role, now)
	if errors.Is(err, errors.ErrorTypeConflict) {
		// Lost a registration race; the other request created the row.
		return s.repo.GetByChatID(ctx, chatID)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Registered new user", "user_id", u.ID, "role", u.Role)
	return u, nil
}
