package user

import (
	"context"
	"log/slog"
	"time"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing user repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

const userColumns = "id, chat_id, username, role, registered_at, last_active_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var role string
	var registeredAt, lastActiveAt int64
	if err := row.Scan(&u.ID, &u.ChatID, &u.Username, &role, &registeredAt, &lastActiveAt); err != nil {
		return nil, err
	}
	u.Role = ParseRole(role)
	u.RegisteredAt = time.UnixMilli(registeredAt).UTC()
	u.LastActiveAt = time.UnixMilli(lastActiveAt).UTC()
	return &u, nil
}

func (r *Repository) GetByChatID(ctx context.Context, chatID int64) (*User, error) {
	logger := r.logger.With("component", "user_repository", "operation", "get_by_chat_id", "chat_id", chatID)

	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE chat_id = ?", chatID))
	if database.IsNoRows(err) {
		return nil, errors.NotFoundf("user with chat id %d not found", chatID)
	}
	if err != nil {
		logger.Error("Failed to get user", "error", err)
		return nil, database.WrapError("failed to get user", err)
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	logger := r.logger.With("component", "user_repository", "operation", "get_by_id", "user_id", id)

	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if database.IsNoRows(err) {
		return nil, errors.NotFoundf("user %d not found", id)
	}
	if err != nil {
		logger.Error("Failed to get user", "error", err)
		return nil, database.WrapError("failed to get user", err)
	}
	return u, nil
}

func (r *Repository) Create(ctx context.Context, chatID int64, username string, role Role, now time.Time) (*User, error) {
	logger := r.logger.With("component", "user_repository", "operation", "create", "chat_id", chatID)
	logger.Debug("Creating user")

	query := `
		INSERT INTO users (chat_id, username, role, registered_at, last_active_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, chatID, username, role, now.UnixMilli(), now.UnixMilli()))
	if err != nil {
		logger.Error("Failed to create user", "error", err)
		return nil, database.WrapError("failed to create user", err)
	}

	logger.Info("User created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Touch refreshes last activity and keeps the stored username and role current.
func (r *Repository) Touch(ctx context.Context, id int64, username string, role Role, now time.Time) error {
	logger := r.logger.With("component", "user_repository", "operation", "touch", "user_id", id)

	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_active_at = ?, username = ?, role = ? WHERE id = ?",
		now.UnixMilli(), username, role, id,
	)
	if err != nil {
		logger.Error("Failed to touch user", "error", err)
		return database.WrapError("failed to update user activity", err)
	}
	return nil
}
