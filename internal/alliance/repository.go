package alliance

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
	logger.Debug("Initializing alliance repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) Create(ctx context.Context, a *Alliance, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	err := exec.QueryRowContext(ctx,
		"INSERT INTO alliances (name, description, founder_id, created_at) VALUES (?, ?, ?, ?) RETURNING id",
		a.Name, a.Description, a.FounderID, a.CreatedAt.UnixMilli(),
	).Scan(&a.ID)
	if err != nil {
		r.logger.Error("Failed to create alliance", "component", "alliance_repository", "name", a.Name, "error", err)
		return database.WrapError("failed to create alliance", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64, tx *database.Tx) (*Alliance, error) {
	exec := r.getExecutor(tx)

	var a Alliance
	var createdAt int64
	err := exec.QueryRowContext(ctx,
		"SELECT id, name, description, founder_id, created_at FROM alliances WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.Description, &a.FounderID, &createdAt)
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(
			errors.NotFoundf("alliance %d not found", id),
			"Alliance not found. Please check the alliance ID.",
		)
	}
	if err != nil {
		r.logger.Error("Failed to get alliance", "component", "alliance_repository", "alliance_id", id, "error", err)
		return nil, database.WrapError("failed to get alliance", err)
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &a, nil
}

// AddMember fails with a conflict when the nation already belongs to the alliance.
func (r *Repository) AddMember(ctx context.Context, allianceID, nationID int64, at time.Time, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	_, err := exec.ExecContext(ctx,
		"INSERT INTO alliance_members (alliance_id, nation_id, joined_at) VALUES (?, ?, ?)",
		allianceID, nationID, at.UnixMilli(),
	)
	if err != nil {
		return database.WrapError("failed to add alliance member", err)
	}
	return nil
}

func (r *Repository) IsMember(ctx context.Context, allianceID, nationID int64, tx *database.Tx) (bool, error) {
	exec := r.getExecutor(tx)

	var n int
	err := exec.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM alliance_members WHERE alliance_id = ? AND nation_id = ?",
		allianceID, nationID,
	).Scan(&n)
	if err != nil {
		return false, database.WrapError("failed to check alliance membership", err)
	}
	return n > 0, nil
}

func (r *Repository) RemoveMember(ctx context.Context, allianceID, nationID int64, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	_, err := exec.ExecContext(ctx,
		"DELETE FROM alliance_members WHERE alliance_id = ? AND nation_id = ?",
		allianceID, nationID,
	)
	if err != nil {
		return database.WrapError("failed to remove alliance member", err)
	}
	return nil
}

// Delete removes the alliance and its memberships.
func (r *Repository) Delete(ctx context.Context, id int64, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	if _, err := exec.ExecContext(ctx, "DELETE FROM alliance_members WHERE alliance_id = ?", id); err != nil {
		return database.WrapError("failed to remove alliance members", err)
	}
	if _, err := exec.ExecContext(ctx, "DELETE FROM alliances WHERE id = ?", id); err != nil {
		return database.WrapError("failed to delete alliance", err)
	}
	return nil
}

func (r *Repository) ListMembers(ctx context.Context, allianceID int64) ([]Member, error) {
	logger := r.logger.With("component", "alliance_repository", "operation", "list_members", "alliance_id", allianceID)

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.nation_id, n.name, m.nation_id = a.founder_id, m.joined_at
		FROM alliance_members m
		JOIN nations n ON n.id = m.nation_id
		JOIN alliances a ON a.id = m.alliance_id
		WHERE m.alliance_id = ?
		ORDER BY m.joined_at, m.nation_id`,
		allianceID,
	)
	if err != nil {
		logger.Error("Failed to query members", "error", err)
		return nil, database.WrapError("failed to query alliance members", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var members []Member
	for rows.Next() {
		var m Member
		var joinedAt int64
		if err := rows.Scan(&m.NationID, &m.Name, &m.IsFounder, &joinedAt); err != nil {
			logger.Error("Failed to scan member row", "error", err)
			return nil, database.WrapError("failed to scan alliance member", err)
		}
		m.JoinedAt = time.UnixMilli(joinedAt).UTC()
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError("error iterating alliance members", err)
	}
	return members, nil
}

// ListByNation returns every alliance the nation belongs to.
func (r *Repository) ListByNation(ctx context.Context, nationID int64) ([]Alliance, error) {
	logger := r.logger.With("component", "alliance_repository", "operation", "list_by_nation", "nation_id", nationID)

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.description, a.founder_id, a.created_at
		FROM alliances a
		JOIN alliance_members m ON m.alliance_id = a.id
		WHERE m.nation_id = ?
		ORDER BY a.id`,
		nationID,
	)
	if err != nil {
		logger.Error("Failed to query alliances", "error", err)
		return nil, database.WrapError("failed to query alliances", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var alliances []Alliance
	for rows.Next() {
		var a Alliance
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.FounderID, &createdAt); err != nil {
			return nil, database.WrapError("failed to scan alliance", err)
		}
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		alliances = append(alliances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError("error iterating alliances", err)
	}
	return alliances, nil
}
