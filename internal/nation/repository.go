package nation

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
	logger.Debug("Initializing nation repository")

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

const nationColumns = `id, user_id, name, government, ideology, population, gdp, military_power, resources,
	last_income_day, created_at, updated_at`

func scanNation(row interface{ Scan(...interface{}) error }) (*Nation, error) {
	var n Nation
	var createdAt, updatedAt int64
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Name,
		&n.Government,
		&n.Ideology,
		&n.Population,
		&n.GDP,
		&n.MilitaryPower,
		&n.Resources,
		&n.LastIncomeDay,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = time.UnixMilli(createdAt).UTC()
	n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &n, nil
}

func (r *Repository) Create(ctx context.Context, n *Nation, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "nation_repository",
		"operation", "create",
		"user_id", n.UserID,
		"name", n.Name,
	)
	logger.Debug("Creating nation")

	query := `
		INSERT INTO nations (user_id, name, government, ideology, population, gdp, military_power, resources,
			last_income_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := exec.QueryRowContext(ctx, query,
		n.UserID,
		n.Name,
		string(n.Government),
		string(n.Ideology),
		n.Population,
		n.GDP,
		n.MilitaryPower,
		n.Resources,
		n.LastIncomeDay,
		n.CreatedAt.UnixMilli(),
		n.UpdatedAt.UnixMilli(),
	).Scan(&n.ID)
	if err != nil {
		logger.Error("Failed to create nation", "error", err)
		return database.WrapError("failed to create nation", err)
	}

	logger.Debug("Nation created successfully", "nation_id", n.ID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64, tx *database.Tx) (*Nation, error) {
	exec := r.getExecutor(tx)

	n, err := scanNation(exec.QueryRowContext(ctx, "SELECT "+nationColumns+" FROM nations WHERE id = ?", id))
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(errors.NotFoundf("nation %d not found", id), "Nation not found.")
	}
	if err != nil {
		r.logger.Error("Failed to get nation", "component", "nation_repository", "nation_id", id, "error", err)
		return nil, database.WrapError("failed to get nation", err)
	}
	return n, nil
}

// GetForUpdate reads a nation and, on Postgres, holds its row lock until the transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int64, tx *database.Tx) (*Nation, error) {
	query := "SELECT " + nationColumns + " FROM nations WHERE id = ?" + tx.Dialect().ForUpdate()

	n, err := scanNation(tx.QueryRowContext(ctx, query, id))
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(errors.NotFoundf("nation %d not found", id), "Nation not found.")
	}
	if err != nil {
		r.logger.Error("Failed to lock nation", "component", "nation_repository", "nation_id", id, "error", err)
		return nil, database.WrapError("failed to lock nation", err)
	}
	return n, nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int64, tx *database.Tx) (*Nation, error) {
	exec := r.getExecutor(tx)

	n, err := scanNation(exec.QueryRowContext(ctx, "SELECT "+nationColumns+" FROM nations WHERE user_id = ?", userID))
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(
			errors.NotFoundf("user %d has no nation", userID),
			"You don't have a nation yet. Create one first.",
		)
	}
	if err != nil {
		r.logger.Error("Failed to get nation by user", "component", "nation_repository", "user_id", userID, "error", err)
		return nil, database.WrapError("failed to get nation", err)
	}
	return n, nil
}

func (r *Repository) UpdateResources(ctx context.Context, id, resources int64, now time.Time, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	_, err := exec.ExecContext(ctx,
		"UPDATE nations SET resources = ?, updated_at = ? WHERE id = ?",
		resources, now.UnixMilli(), id,
	)
	if err != nil {
		r.logger.Error("Failed to update resources", "component", "nation_repository", "nation_id", id, "error", err)
		return database.WrapError("failed to update nation resources", err)
	}
	return nil
}

func (r *Repository) UpdateStats(ctx context.Context, n *Nation, now time.Time, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	_, err := exec.ExecContext(ctx,
		"UPDATE nations SET gdp = ?, military_power = ?, resources = ?, updated_at = ? WHERE id = ?",
		n.GDP, n.MilitaryPower, n.Resources, now.UnixMilli(), n.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update stats", "component", "nation_repository", "nation_id", n.ID, "error", err)
		return database.WrapError("failed to update nation stats", err)
	}
	n.UpdatedAt = now.UTC()
	return nil
}

// ClaimIncomeDay marks day as paid; false means another run already paid it.
func (r *Repository) ClaimIncomeDay(ctx context.Context, id, day int64, tx *database.Tx) (bool, error) {
	exec := r.getExecutor(tx)

	res, err := exec.ExecContext(ctx,
		"UPDATE nations SET last_income_day = ? WHERE id = ? AND last_income_day < ?",
		day, id, day,
	)
	if err != nil {
		return false, database.WrapError("failed to claim income day", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, database.WrapError("failed to read affected rows", err)
	}
	return n == 1, nil
}

func (r *Repository) ListIDsDueIncome(ctx context.Context, day int64) ([]int64, error) {
	logger := r.logger.With("component", "nation_repository", "operation", "list_due_income", "day", day)

	rows, err := r.db.QueryContext(ctx, "SELECT id FROM nations WHERE last_income_day < ? ORDER BY id", day)
	if err != nil {
		logger.Error("Failed to query nations", "error", err)
		return nil, database.WrapError("failed to list nations due income", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, database.WrapError("failed to scan nation id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError("error iterating nations", err)
	}
	return ids, nil
}
