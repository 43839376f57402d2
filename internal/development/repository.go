package development

import (
	"context"
	"database/sql"
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
	logger.Debug("Initializing development repository")

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

const developmentColumns = `id, nation_id, category, name, cost, start_time, end_time, status,
	infrastructure_bonus, research_bonus, trade_bonus, completed_at`

func scanDevelopment(row interface{ Scan(...interface{}) error }) (*Development, error) {
	var d Development
	var startTime, endTime int64
	var completedAt sql.NullInt64
	err := row.Scan(
		&d.ID,
		&d.NationID,
		&d.Category,
		&d.Name,
		&d.Cost,
		&startTime,
		&endTime,
		&d.Status,
		&d.InfrastructureBonus,
		&d.ResearchBonus,
		&d.TradeBonus,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	d.StartTime = time.UnixMilli(startTime).UTC()
	d.EndTime = time.UnixMilli(endTime).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		d.CompletedAt = &t
	}
	if o, ok := LookupOption(d.Category, d.Name); ok {
		d.Description = o.Description
	}
	return &d, nil
}

func (r *Repository) Create(ctx context.Context, d *Development, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	query := `
		INSERT INTO developments (nation_id, category, name, cost, start_time, end_time, status,
			infrastructure_bonus, research_bonus, trade_bonus)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := exec.QueryRowContext(ctx, query,
		d.NationID,
		string(d.Category),
		d.Name,
		d.Cost,
		d.StartTime.UnixMilli(),
		d.EndTime.UnixMilli(),
		string(d.Status),
		d.InfrastructureBonus,
		d.ResearchBonus,
		d.TradeBonus,
	).Scan(&d.ID)
	if err != nil {
		r.logger.Error("Failed to create development", "component", "development_repository",
			"nation_id", d.NationID, "name", d.Name, "error", err)
		return database.WrapError("failed to create development", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64, tx *database.Tx) (*Development, error) {
	exec := r.getExecutor(tx)

	d, err := scanDevelopment(exec.QueryRowContext(ctx, "SELECT "+developmentColumns+" FROM developments WHERE id = ?", id))
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(
			errors.NotFoundf("development %d not found", id),
			"Development not found. Please check your development ID.",
		)
	}
	if err != nil {
		r.logger.Error("Failed to get development", "component", "development_repository", "development_id", id, "error", err)
		return nil, database.WrapError("failed to get development", err)
	}
	return d, nil
}

// ListDue returns in-progress projects whose end time has passed.
// A nationID of zero selects every nation.
func (r *Repository) ListDue(ctx context.Context, now time.Time, nationID int64) ([]Development, error) {
	query := "SELECT " + developmentColumns + " FROM developments WHERE status = ? AND end_time <= ?"
	args := []interface{}{string(StatusInProgress), now.UnixMilli()}
	if nationID != 0 {
		query += " AND nation_id = ?"
		args = append(args, nationID)
	}
	query += " ORDER BY end_time, id"

	return r.list(ctx, "list_due", query, args...)
}

func (r *Repository) ListByNation(ctx context.Context, nationID int64, status Status) ([]Development, error) {
	return r.list(ctx, "list_by_nation",
		"SELECT "+developmentColumns+" FROM developments WHERE nation_id = ? AND status = ? ORDER BY id",
		nationID, string(status),
	)
}

func (r *Repository) list(ctx context.Context, operation, query string, args ...interface{}) ([]Development, error) {
	logger := r.logger.With("component", "development_repository", "operation", operation)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query developments", "error", err)
		return nil, database.WrapError("failed to query developments", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var developments []Development
	for rows.Next() {
		d, err := scanDevelopment(rows)
		if err != nil {
			logger.Error("Failed to scan development row", "error", err)
			return nil, database.WrapError("failed to scan development", err)
		}
		developments = append(developments, *d)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, database.WrapError("error iterating developments", err)
	}
	return developments, nil
}

// transition moves a project out of in_progress. It reports false when another
// caller already moved it, so exactly one caller acts on each transition.
func (r *Repository) transition(ctx context.Context, id int64, to Status, completedAt *time.Time, extra string, args []interface{}, tx *database.Tx) (bool, error) {
	exec := r.getExecutor(tx)

	var completed interface{}
	if completedAt != nil {
		completed = completedAt.UnixMilli()
	}

	query := "UPDATE developments SET status = ?, completed_at = ? WHERE id = ? AND status = ?" + extra
	params := append([]interface{}{string(to), completed, id, string(StatusInProgress)}, args...)

	res, err := exec.ExecContext(ctx, query, params...)
	if err != nil {
		r.logger.Error("Failed to update development status", "component", "development_repository",
			"development_id", id, "status", to, "error", err)
		return false, database.WrapError("failed to update development status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, database.WrapError("failed to read affected rows", err)
	}
	return n == 1, nil
}

// Complete claims a due project for completion.
func (r *Repository) Complete(ctx context.Context, id int64, now time.Time, tx *database.Tx) (bool, error) {
	return r.transition(ctx, id, StatusCompleted, &now, " AND end_time <= ?", []interface{}{now.UnixMilli()}, tx)
}

// Cancel only succeeds before end_time; a due project belongs to the sweep.
func (r *Repository) Cancel(ctx context.Context, id int64, now time.Time, tx *database.Tx) (bool, error) {
	return r.transition(ctx, id, StatusCancelled, nil, " AND end_time > ?", []interface{}{now.UnixMilli()}, tx)
}
