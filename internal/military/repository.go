package military

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nations-server/internal/combat"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing military repository")

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

// ListUnits returns a nation's units in category order.
func (r *Repository) ListUnits(ctx context.Context, nationID int64, tx *database.Tx) ([]Unit, error) {
	exec := r.getExecutor(tx)
	logger := r.logger.With("component", "military_repository", "operation", "list_units", "nation_id", nationID)

	rows, err := exec.QueryContext(ctx,
		"SELECT nation_id, category, quantity, tech_level FROM military_units WHERE nation_id = ?",
		nationID,
	)
	if err != nil {
		logger.Error("Failed to query units", "error", err)
		return nil, database.WrapError("failed to query military units", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	byCategory := make(map[UnitCategory]Unit, len(Categories))
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.NationID, &u.Category, &u.Quantity, &u.TechLevel); err != nil {
			logger.Error("Failed to scan unit row", "error", err)
			return nil, database.WrapError("failed to scan military unit", err)
		}
		byCategory[u.Category] = u
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, database.WrapError("error iterating military units", err)
	}

	units := make([]Unit, 0, len(byCategory))
	for _, c := range Categories {
		if u, ok := byCategory[c]; ok {
			units = append(units, u)
		}
	}
	return units, nil
}

// AddUnits creates the category row on first build and returns the new quantity.
func (r *Repository) AddUnits(ctx context.Context, nationID int64, category UnitCategory, quantity int64, tx *database.Tx) (*Unit, error) {
	exec := r.getExecutor(tx)

	query := `
		INSERT INTO military_units (nation_id, category, quantity, tech_level)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (nation_id, category) DO UPDATE SET quantity = military_units.quantity + excluded.quantity
		RETURNING nation_id, category, quantity, tech_level
	`

	var u Unit
	err := exec.QueryRowContext(ctx, query, nationID, string(category), quantity).
		Scan(&u.NationID, &u.Category, &u.Quantity, &u.TechLevel)
	if err != nil {
		r.logger.Error("Failed to add units", "component", "military_repository",
			"nation_id", nationID, "category", category, "error", err)
		return nil, database.WrapError("failed to add military units", err)
	}
	return &u, nil
}

// ApplyLosses removes units per category; every decrement is guarded so quantity never goes below zero.
func (r *Repository) ApplyLosses(ctx context.Context, nationID int64, losses map[UnitCategory]int64, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	for _, category := range Categories {
		lost := losses[category]
		if lost <= 0 {
			continue
		}

		res, err := exec.ExecContext(ctx,
			"UPDATE military_units SET quantity = quantity - ? WHERE nation_id = ? AND category = ? AND quantity >= ?",
			lost, nationID, string(category), lost,
		)
		if err != nil {
			return database.WrapError("failed to apply casualties", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return database.WrapError("failed to read affected rows", err)
		}
		if n != 1 {
			return errors.WrapInternal(
				fmt.Sprintf("casualties for nation %d %s exceed remaining units", nationID, category), nil)
		}
	}
	return nil
}

func (r *Repository) SeedGarrison(ctx context.Context, nationID int64, tx *database.Tx) error {
	for _, category := range Categories {
		if _, err := r.AddUnits(ctx, nationID, category, StartingGarrison[category], tx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) MaintenanceCost(ctx context.Context, nationID int64, tx *database.Tx) (int64, error) {
	units, err := r.ListUnits(ctx, nationID, tx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, u := range units {
		total += u.Quantity * u.Category.Maintenance()
	}
	return total, nil
}

func (r *Repository) InsertBattle(ctx context.Context, b *Battle, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	query := `
		INSERT INTO battles (attacker_id, defender_id, attacker_strength, defender_strength, result,
			attacker_casualties, defender_casualties, territory_pct, resources_captured, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := exec.QueryRowContext(ctx, query,
		b.AttackerID,
		b.DefenderID,
		b.AttackerStrength,
		b.DefenderStrength,
		string(b.Result),
		b.AttackerCasualties,
		b.DefenderCasualties,
		b.TerritoryPct,
		b.ResourcesCaptured,
		b.Report,
		b.CreatedAt.UnixMilli(),
	).Scan(&b.ID)
	if err != nil {
		r.logger.Error("Failed to insert battle", "component", "military_repository", "error", err)
		return database.WrapError("failed to insert battle", err)
	}
	return nil
}

const battleColumns = `id, attacker_id, defender_id, attacker_strength, defender_strength, result,
	attacker_casualties, defender_casualties, territory_pct, resources_captured, report, created_at`

func scanBattle(row interface{ Scan(...interface{}) error }) (*Battle, error) {
	var b Battle
	var result string
	var createdAt int64
	err := row.Scan(
		&b.ID,
		&b.AttackerID,
		&b.DefenderID,
		&b.AttackerStrength,
		&b.DefenderStrength,
		&result,
		&b.AttackerCasualties,
		&b.DefenderCasualties,
		&b.TerritoryPct,
		&b.ResourcesCaptured,
		&b.Report,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	b.Result = combat.Result(result)
	b.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &b, nil
}

func (r *Repository) GetBattle(ctx context.Context, id int64) (*Battle, error) {
	b, err := scanBattle(r.db.QueryRowContext(ctx, "SELECT "+battleColumns+" FROM battles WHERE id = ?", id))
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(errors.NotFoundf("battle %d not found", id), "Battle not found.")
	}
	if err != nil {
		r.logger.Error("Failed to get battle", "component", "military_repository", "battle_id", id, "error", err)
		return nil, database.WrapError("failed to get battle", err)
	}
	return b, nil
}

// ListBattles returns battles the nation fought on either side, newest first.
func (r *Repository) ListBattles(ctx context.Context, nationID int64, limit int) ([]Battle, error) {
	logger := r.logger.With("component", "military_repository", "operation", "list_battles", "nation_id", nationID)

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+battleColumns+" FROM battles WHERE attacker_id = ? OR defender_id = ? ORDER BY id DESC LIMIT ?",
		nationID, nationID, limit,
	)
	if err != nil {
		logger.Error("Failed to query battles", "error", err)
		return nil, database.WrapError("failed to query battles", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var battles []Battle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			logger.Error("Failed to scan battle row", "error", err)
			return nil, database.WrapError("failed to scan battle", err)
		}
		battles = append(battles, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError("error iterating battles", err)
	}
	return battles, nil
}
