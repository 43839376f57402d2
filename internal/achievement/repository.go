package achievement

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
	logger.Debug("Initializing achievement repository")

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

// Snapshot gathers the counters achievement rules look at.
func (r *Repository) Snapshot(ctx context.Context, nationID int64, tx *database.Tx) (*Stats, error) {
	exec := r.getExecutor(tx)
	logger := r.logger.With("component", "achievement_repository", "operation", "snapshot", "nation_id", nationID)

	s := Stats{
		Units:                 map[string]int64{},
		CompletedDevelopments: map[string]int{},
	}

	err := exec.QueryRowContext(ctx, "SELECT gdp, military_power, resources FROM nations WHERE id = ?", nationID).
		Scan(&s.GDP, &s.MilitaryPower, &s.Resources)
	if database.IsNoRows(err) {
		return nil, errors.NotFoundf("nation %d not found", nationID)
	}
	if err != nil {
		logger.Error("Failed to read nation stats", "error", err)
		return nil, database.WrapError("failed to read nation stats", err)
	}

	if err := r.countBy(ctx, exec,
		"SELECT category, quantity FROM military_units WHERE nation_id = ?", nationID,
		func(category string, n int64) {
			s.Units[category] = n
			s.TotalUnits += n
		},
	); err != nil {
		logger.Error("Failed to count units", "error", err)
		return nil, err
	}

	if err := r.countBy(ctx, exec,
		"SELECT category, COUNT(*) FROM developments WHERE nation_id = ? AND status = 'completed' GROUP BY category", nationID,
		func(category string, n int64) {
			s.CompletedDevelopments[category] = int(n)
			s.TotalCompleted += int(n)
		},
	); err != nil {
		logger.Error("Failed to count developments", "error", err)
		return nil, err
	}

	counters := []struct {
		dest  *int
		query string
	}{
		{&s.BattlesWon, "SELECT COUNT(*) FROM battles WHERE attacker_id = ? AND result = 'victory'"},
		{&s.BattlesDefended, "SELECT COUNT(*) FROM battles WHERE defender_id = ? AND result <> 'victory'"},
		{&s.AlliancesFounded, "SELECT COUNT(*) FROM alliances WHERE founder_id = ?"},
		{&s.AlliancesJoined, "SELECT COUNT(*) FROM alliance_members WHERE nation_id = ?"},
		{&s.LargestAlliance, `
			SELECT COALESCE(MAX(size), 0) FROM (
				SELECT COUNT(*) AS size FROM alliance_members
				WHERE alliance_id IN (SELECT alliance_id FROM alliance_members WHERE nation_id = ?)
				GROUP BY alliance_id
			) sizes`},
	}
	for _, c := range counters {
		if err := exec.QueryRowContext(ctx, c.query, nationID).Scan(c.dest); err != nil {
			logger.Error("Failed to read counter", "error", err)
			return nil, database.WrapError("failed to read achievement counters", err)
		}
	}

	return &s, nil
}

func (r *Repository) countBy(ctx context.Context, exec database.Executor, query string, nationID int64, add func(string, int64)) error {
	rows, err := exec.QueryContext(ctx, query, nationID)
	if err != nil {
		return database.WrapError("failed to query achievement counters", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "component", "achievement_repository", "error", err)
		}
	}()

	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return database.WrapError("failed to scan achievement counter", err)
		}
		add(key, n)
	}
	if err := rows.Err(); err != nil {
		return database.WrapError("error iterating achievement counters", err)
	}
	return nil
}

// Award records an unlock and reports whether it is new.
func (r *Repository) Award(ctx context.Context, nationID int64, code string, at time.Time, tx *database.Tx) (bool, error) {
	exec := r.getExecutor(tx)

	res, err := exec.ExecContext(ctx,
		"INSERT INTO nation_achievements (nation_id, code, achieved_at) VALUES (?, ?, ?) ON CONFLICT (nation_id, code) DO NOTHING",
		nationID, code, at.UnixMilli(),
	)
	if err != nil {
		r.logger.Error("Failed to award achievement", "component", "achievement_repository",
			"nation_id", nationID, "code", code, "error", err)
		return false, database.WrapError("failed to award achievement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, database.WrapError("failed to read affected rows", err)
	}
	return n == 1, nil
}

type unlock struct {
	code       string
	achievedAt time.Time
}

func (r *Repository) listByNation(ctx context.Context, nationID int64) ([]unlock, error) {
	logger := r.logger.With("component", "achievement_repository", "operation", "list_by_nation", "nation_id", nationID)

	rows, err := r.db.QueryContext(ctx,
		"SELECT code, achieved_at FROM nation_achievements WHERE nation_id = ? ORDER BY achieved_at, code",
		nationID,
	)
	if err != nil {
		logger.Error("Failed to query achievements", "error", err)
		return nil, database.WrapError("failed to query achievements", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var unlocks []unlock
	for rows.Next() {
		var u unlock
		var at int64
		if err := rows.Scan(&u.code, &at); err != nil {
			return nil, database.WrapError("failed to scan achievement", err)
		}
		u.achievedAt = time.UnixMilli(at).UTC()
		unlocks = append(unlocks, u)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError("error iterating achievements", err)
	}
	return unlocks, nil
}
