package ranking

import (
	"context"
	"log/slog"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing ranking repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Top returns the leading nations for a metric, ties broken by id.
func (r *Repository) Top(ctx context.Context, metric Metric, limit int) ([]Entry, error) {
	logger := r.logger.With("component", "ranking_repository", "operation", "top", "metric", metric)

	column := metric.column()
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, military_power, gdp, population FROM nations ORDER BY "+column+" DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		logger.Error("Failed to query leaderboard", "error", err)
		return nil, database.WrapError("failed to query leaderboard", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.NationID, &e.Name, &e.MilitaryPower, &e.GDP, &e.Population); err != nil {
			logger.Error("Failed to scan leaderboard row", "error", err)
			return nil, database.WrapError("failed to scan leaderboard entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError("error iterating leaderboard", err)
	}
	return entries, nil
}

// Ranks counts, per metric, the nations strictly ahead of nationID.
func (r *Repository) Ranks(ctx context.Context, nationID int64) (*Ranks, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM nations o WHERE o.military_power > n.military_power) + 1,
			(SELECT COUNT(*) FROM nations o WHERE o.gdp > n.gdp) + 1,
			(SELECT COUNT(*) FROM nations o WHERE o.population > n.population) + 1,
			(SELECT COUNT(*) FROM nations)
		FROM nations n
		WHERE n.id = ?
	`

	ranks := Ranks{NationID: nationID}
	err := r.db.QueryRowContext(ctx, query, nationID).
		Scan(&ranks.MilitaryRank, &ranks.EconomyRank, &ranks.PopulationRank, &ranks.TotalNations)
	if database.IsNoRows(err) {
		return nil, errors.WithUserMessage(errors.NotFoundf("nation %d not found", nationID), "Nation not found.")
	}
	if err != nil {
		r.logger.Error("Failed to compute ranks", "component", "ranking_repository", "nation_id", nationID, "error", err)
		return nil, database.WrapError("failed to compute ranks", err)
	}
	return &ranks, nil
}
