package ledger

import (
	"context"
	"log/slog"
	"time"

	"nations-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing ledger repository")

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

// LastHash returns the head of a nation's chain, or GenesisHash for an empty chain.
func (r *Repository) LastHash(ctx context.Context, nationID int64, tx *database.Tx) (string, error) {
	exec := r.getExecutor(tx)

	var hash string
	err := exec.QueryRowContext(ctx,
		"SELECT hash FROM ledger_entries WHERE nation_id = ? ORDER BY id DESC LIMIT 1",
		nationID,
	).Scan(&hash)
	if database.IsNoRows(err) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", database.WrapError("failed to read ledger head", err)
	}
	return hash, nil
}

func (r *Repository) Insert(ctx context.Context, e *Entry, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "ledger_repository",
		"operation", "insert",
		"nation_id", e.NationID,
		"kind", e.Kind,
	)

	query := `
		INSERT INTO ledger_entries (nation_id, kind, amount, balance_after, description, created_at, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := exec.QueryRowContext(ctx, query,
		e.NationID, e.Kind, e.Amount, e.BalanceAfter, e.Description, e.CreatedAt.UnixMilli(), e.PrevHash, e.Hash,
	).Scan(&e.ID)
	if err != nil {
		logger.Error("Failed to insert ledger entry", "error", err)
		return database.WrapError("failed to insert ledger entry", err)
	}

	logger.Debug("Ledger entry inserted", "entry_id", e.ID, "amount", e.Amount)
	return nil
}

// ListByNation returns entries newest first when limit > 0, or the full chain oldest first when limit is 0.
func (r *Repository) ListByNation(ctx context.Context, nationID int64, limit int) ([]Entry, error) {
	logger := r.logger.With("component", "ledger_repository", "operation", "list_by_nation", "nation_id", nationID)

	query := `
		SELECT id, nation_id, kind, amount, balance_after, description, created_at, prev_hash, hash
		FROM ledger_entries
		WHERE nation_id = ?
		ORDER BY id ASC
	`
	args := []interface{}{nationID}
	if limit > 0 {
		query = `
			SELECT id, nation_id, kind, amount, balance_after, description, created_at, prev_hash, hash
			FROM ledger_entries
			WHERE nation_id = ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query ledger entries", "error", err)
		return nil, database.WrapError("failed to query ledger entries", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(
			&e.ID,
			&e.NationID,
			&e.Kind,
			&e.Amount,
			&e.BalanceAfter,
			&e.Description,
			&createdAt,
			&e.PrevHash,
			&e.Hash,
		); err != nil {
			logger.Error("Failed to scan ledger row", "error", err)
			return nil, database.WrapError("failed to scan ledger entry", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, database.WrapError("error iterating ledger entries", err)
	}

	return entries, nil
}
