package ledger

import (
	"context"
	"log/slog"
	"time"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service struct {
	db     *database.DB
	repo   *Repository
	logger *slog.Logger
}

func NewService(db *database.DB, repo *Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing ledger service")

	return &Service{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// Record appends an entry to the nation's chain inside the caller's transaction.
// Callers hold the nation row lock, which keeps the chain linear.
func (s *Service) Record(ctx context.Context, tx *database.Tx, nationID int64, kind Kind, amount, balanceAfter int64, description string, at time.Time) (*Entry, error) {
	if tx == nil {
		return nil, errors.WrapInternal("ledger entries must be recorded inside a transaction", nil)
	}

	prev, err := s.repo.LastHash(ctx, nationID, tx)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		NationID:     nationID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  description,
		CreatedAt:    time.UnixMilli(at.UnixMilli()).UTC(),
		PrevHash:     prev,
	}
	entry.Hash = ComputeHash(prev, *entry)

	if err := s.repo.Insert(ctx, entry, tx); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Recent(ctx context.Context, nationID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return s.repo.ListByNation(ctx, nationID, limit)
}

// Verify walks a nation's chain from the genesis hash and reports the first tampered entry.
func (s *Service) Verify(ctx context.Context, nationID int64) (*VerifyResult, error) {
	logger := s.logger.With("component", "ledger_service", "operation", "verify", "nation_id", nationID)

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	entries, err := s.repo.ListByNation(ctx, nationID, 0)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{NationID: nationID, Entries: len(entries), Valid: true}
	prev := GenesisHash
	for _, e := range entries {
		if e.PrevHash != prev || ComputeHash(prev, e) != e.Hash {
			id := e.ID
			result.Valid = false
			result.BrokenAt = &id
			logger.Warn("Ledger chain broken", "entry_id", id)
			break
		}
		prev = e.Hash
	}

	logger.Debug("Ledger verified", "entries", result.Entries, "valid", result.Valid)
	return result, nil
}
