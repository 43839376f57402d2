package ranking

import (
	"context"
	"log/slog"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

const defaultLimit = 10

// Settler completes overdue time-based work that changes ranked stats.
type Settler interface {
	SettleDue(ctx context.Context) error
}

type Service struct {
	db       *database.DB
	repo     *Repository
	settler  Settler
	maxLimit int
	logger   *slog.Logger
}

// NewService ranks nations; a nil settler ranks stored stats as they are.
func NewService(db *database.DB, repo *Repository, settler Settler, maxLimit int, logger *slog.Logger) *Service {
	logger.Debug("Initializing ranking service")

	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &Service{
		db:       db,
		repo:     repo,
		settler:  settler,
		maxLimit: maxLimit,
		logger:   logger,
	}
}

func (s *Service) settle(ctx context.Context) error {
	if s.settler == nil {
		return nil
	}
	return s.settler.SettleDue(ctx)
}

// Leaderboard lists the top nations for a metric. Equal values share a rank.
func (s *Service) Leaderboard(ctx context.Context, metric string, limit int) (*Leaderboard, error) {
	m, ok := ParseMetric(metric)
	if !ok {
		return nil, errors.Validation("Invalid ranking metric. Valid metrics are: military_power, gdp, population")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, s.maxLimit)

	if err := s.settle(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	entries, err := s.repo.Top(ctx, m, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}

	for i := range entries {
		if i > 0 && entries[i].value(m) == entries[i-1].value(m) {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}

	return &Leaderboard{Metric: m, Entries: entries}, nil
}

func (s *Service) Ranks(ctx context.Context, nationID int64) (*Ranks, error) {
	if err := s.settle(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return s.repo.Ranks(ctx, nationID)
}
