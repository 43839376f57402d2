package achievement

import (
	"context"
	"log/slog"
	"time"

	"nations-server/internal/shared/database"
)

type Service struct {
	db     *database.DB
	repo   *Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *database.DB, repo *Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing achievement service")

	return &Service{
		db:     db,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func award(d Definition, at time.Time) Award {
	return Award{
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		AchievedAt:  at,
	}
}

// Evaluate checks a nation against the catalog and returns only achievements unlocked by this call.
func (s *Service) Evaluate(ctx context.Context, nationID int64) ([]Award, error) {
	logger := s.logger.With(
		"component", "achievement_service",
		"operation", "evaluate",
		"nation_id", nationID,
	)

	now := time.UnixMilli(s.now().UnixMilli()).UTC()
	awards := []Award{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		awards = awards[:0]

		stats, err := s.repo.Snapshot(ctx, nationID, tx)
		if err != nil {
			return err
		}
		for _, d := range Unlocked(*stats) {
			fresh, err := s.repo.Award(ctx, nationID, d.Code, now, tx)
			if err != nil {
				return err
			}
			if fresh {
				awards = append(awards, award(d, now))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range awards {
		logger.Info("Achievement unlocked", "code", a.Code)
	}
	return awards, nil
}

func (s *Service) List(ctx context.Context, nationID int64) ([]Award, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	unlocks, err := s.repo.listByNation(ctx, nationID)
	if err != nil {
		return nil, err
	}

	awards := make([]Award, 0, len(unlocks))
	for _, u := range unlocks {
		d, ok := byCode[u.code]
		if !ok {
			s.logger.Warn("Skipping retired achievement", "component", "achievement_service", "code", u.code)
			continue
		}
		awards = append(awards, award(d, u.achievedAt))
	}
	return awards, nil
}

// Unlock evaluates after a successful command. A failure here must not fail the
// command that already committed, so it is logged and yields no awards.
func (s *Service) Unlock(ctx context.Context, nationID int64) []Award {
	awards, err := s.Evaluate(ctx, nationID)
	if err != nil {
		s.logger.Warn("Achievement evaluation failed",
			"component", "achievement_service",
			"nation_id", nationID,
			"error", err,
		)
		return []Award{}
	}
	return awards
}
