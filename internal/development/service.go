package development

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nations-server/internal/combat"
	"nations-server/internal/ledger"
	"nations-server/internal/nation"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

type Service struct {
	db      *database.DB
	repo    *Repository
	nations *nation.Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(db *database.DB, repo *Repository, nations *nation.Service, logger *slog.Logger) *Service {
	logger.Debug("Initializing development service")

	return &Service{
		db:      db,
		repo:    repo,
		nations: nations,
		logger:  logger,
		now:     time.Now,
	}
}

func parseCategory(raw string) (Category, error) {
	c, ok := ParseCategory(raw)
	if !ok {
		return "", errors.WithUserMessage(
			errors.Validationf("invalid development category: %q", raw),
			fmt.Sprintf("Invalid development category. Valid categories are: %s", categoryNames()),
		)
	}
	return c, nil
}

func (s *Service) Options(category string) ([]Option, error) {
	c, err := parseCategory(category)
	if err != nil {
		return nil, err
	}
	return Options(c), nil
}

// Start pays for a catalog project and schedules its completion.
func (s *Service) Start(ctx context.Context, userID int64, req StartRequest) (*Development, error) {
	logger := s.logger.With(
		"component", "development_service",
		"operation", "start",
		"user_id", userID,
		"category", req.Category,
		"option", req.Option,
	)

	category, err := parseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	opt, ok := LookupOption(category, req.Option)
	if !ok {
		return nil, errors.WithUserMessage(
			errors.Validationf("invalid development option: %q", req.Option),
			fmt.Sprintf("Invalid development option. Valid options for %s are: %s", category, optionNames(category)),
		)
	}

	now := s.now()
	start := time.UnixMilli(now.UnixMilli()).UTC()
	d := &Development{
		Category:            category,
		Name:                opt.Name,
		Description:         opt.Description,
		Cost:                opt.Cost,
		StartTime:           start,
		EndTime:             start.Add(opt.Duration),
		Status:              StatusInProgress,
		InfrastructureBonus: opt.InfrastructureBonus,
		ResearchBonus:       opt.ResearchBonus,
		TradeBonus:          opt.TradeBonus,
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		owned, err := s.nations.GetByUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		n, err := s.nations.Lock(ctx, tx, owned.ID)
		if err != nil {
			return err
		}

		if err := s.nations.ApplyResourceDelta(ctx, tx, n, -opt.Cost, ledger.KindDevelopmentStarted,
			fmt.Sprintf("Started development: %s", opt.Name), now); err != nil {
			if errors.Is(err, errors.ErrorTypeResource) {
				return errors.WithUserMessage(err, fmt.Sprintf(
					"Not enough resources. %s costs %d resources, but you only have %d.", opt.Name, opt.Cost, n.Resources))
			}
			return err
		}

		d.NationID = n.ID
		return s.repo.Create(ctx, d, tx)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Development started", "development_id", d.ID, "nation_id", d.NationID, "end_time", d.EndTime)
	return d, nil
}

// Sweep completes every project due at now and applies its bonuses.
func (s *Service) Sweep(ctx context.Context, now time.Time) ([]Development, error) {
	return s.sweep(ctx, now, 0)
}

// SettleDue sweeps every nation at the current time. Reads that compare
// nations against each other call it so overdue bonuses are counted.
func (s *Service) SettleDue(ctx context.Context) error {
	_, err := s.Sweep(ctx, s.now())
	return err
}

// SweepNation reconciles one nation's projects before its state is read.
func (s *Service) SweepNation(ctx context.Context, nationID int64) ([]Development, error) {
	return s.sweep(ctx, s.now(), nationID)
}

func (s *Service) sweep(ctx context.Context, now time.Time, nationID int64) ([]Development, error) {
	logger := s.logger.With("component", "development_service", "operation", "sweep", "nation_id", nationID)

	listCtx, cancel := s.db.WithTimeout(ctx)
	due, err := s.repo.ListDue(listCtx, now, nationID)
	cancel()
	if err != nil {
		return nil, err
	}

	completed := make([]Development, 0, len(due))
	for _, d := range due {
		won := false
		err := s.db.WithTx(ctx, func(tx *database.Tx) error {
			claimed, err := s.repo.Complete(ctx, d.ID, now, tx)
			if err != nil || !claimed {
				return err
			}
			if err := s.applyBonuses(ctx, tx, &d, now); err != nil {
				return err
			}
			won = true
			return nil
		})
		if err != nil {
			logger.Error("Failed to complete development", "development_id", d.ID, "error", err)
			return completed, err
		}
		if !won {
			logger.Debug("Development already settled by another sweep", "development_id", d.ID)
			continue
		}

		completedAt := time.UnixMilli(now.UnixMilli()).UTC()
		d.Status = StatusCompleted
		d.CompletedAt = &completedAt
		completed = append(completed, d)
	}

	if len(completed) > 0 {
		logger.Info("Developments completed", "count", len(completed))
	}
	return completed, nil
}

func (s *Service) applyBonuses(ctx context.Context, tx *database.Tx, d *Development, now time.Time) error {
	n, err := s.nations.Lock(ctx, tx, d.NationID)
	if err != nil {
		return err
	}

	n.GDP = combat.Floor(float64(n.GDP) * (1 + d.InfrastructureBonus))
	n.MilitaryPower = combat.Floor(float64(n.MilitaryPower) * (1 + d.ResearchBonus))

	tradeGain := combat.Floor(float64(n.Resources) * d.TradeBonus)
	if err := s.nations.ApplyResourceDelta(ctx, tx, n, tradeGain, ledger.KindDevelopmentCompleted,
		fmt.Sprintf("Completed development: %s", d.Name), now); err != nil {
		return err
	}
	return s.nations.SaveStats(ctx, tx, n, now)
}

// Get returns a project of the caller's nation with its progress, settling it first if it is due.
func (s *Service) Get(ctx context.Context, nationID, developmentID int64) (*Development, Progress, error) {
	if _, err := s.SweepNation(ctx, nationID); err != nil {
		return nil, Progress{}, err
	}

	readCtx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	d, err := s.repo.GetByID(readCtx, developmentID, nil)
	if err != nil {
		return nil, Progress{}, err
	}
	if d.NationID != nationID {
		return nil, Progress{}, errors.WithUserMessage(
			errors.Forbiddenf("development %d belongs to nation %d", developmentID, d.NationID),
			"You can only view your own developments.",
		)
	}
	return d, ProgressAt(d, s.now()), nil
}

// Cancel stops an in-progress project. The cost is not refunded.
// Projects already past their end time are settled first and cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, nationID, developmentID int64) (*Development, error) {
	logger := s.logger.With(
		"component", "development_service",
		"operation", "cancel",
		"nation_id", nationID,
		"development_id", developmentID,
	)

	if _, err := s.SweepNation(ctx, nationID); err != nil {
		return nil, err
	}

	now := s.now()
	var d *Development
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		d, err = s.repo.GetByID(ctx, developmentID, tx)
		if err != nil {
			return err
		}
		if d.NationID != nationID {
			return errors.WithUserMessage(
				errors.Forbiddenf("development %d belongs to nation %d", developmentID, d.NationID),
				"You can only cancel your own developments.",
			)
		}

		cancelled, err := s.repo.Cancel(ctx, developmentID, now, tx)
		if err != nil {
			return err
		}
		if !cancelled && d.Status == StatusInProgress {
			return errors.WithUserMessage(
				errors.Conflictf("development %d is due and awaits completion", developmentID),
				"This development has already finished and can no longer be cancelled.",
			)
		}
		if !cancelled {
			return errors.WithUserMessage(
				errors.Conflictf("development %d is already %s", developmentID, d.Status),
				fmt.Sprintf("This development is already %s.", d.Status),
			)
		}
		d.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Development cancelled")
	return d, nil
}

// List returns a nation's active and completed projects after settling due ones.
func (s *Service) List(ctx context.Context, nationID int64) (*Listing, error) {
	if _, err := s.SweepNation(ctx, nationID); err != nil {
		return nil, err
	}

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	active, err := s.repo.ListByNation(ctx, nationID, StatusInProgress)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.ListByNation(ctx, nationID, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if active == nil {
		active = []Development{}
	}
	if completed == nil {
		completed = []Development{}
	}
	return &Listing{Active: active, Completed: completed}, nil
}
