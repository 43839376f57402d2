package nation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"nations-server/internal/ledger"
	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

const (
	minNameLength = 3
	maxNameLength = 50
)

// Army is the slice of the military store the nation lifecycle needs.
type Army interface {
	SeedGarrison(ctx context.Context, nationID int64, tx *database.Tx) error
	MaintenanceCost(ctx context.Context, nationID int64, tx *database.Tx) (int64, error)
}

type Service struct {
	db     *database.DB
	repo   *Repository
	army   Army
	ledger *ledger.Service
	game   config.GameConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *database.DB, repo *Repository, army Army, ledgerService *ledger.Service, game config.GameConfig, logger *slog.Logger) *Service {
	logger.Debug("Initializing nation service")

	return &Service{
		db:     db,
		repo:   repo,
		army:   army,
		ledger: ledgerService,
		game:   game,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (*Nation, error) {
	logger := s.logger.With(
		"component", "nation_service",
		"operation", "create",
		"user_id", userID,
	)

	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	government := Government(strings.ToLower(strings.TrimSpace(req.Government)))
	if !government.IsValid() {
		return nil, errors.Validationf("Invalid government type. Valid types are: %s", joinValues(Governments))
	}

	ideology := Ideology(strings.ToLower(strings.TrimSpace(req.Ideology)))
	if !ideology.IsValid() {
		return nil, errors.Validationf("Invalid ideology. Valid ideologies are: %s", joinValues(Ideologies))
	}

	now := s.now()
	n := &Nation{
		UserID:        userID,
		Name:          name,
		Government:    government,
		Ideology:      ideology,
		Population:    s.game.InitialPopulation,
		GDP:           s.game.InitialGDP,
		MilitaryPower: s.game.InitialMilitary,
		Resources:     s.game.InitialResources,
		LastIncomeDay: incomeDay(now),
		CreatedAt:     time.UnixMilli(now.UnixMilli()).UTC(),
		UpdatedAt:     time.UnixMilli(now.UnixMilli()).UTC(),
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if existing, err := s.repo.GetByUserID(ctx, userID, tx); err == nil {
			return errors.WithUserMessage(
				errors.Conflictf("user %d already owns nation %d", userID, existing.ID),
				"You already have a nation. You can only have one nation at a time.",
			)
		} else if !errors.Is(err, errors.ErrorTypeNotFound) {
			return err
		}

		if err := s.repo.Create(ctx, n, tx); err != nil {
			if errors.Is(err, errors.ErrorTypeConflict) {
				return errors.WithUserMessage(err,
					fmt.Sprintf("A nation with the name '%s' already exists. Please choose a different name.", name))
			}
			return err
		}

		if _, err := s.ledger.Record(ctx, tx, n.ID, ledger.KindNationFounded, n.Resources, n.Resources,
			"Initial treasury", now); err != nil {
			return err
		}

		if s.game.StartingGarrison {
			if err := s.army.SeedGarrison(ctx, n.ID, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Nation created", "nation_id", n.ID, "name", n.Name)
	return n, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.Validation("Nation name cannot be empty")
	}
	length := utf8.RuneCountInString(name)
	if length < minNameLength {
		return "", errors.Validationf("Nation name must be at least %d characters long", minNameLength)
	}
	if length > maxNameLength {
		return "", errors.Validationf("Nation name must be at most %d characters long", maxNameLength)
	}
	return name, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Nation, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return s.repo.GetByID(ctx, id, nil)
}

func (s *Service) GetByUser(ctx context.Context, userID int64) (*Nation, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	return s.repo.GetByUserID(ctx, userID, nil)
}

// GetByUserTx resolves the caller's nation inside an open transaction.
func (s *Service) GetByUserTx(ctx context.Context, tx *database.Tx, userID int64) (*Nation, error) {
	return s.repo.GetByUserID(ctx, userID, tx)
}

// Lock reads a nation under its row lock for the rest of tx.
func (s *Service) Lock(ctx context.Context, tx *database.Tx, id int64) (*Nation, error) {
	return s.repo.GetForUpdate(ctx, id, tx)
}

// RequireOwner fails with a permission error unless userID owns the nation.
func (s *Service) RequireOwner(n *Nation, userID int64) error {
	if n.UserID != userID {
		return errors.WithUserMessage(
			errors.Forbiddenf("user %d does not own nation %d", userID, n.ID),
			"You don't own this nation.",
		)
	}
	return nil
}

// ApplyResourceDelta moves a locked nation's balance by delta and records why.
// A delta that would leave the balance negative is rejected with a resource error.
func (s *Service) ApplyResourceDelta(ctx context.Context, tx *database.Tx, n *Nation, delta int64, kind ledger.Kind, description string, at time.Time) error {
	next := n.Resources + delta
	if next < 0 {
		return errors.WithUserMessage(
			errors.Resourcef("not enough resources: %d < %d", n.Resources, -delta),
			fmt.Sprintf("Not enough resources. This costs %d resources, but you only have %d.", -delta, n.Resources),
		)
	}
	if delta == 0 {
		return nil
	}

	if err := s.repo.UpdateResources(ctx, n.ID, next, at, tx); err != nil {
		return err
	}
	if _, err := s.ledger.Record(ctx, tx, n.ID, kind, delta, next, description, at); err != nil {
		return err
	}

	n.Resources = next
	n.UpdatedAt = at.UTC()
	return nil
}

// SaveStats persists gdp, military power and resources of a locked nation.
func (s *Service) SaveStats(ctx context.Context, tx *database.Tx, n *Nation, at time.Time) error {
	return s.repo.UpdateStats(ctx, n, at, tx)
}

// AdjustResources is the administrative balance correction.
func (s *Service) AdjustResources(ctx context.Context, nationID, amount int64, reason string) (*Nation, error) {
	logger := s.logger.With(
		"component", "nation_service",
		"operation", "adjust_resources",
		"nation_id", nationID,
		"amount", amount,
	)

	if amount == 0 {
		return nil, errors.Validation("Amount must not be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Administrative adjustment"
	}

	now := s.now()
	var n *Nation
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		n, err = s.repo.GetForUpdate(ctx, nationID, tx)
		if err != nil {
			return err
		}
		return s.ApplyResourceDelta(ctx, tx, n, amount, ledger.KindAdminAdjustment, reason, now)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Resources adjusted", "resources", n.Resources)
	return n, nil
}

// DailyUpdate pays every nation its income for the current UTC day, net of unit upkeep.
// Each nation is paid at most once per day even when runs overlap.
func (s *Service) DailyUpdate(ctx context.Context, now time.Time) (int, error) {
	logger := s.logger.With("component", "nation_service", "operation", "daily_update")

	day := incomeDay(now)

	listCtx, cancel := s.db.WithTimeout(ctx)
	ids, err := s.repo.ListIDsDueIncome(listCtx, day)
	cancel()
	if err != nil {
		return 0, err
	}

	paid := 0
	for _, id := range ids {
		applied := false
		err := s.db.WithTx(ctx, func(tx *database.Tx) error {
			claimed, err := s.repo.ClaimIncomeDay(ctx, id, day, tx)
			if err != nil || !claimed {
				return err
			}

			n, err := s.repo.GetForUpdate(ctx, id, tx)
			if err != nil {
				return err
			}
			upkeep, err := s.army.MaintenanceCost(ctx, id, tx)
			if err != nil {
				return err
			}

			delta := s.game.DailyResourceGain - upkeep
			if n.Resources+delta < 0 {
				delta = -n.Resources
			}
			description := fmt.Sprintf("Daily income %d, upkeep %d", s.game.DailyResourceGain, upkeep)
			if err := s.ApplyResourceDelta(ctx, tx, n, delta, ledger.KindDailyIncome, description, now); err != nil {
				return err
			}
			applied = true
			return nil
		})
		if err != nil {
			logger.Error("Failed to pay daily income", "nation_id", id, "error", err)
			return paid, err
		}
		if applied {
			paid++
		}
	}

	logger.Info("Daily update finished", "day", day, "nations_paid", paid)
	return paid, nil
}
