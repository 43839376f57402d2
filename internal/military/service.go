package military

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

const (
	maxBuildQuantity    = 1_000_000
	defaultBattlesLimit = 10
	maxBattlesLimit     = 50
)

type Service struct {
	db       *database.DB
	repo     *Repository
	nations  *nation.Service
	resolver *combat.Resolver
	rnd      combat.Random
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(db *database.DB, repo *Repository, nations *nation.Service, rnd combat.Random, logger *slog.Logger) *Service {
	logger.Debug("Initializing military service")

	if rnd == nil {
		rnd = combat.NewRandom()
	}

	return &Service{
		db:       db,
		repo:     repo,
		nations:  nations,
		resolver: combat.NewResolver(rnd),
		rnd:      rnd,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Army(ctx context.Context, nationID int64) (*Army, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	units, err := s.repo.ListUnits(ctx, nationID, nil)
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []Unit{}
	}
	return &Army{NationID: nationID, Units: units, Strength: Strength(units)}, nil
}

// Build buys units for the caller's nation; the cost is deducted in the same transaction.
func (s *Service) Build(ctx context.Context, userID int64, req BuildRequest) (*BuildResult, error) {
	logger := s.logger.With(
		"component", "military_service",
		"operation", "build",
		"user_id", userID,
		"unit_type", req.Category,
		"quantity", req.Quantity,
	)

	category, ok := ParseCategory(req.Category)
	if !ok {
		return nil, errors.WithUserMessage(
			errors.Validationf("invalid unit type: %q", req.Category),
			fmt.Sprintf("Invalid unit type. Valid types are: %s, %s, %s, %s", Infantry, Tank, Ship, Aircraft),
		)
	}
	if req.Quantity <= 0 {
		return nil, errors.Validation("Quantity must be greater than 0")
	}
	if req.Quantity > maxBuildQuantity {
		return nil, errors.Validationf("Quantity must be at most %d", maxBuildQuantity)
	}

	cost := category.Cost() * req.Quantity
	now := s.now()

	var result BuildResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		owned, err := s.nations.GetByUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		n, err := s.nations.Lock(ctx, tx, owned.ID)
		if err != nil {
			return err
		}

		description := fmt.Sprintf("Built %d %s units", req.Quantity, category)
		if err := s.nations.ApplyResourceDelta(ctx, tx, n, -cost, ledger.KindBuildUnits, description, now); err != nil {
			if errors.Is(err, errors.ErrorTypeResource) {
				return errors.WithUserMessage(err, fmt.Sprintf(
					"Not enough resources. Building %d %s units costs %d resources, but you only have %d.",
					req.Quantity, category, cost, n.Resources))
			}
			return err
		}

		unit, err := s.repo.AddUnits(ctx, n.ID, category, req.Quantity, tx)
		if err != nil {
			return err
		}

		result = BuildResult{Unit: *unit, Cost: cost, Resources: n.Resources}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Units built", "nation_id", result.Unit.NationID, "cost", cost, "total", result.Unit.Quantity)
	return &result, nil
}

// Attack resolves a battle between the caller's nation and defenderID.
// Both nation rows are locked in ascending id order so concurrent battles over
// the same nations serialize instead of interleaving unit decrements.
func (s *Service) Attack(ctx context.Context, userID, defenderID int64) (*AttackResult, error) {
	logger := s.logger.With(
		"component", "military_service",
		"operation", "attack",
		"user_id", userID,
		"defender_id", defenderID,
	)

	now := s.now()
	var result AttackResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		owned, err := s.nations.GetByUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if owned.ID == defenderID {
			return errors.WithUserMessage(
				errors.Validation("cannot attack own nation"),
				"You cannot attack your own nation.",
			)
		}

		attacker, defender, err := s.lockPair(ctx, tx, owned.ID, defenderID)
		if err != nil {
			return err
		}

		attackerUnits, err := s.repo.ListUnits(ctx, attacker.ID, tx)
		if err != nil {
			return err
		}
		defenderUnits, err := s.repo.ListUnits(ctx, defender.ID, tx)
		if err != nil {
			return err
		}

		attackerStrength := Strength(attackerUnits)
		defenderStrength := Strength(defenderUnits)
		if attackerStrength <= 0 {
			return errors.WithUserMessage(
				errors.Resourcef("attacker %d has no military strength", attacker.ID),
				"You don't have any military units. Build an army before attacking.",
			)
		}

		outcome := s.resolver.Resolve(attackerStrength, defenderStrength, defender.Resources)

		attackerLosses := toCategoryLosses(combat.Allocate(unitStrengths(attackerUnits), outcome.AttackerCasualties))
		defenderLosses := toCategoryLosses(combat.Allocate(unitStrengths(defenderUnits), outcome.DefenderCasualties))

		if err := s.repo.ApplyLosses(ctx, attacker.ID, attackerLosses, tx); err != nil {
			return err
		}
		if err := s.repo.ApplyLosses(ctx, defender.ID, defenderLosses, tx); err != nil {
			return err
		}

		if outcome.Result == combat.ResultVictory && outcome.ResourcesCaptured > 0 {
			captured := outcome.ResourcesCaptured
			if err := s.nations.ApplyResourceDelta(ctx, tx, defender, -captured, ledger.KindBattleLoss,
				fmt.Sprintf("Resources plundered by %s", attacker.Name), now); err != nil {
				return err
			}
			if err := s.nations.ApplyResourceDelta(ctx, tx, attacker, captured, ledger.KindBattleCapture,
				fmt.Sprintf("Resources captured from %s", defender.Name), now); err != nil {
				return err
			}
		}

		battle := Battle{
			AttackerID:         attacker.ID,
			DefenderID:         defender.ID,
			AttackerStrength:   attackerStrength,
			DefenderStrength:   defenderStrength,
			Result:             outcome.Result,
			AttackerCasualties: outcome.AttackerCasualties,
			DefenderCasualties: outcome.DefenderCasualties,
			TerritoryPct:       outcome.TerritoryPct,
			ResourcesCaptured:  outcome.ResourcesCaptured,
			CreatedAt:          time.UnixMilli(now.UnixMilli()).UTC(),
		}
		battle.Report = combat.Report(combat.ReportInput{
			AttackerName:     attacker.Name,
			DefenderName:     defender.Name,
			AttackerStrength: attackerStrength,
			DefenderStrength: defenderStrength,
			Outcome:          outcome,
			FoughtAt:         now,
		}, s.rnd)

		if err := s.repo.InsertBattle(ctx, &battle, tx); err != nil {
			return err
		}

		result = AttackResult{
			Battle:         battle,
			AttackerName:   attacker.Name,
			DefenderName:   defender.Name,
			AttackerLosses: attackerLosses,
			DefenderLosses: defenderLosses,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Battle resolved",
		"battle_id", result.Battle.ID,
		"attacker", result.AttackerName,
		"defender", result.DefenderName,
		"result", result.Battle.Result,
	)
	return &result, nil
}

func (s *Service) lockPair(ctx context.Context, tx *database.Tx, attackerID, defenderID int64) (attacker, defender *nation.Nation, err error) {
	first, second := attackerID, defenderID
	if second < first {
		first, second = second, first
	}

	lockedFirst, err := s.nations.Lock(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	lockedSecond, err := s.nations.Lock(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if lockedFirst.ID == attackerID {
		return lockedFirst, lockedSecond, nil
	}
	return lockedSecond, lockedFirst, nil
}

func toCategoryLosses(losses map[string]int64) map[UnitCategory]int64 {
	out := make(map[UnitCategory]int64, len(losses))
	for category, n := range losses {
		out[UnitCategory(category)] = n
	}
	return out
}

func (s *Service) Battles(ctx context.Context, nationID int64, limit int) ([]Battle, error) {
	if limit <= 0 {
		limit = defaultBattlesLimit
	}
	limit = min(limit, maxBattlesLimit)

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	battles, err := s.repo.ListBattles(ctx, nationID, limit)
	if err != nil {
		return nil, err
	}
	if battles == nil {
		battles = []Battle{}
	}
	return battles, nil
}

// Battle returns one battle; only its participants may read it.
func (s *Service) Battle(ctx context.Context, nationID, battleID int64) (*Battle, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	b, err := s.repo.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if b.AttackerID != nationID && b.DefenderID != nationID {
		return nil, errors.WithUserMessage(
			errors.Forbiddenf("nation %d did not take part in battle %d", nationID, battleID),
			"You can only view battles your nation fought in.",
		)
	}
	return b, nil
}
