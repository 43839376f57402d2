package alliance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/errors"
)

const (
	minNameLength        = 3
	maxNameLength        = 50
	maxDescriptionLength = 500
)

type Service struct {
	db     *database.DB
	repo   *Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *database.DB, repo *Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing alliance service")

	return &Service{
		db:     db,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create founds an alliance with the founder as its first member.
func (s *Service) Create(ctx context.Context, founderID int64, req CreateRequest) (*Alliance, error) {
	logger := s.logger.With(
		"component", "alliance_service",
		"operation", "create",
		"founder_id", founderID,
	)

	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return nil, errors.Validationf("Alliance name must be between %d and %d characters long", minNameLength, maxNameLength)
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, errors.Validationf("Alliance description must be at most %d characters long", maxDescriptionLength)
	}

	now := s.now()
	a := &Alliance{
		Name:        name,
		Description: description,
		FounderID:   founderID,
		CreatedAt:   time.UnixMilli(now.UnixMilli()).UTC(),
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.repo.Create(ctx, a, tx); err != nil {
			if errors.Is(err, errors.ErrorTypeConflict) {
				return errors.WithUserMessage(err,
					fmt.Sprintf("An alliance with the name '%s' already exists. Please choose a different name.", name))
			}
			return err
		}
		return s.repo.AddMember(ctx, a.ID, founderID, now, tx)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Alliance created", "alliance_id", a.ID, "name", a.Name)
	return a, nil
}

func (s *Service) Join(ctx context.Context, nationID, allianceID int64) (*Alliance, error) {
	logger := s.logger.With(
		"component", "alliance_service",
		"operation", "join",
		"nation_id", nationID,
		"alliance_id", allianceID,
	)

	var a *Alliance
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		a, err = s.repo.GetByID(ctx, allianceID, tx)
		if err != nil {
			return err
		}
		if err := s.repo.AddMember(ctx, allianceID, nationID, s.now(), tx); err != nil {
			if errors.Is(err, errors.ErrorTypeConflict) {
				return errors.WithUserMessage(err,
					fmt.Sprintf("Your nation is already a member of the %s alliance.", a.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Nation joined alliance")
	return a, nil
}

// Leave removes a member. The founder has to disband instead.
func (s *Service) Leave(ctx context.Context, nationID, allianceID int64) error {
	logger := s.logger.With(
		"component", "alliance_service",
		"operation", "leave",
		"nation_id", nationID,
		"alliance_id", allianceID,
	)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		a, err := s.repo.GetByID(ctx, allianceID, tx)
		if err != nil {
			return err
		}

		member, err := s.repo.IsMember(ctx, allianceID, nationID, tx)
		if err != nil {
			return err
		}
		if !member {
			return errors.WithUserMessage(
				errors.Validationf("nation %d is not a member of alliance %d", nationID, allianceID),
				fmt.Sprintf("Your nation is not a member of the %s alliance.", a.Name),
			)
		}
		if a.FounderID == nationID {
			return errors.WithUserMessage(
				errors.Forbiddenf("nation %d founded alliance %d", nationID, allianceID),
				fmt.Sprintf("You are the founder of the %s alliance. You must disband the alliance before leaving.", a.Name),
			)
		}

		return s.repo.RemoveMember(ctx, allianceID, nationID, tx)
	})
	if err != nil {
		return err
	}

	logger.Info("Nation left alliance")
	return nil
}

func (s *Service) Disband(ctx context.Context, nationID, allianceID int64) error {
	logger := s.logger.With(
		"component", "alliance_service",
		"operation", "disband",
		"nation_id", nationID,
		"alliance_id", allianceID,
	)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		a, err := s.repo.GetByID(ctx, allianceID, tx)
		if err != nil {
			return err
		}
		if a.FounderID != nationID {
			return errors.WithUserMessage(
				errors.Forbiddenf("nation %d is not the founder of alliance %d", nationID, allianceID),
				fmt.Sprintf("You are not the founder of the %s alliance. Only the founder can disband the alliance.", a.Name),
			)
		}
		return s.repo.Delete(ctx, allianceID, tx)
	})
	if err != nil {
		return err
	}

	logger.Info("Alliance disbanded")
	return nil
}

func (s *Service) Details(ctx context.Context, allianceID int64) (*Details, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	a, err := s.repo.GetByID(ctx, allianceID, nil)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, allianceID)
	if err != nil {
		return nil, err
	}

	d := &Details{Alliance: *a, Members: members, MemberCount: len(members), FounderName: "Unknown"}
	if d.Members == nil {
		d.Members = []Member{}
	}
	for _, m := range members {
		if m.IsFounder {
			d.FounderName = m.Name
		}
	}
	return d, nil
}

func (s *Service) ListForNation(ctx context.Context, nationID int64) ([]Alliance, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	alliances, err := s.repo.ListByNation(ctx, nationID)
	if err != nil {
		return nil, err
	}
	if alliances == nil {
		alliances = []Alliance{}
	}
	return alliances, nil
}
