package server

import (
	"log/slog"

	"nations-server/internal/achievement"
	"nations-server/internal/alliance"
	"nations-server/internal/auth"
	"nations-server/internal/combat"
	"nations-server/internal/development"
	"nations-server/internal/ledger"
	"nations-server/internal/military"
	"nations-server/internal/nation"
	"nations-server/internal/ranking"
	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
	"nations-server/internal/user"
)

// NewServices wires repositories and services over one store.
// A nil rnd draws battle outcomes from the process generator.
func NewServices(db *database.DB, cfg *config.Config, rnd combat.Random, logger *slog.Logger) (Services, error) {
	issuer, err := auth.NewTokenIssuer(cfg.Auth)
	if err != nil {
		return Services{}, err
	}

	userService := user.NewService(db, user.NewRepository(db, logger), cfg.Admin.ChatIDs, logger)
	ledgerService := ledger.NewService(db, ledger.NewRepository(db, logger), logger)

	militaryRepo := military.NewRepository(db, logger)
	nationService := nation.NewService(db, nation.NewRepository(db, logger), militaryRepo, ledgerService, cfg.Game, logger)

	developmentService := development.NewService(db, development.NewRepository(db, logger), nationService, logger)

	return Services{
		Auth:         auth.NewService(userService, issuer, cfg.Auth.BotSecret, logger),
		Nations:      nationService,
		Military:     military.NewService(db, militaryRepo, nationService, rnd, logger),
		Developments: developmentService,
		Alliances:    alliance.NewService(db, alliance.NewRepository(db, logger), logger),
		Rankings:     ranking.NewService(db, ranking.NewRepository(db, logger), developmentService, cfg.Game.LeaderboardMaxLimit, logger),
		Achievements: achievement.NewService(db, achievement.NewRepository(db, logger), logger),
		Ledger:       ledgerService,
	}, nil
}
