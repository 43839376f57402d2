package server

import (
	"log/slog"
	"net/http"

	"nations-server/internal/achievement"
	achievementHandlers "nations-server/internal/achievement/handlers"
	"nations-server/internal/alliance"
	allianceHandlers "nations-server/internal/alliance/handlers"
	"nations-server/internal/auth"
	authHandlers "nations-server/internal/auth/handlers"
	"nations-server/internal/development"
	developmentHandlers "nations-server/internal/development/handlers"
	"nations-server/internal/ledger"
	ledgerHandlers "nations-server/internal/ledger/handlers"
	"nations-server/internal/middleware"
	"nations-server/internal/military"
	militaryHandlers "nations-server/internal/military/handlers"
	"nations-server/internal/nation"
	nationHandlers "nations-server/internal/nation/handlers"
	"nations-server/internal/ranking"
	rankingHandlers "nations-server/internal/ranking/handlers"
	"nations-server/internal/ratelimit"
	serverHandlers "nations-server/internal/server/handlers"
	"nations-server/internal/shared/database"
)

// Services bundles everything the HTTP surface dispatches to.
type Services struct {
	Auth         *auth.Service
	Nations      *nation.Service
	Military     *military.Service
	Developments *development.Service
	Alliances    *alliance.Service
	Rankings     *ranking.Service
	Achievements *achievement.Service
	Ledger       *ledger.Service
}

type Routes struct {
	db       *database.DB
	services Services
	limiter  ratelimit.Limiter
	logger   *slog.Logger
}

func NewRoutes(db *database.DB, services Services, limiter ratelimit.Limiter, logger *slog.Logger) *Routes {
	return &Routes{
		db:       db,
		services: services,
		limiter:  limiter,
		logger:   logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	authn := middleware.NewAuthenticator(r.services.Auth)
	nationAccess := middleware.NewNationAccessMiddleware(r.services.Nations)

	// user: authenticated and rate limited, no nation required.
	user := func(command string, h http.HandlerFunc) http.Handler {
		return authn.Require(middleware.RateLimit(r.limiter, command)(h))
	}
	// player: authenticated, rate limited, and owning a nation.
	player := func(command string, h http.HandlerFunc) http.Handler {
		return user(command, nationAccess.Require(h).ServeHTTP)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authn.RequireAdmin(h)
	}

	healthHandler := serverHandlers.NewHealthHandler(r.db)
	tokenHandler := authHandlers.NewTokenHandler(r.services.Auth)
	nationHandler := nationHandlers.NewNationHandler(r.services.Nations, r.services.Military, r.services.Developments, r.services.Achievements)
	militaryHandler := militaryHandlers.NewMilitaryHandler(r.services.Military, r.services.Achievements)
	developmentHandler := developmentHandlers.NewDevelopmentHandler(r.services.Developments, r.services.Achievements)
	allianceHandler := allianceHandlers.NewAllianceHandler(r.services.Alliances, r.services.Achievements)
	rankingHandler := rankingHandlers.NewRankingHandler(r.services.Rankings)
	achievementHandler := achievementHandlers.NewAchievementHandler(r.services.Achievements)
	ledgerHandler := ledgerHandlers.NewLedgerHandler(r.services.Ledger)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/api/auth/token", tokenHandler)

	// Nations
	mux.Handle("POST /api/nations", user(ratelimit.CommandCreateNation, nationHandler.Create))
	mux.Handle("GET /api/nations/me", player(ratelimit.CommandDefault, nationHandler.Me))
	mux.Handle("GET /api/nations/{id}", user(ratelimit.CommandDefault, nationHandler.Get))

	// Military
	mux.Handle("POST /api/military/build", player(ratelimit.CommandBuild, militaryHandler.Build))
	mux.Handle("POST /api/military/attack", player(ratelimit.CommandAttack, militaryHandler.Attack))
	mux.Handle("GET /api/battles", player(ratelimit.CommandDefault, militaryHandler.Battles))
	mux.Handle("GET /api/battles/{id}", player(ratelimit.CommandDefault, militaryHandler.Battle))

	// Developments
	mux.Handle("GET /api/developments/options", user(ratelimit.CommandDefault, developmentHandler.Options))
	mux.Handle("GET /api/developments", player(ratelimit.CommandDefault, developmentHandler.List))
	mux.Handle("POST /api/developments", player(ratelimit.CommandDevelopment, developmentHandler.Start))
	mux.Handle("GET /api/developments/{id}/progress", player(ratelimit.CommandDefault, developmentHandler.Progress))
	mux.Handle("POST /api/developments/{id}/cancel", player(ratelimit.CommandDevelopment, developmentHandler.Cancel))

	// Alliances
	mux.Handle("GET /api/alliances", player(ratelimit.CommandDefault, allianceHandler.Mine))
	mux.Handle("POST /api/alliances", player(ratelimit.CommandDefault, allianceHandler.Create))
	mux.Handle("GET /api/alliances/{id}", user(ratelimit.CommandDefault, allianceHandler.Details))
	mux.Handle("POST /api/alliances/{id}/join", player(ratelimit.CommandDefault, allianceHandler.Join))
	mux.Handle("POST /api/alliances/{id}/leave", player(ratelimit.CommandDefault, allianceHandler.Leave))
	mux.Handle("POST /api/alliances/{id}/disband", player(ratelimit.CommandDefault, allianceHandler.Disband))

	// Rankings, achievements, ledger
	mux.Handle("GET /api/rankings", user(ratelimit.CommandDefault, rankingHandler.Leaderboard))
	mux.Handle("GET /api/rankings/me", player(ratelimit.CommandDefault, rankingHandler.Me))
	mux.Handle("GET /api/achievements", player(ratelimit.CommandDefault, achievementHandler.ServeHTTP))
	mux.Handle("GET /api/ledger", player(ratelimit.CommandDefault, ledgerHandler.Recent))

	// Admin-only endpoints (authenticated + admin role)
	mux.Handle("POST /api/admin/developments/sweep", admin(developmentHandler.Sweep))
	mux.Handle("POST /api/admin/nations/{id}/resources", admin(nationHandler.AdjustResources))
	mux.Handle("GET /api/admin/nations/{id}/ledger/verify", admin(ledgerHandler.Verify))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/auth/token"},
		"admin_endpoints", []string{"/api/admin/developments/sweep", "/api/admin/nations/{id}/resources", "/api/admin/nations/{id}/ledger/verify"},
	)

	return mux
}
