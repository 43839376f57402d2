package handlers

import (
	"log/slog"
	"net/http"

	"nations-server/internal/achievement"
	"nations-server/internal/development"
	"nations-server/internal/middleware"
	"nations-server/internal/military"
	"nations-server/internal/nation"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/request"
	"nations-server/internal/shared/response"
)

type NationResponse struct {
	Nation       *nation.Nation      `json:"nation"`
	Achievements []achievement.Award `json:"achievements,omitempty"`
}

type StatusResponse struct {
	Nation       *nation.Nation            `json:"nation"`
	Army         *military.Army            `json:"army"`
	Completed    []development.Development `json:"completed_developments,omitempty"`
	Achievements []achievement.Award       `json:"achievements,omitempty"`
}

type AdjustResourcesRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type NationHandler struct {
	nations      *nation.Service
	military     *military.Service
	developments *development.Service
	achievements *achievement.Service
}

func NewNationHandler(nations *nation.Service, militaryService *military.Service, developments *development.Service, achievements *achievement.Service) *NationHandler {
	return &NationHandler{
		nations:      nations,
		military:     militaryService,
		developments: developments,
		achievements: achievements,
	}
}

func (h *NationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_nation")

	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var req nation.CreateRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	n, err := h.nations.Create(ctx, claims.UserID, req)
	if err != nil {
		response.Error(w, r, logger.With("user_id", claims.UserID), err)
		return
	}

	response.Success(w, http.StatusCreated, NationResponse{
		Nation:       n,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

// Me settles the caller's due developments before reporting, so the numbers are current.
func (h *NationHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "nation_status")

	current := middleware.GetNationFromContext(r)
	if current == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}
	logger = logger.With("nation_id", current.ID)

	completed, err := h.developments.SweepNation(ctx, current.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	n, err := h.nations.Get(ctx, current.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	army, err := h.military.Army(ctx, n.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, StatusResponse{
		Nation:       n,
		Army:         army,
		Completed:    completed,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

// Get is the public status of any nation, with its overdue developments settled.
func (h *NationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_nation")

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if _, err := h.developments.SweepNation(ctx, id); err != nil {
		response.Error(w, r, logger.With("nation_id", id), err)
		return
	}

	n, err := h.nations.Get(ctx, id)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, NationResponse{Nation: n})
}

func (h *NationHandler) AdjustResources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "admin_adjust_resources")

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req AdjustResourcesRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	n, err := h.nations.AdjustResources(ctx, id, req.Amount, req.Reason)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, NationResponse{Nation: n})
}
