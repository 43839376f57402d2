package handlers

import (
	"log/slog"
	"net/http"

	"nations-server/internal/achievement"
	"nations-server/internal/middleware"
	"nations-server/internal/military"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/request"
	"nations-server/internal/shared/response"
)

type BuildResponse struct {
	*military.BuildResult
	Achievements []achievement.Award `json:"achievements,omitempty"`
}

type AttackResponse struct {
	*military.AttackResult
	Achievements []achievement.Award `json:"achievements,omitempty"`
}

type MilitaryHandler struct {
	service      *military.Service
	achievements *achievement.Service
}

func NewMilitaryHandler(service *military.Service, achievements *achievement.Service) *MilitaryHandler {
	return &MilitaryHandler{service: service, achievements: achievements}
}

func (h *MilitaryHandler) Build(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "build_units")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	var req military.BuildRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.Build(ctx, n.UserID, req)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusOK, BuildResponse{
		BuildResult:  result,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

func (h *MilitaryHandler) Attack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "attack")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	var req military.AttackRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if req.DefenderID <= 0 {
		response.Error(w, r, logger, errors.Validation("Please specify the ID of the nation to attack."))
		return
	}

	result, err := h.service.Attack(ctx, n.UserID, req.DefenderID)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "defender_id", req.DefenderID), err)
		return
	}

	// The defender can unlock battle-count achievements too; only the attacker's are reported.
	h.achievements.Unlock(ctx, req.DefenderID)

	response.Success(w, http.StatusOK, AttackResponse{
		AttackResult: result,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

func (h *MilitaryHandler) Battles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_battles")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	limit, err := request.QueryInt(r, "limit")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	battles, err := h.service.Battles(ctx, n.ID, limit)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusOK, battles)
}

func (h *MilitaryHandler) Battle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_battle")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	battle, err := h.service.Battle(ctx, n.ID, id)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "battle_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, battle)
}
