package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"nations-server/internal/achievement"
	"nations-server/internal/alliance"
	"nations-server/internal/middleware"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/request"
	"nations-server/internal/shared/response"
)

type AllianceResponse struct {
	Alliance     *alliance.Alliance  `json:"alliance"`
	Achievements []achievement.Award `json:"achievements,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AllianceHandler struct {
	service      *alliance.Service
	achievements *achievement.Service
}

func NewAllianceHandler(service *alliance.Service, achievements *achievement.Service) *AllianceHandler {
	return &AllianceHandler{service: service, achievements: achievements}
}

func (h *AllianceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_alliance")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	var req alliance.CreateRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	a, err := h.service.Create(ctx, n.ID, req)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusCreated, AllianceResponse{
		Alliance:     a,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

func (h *AllianceHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_alliances")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	alliances, err := h.service.ListForNation(ctx, n.ID)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusOK, alliances)
}

func (h *AllianceHandler) Details(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "alliance_details")

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	details, err := h.service.Details(ctx, id)
	if err != nil {
		response.Error(w, r, logger.With("alliance_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, details)
}

func (h *AllianceHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "join_alliance")

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

	a, err := h.service.Join(ctx, n.ID, id)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "alliance_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, AllianceResponse{
		Alliance:     a,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

func (h *AllianceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "leave_alliance")

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

	if err := h.service.Leave(ctx, n.ID, id); err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "alliance_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Your nation has left alliance %d.", id),
	})
}

func (h *AllianceHandler) Disband(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "disband_alliance")

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

	if err := h.service.Disband(ctx, n.ID, id); err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "alliance_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Alliance %d has been disbanded.", id),
	})
}
