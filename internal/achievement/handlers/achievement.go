package handlers

import (
	"log/slog"
	"net/http"

	"nations-server/internal/achievement"
	"nations-server/internal/middleware"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/response"
)

type ListResponse struct {
	Unlocked []achievement.Award `json:"unlocked"`
	Total    int                 `json:"total"`
}

type AchievementHandler struct {
	service *achievement.Service
}

func NewAchievementHandler(service *achievement.Service) *AchievementHandler {
	return &AchievementHandler{service: service}
}

func (h *AchievementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_achievements")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	awards, err := h.service.List(ctx, n.ID)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusOK, ListResponse{
		Unlocked: awards,
		Total:    len(achievement.Catalog()),
	})
}
