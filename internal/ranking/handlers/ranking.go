package handlers

import (
	"log/slog"
	"net/http"

	"nations-server/internal/middleware"
	"nations-server/internal/ranking"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/request"
	"nations-server/internal/shared/response"
)

type RankingHandler struct {
	service *ranking.Service
}

func NewRankingHandler(service *ranking.Service) *RankingHandler {
	return &RankingHandler{service: service}
}

func (h *RankingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "leaderboard")

	limit, err := request.QueryInt(r, "limit")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	metric := r.URL.Query().Get("metric")
	board, err := h.service.Leaderboard(ctx, metric, limit)
	if err != nil {
		response.Error(w, r, logger.With("metric", metric), err)
		return
	}

	response.Success(w, http.StatusOK, board)
}

func (h *RankingHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "my_ranks")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	ranks, err := h.service.Ranks(ctx, n.ID)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusOK, ranks)
}
