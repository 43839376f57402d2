package handlers

import (
	"log/slog"
	"net/http"

	"nations-server/internal/ledger"
	"nations-server/internal/middleware"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/request"
	"nations-server/internal/shared/response"
)

type LedgerHandler struct {
	service *ledger.Service
}

func NewLedgerHandler(service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

func (h *LedgerHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "ledger_recent")

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

	entries, err := h.service.Recent(ctx, n.ID, limit)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}

	response.Success(w, http.StatusOK, entries)
}

func (h *LedgerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "admin_verify_ledger")

	id, err := request.PathID(r, "id")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.Verify(ctx, id)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, result)
}
