package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"nations-server/internal/auth"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/response"
)

const BotSecretHeader = "X-Bot-Secret"

type TokenHandler struct {
	service *auth.Service
}

func NewTokenHandler(service *auth.Service) *TokenHandler {
	return &TokenHandler{service: service}
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "auth_token")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req auth.TokenRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	resp, err := h.service.Login(ctx, r.Header.Get(BotSecretHeader), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, resp)
}
