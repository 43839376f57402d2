package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"nations-server/internal/achievement"
	"nations-server/internal/development"
	"nations-server/internal/middleware"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/request"
	"nations-server/internal/shared/response"
)

type OptionsResponse struct {
	Category string               `json:"category"`
	Options  []development.Option `json:"options"`
}

type ProgressResponse struct {
	*development.Development
	development.Progress
	Achievements []achievement.Award `json:"achievements,omitempty"`
}

type ListResponse struct {
	*development.Listing
	Achievements []achievement.Award `json:"achievements,omitempty"`
}

type SweepResponse struct {
	Completed []development.Development `json:"completed"`
}

type DevelopmentHandler struct {
	service      *development.Service
	achievements *achievement.Service
}

func NewDevelopmentHandler(service *development.Service, achievements *achievement.Service) *DevelopmentHandler {
	return &DevelopmentHandler{service: service, achievements: achievements}
}

func (h *DevelopmentHandler) Options(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "development_options")

	category := r.URL.Query().Get("category")
	options, err := h.service.Options(category)
	if err != nil {
		response.Error(w, r, logger.With("category", category), err)
		return
	}

	response.Success(w, http.StatusOK, OptionsResponse{Category: category, Options: options})
}

func (h *DevelopmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_developments")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	listing, err := h.service.List(ctx, n.ID)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusOK, ListResponse{
		Listing:      listing,
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

func (h *DevelopmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "start_development")

	n := middleware.GetNationFromContext(r)
	if n == nil {
		response.Error(w, r, logger, errors.Unauthorized("nation required"))
		return
	}

	var req development.StartRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	d, err := h.service.Start(ctx, n.UserID, req)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID), err)
		return
	}

	response.Success(w, http.StatusCreated, ProgressResponse{
		Development:  d,
		Progress:     development.ProgressAt(d, time.Now()),
		Achievements: h.achievements.Unlock(ctx, n.ID),
	})
}

func (h *DevelopmentHandler) Progress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "development_progress")

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

	d, progress, err := h.service.Get(ctx, n.ID, id)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "development_id", id), err)
		return
	}

	resp := ProgressResponse{Development: d, Progress: progress}
	if d.Status == development.StatusCompleted {
		resp.Achievements = h.achievements.Unlock(ctx, n.ID)
	}
	response.Success(w, http.StatusOK, resp)
}

func (h *DevelopmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "cancel_development")

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

	d, err := h.service.Cancel(ctx, n.ID, id)
	if err != nil {
		response.Error(w, r, logger.With("nation_id", n.ID, "development_id", id), err)
		return
	}

	response.Success(w, http.StatusOK, d)
}

// Sweep settles every due project across all nations.
func (h *DevelopmentHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "admin_sweep_developments")

	completed, err := h.service.Sweep(ctx, time.Now())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if completed == nil {
		completed = []development.Development{}
	}

	for _, d := range completed {
		h.achievements.Unlock(ctx, d.NationID)
	}

	response.Success(w, http.StatusOK, SweepResponse{Completed: completed})
}
