// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/tvorozhniki/metrics"
	"github.com/danielhkuo/tvorozhniki/middleware"
	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/tally"
)

// RecentLimit is the size of GET /api/votes/recent.
const RecentLimit = 20

// VoteStore persists votes. CreateVote returns models.ErrDuplicateVote when
// the fingerprint is already stored.
type VoteStore interface {
	CreateVote(ctx context.Context, v models.NewVote) (int64, error)
	GetStats(ctx context.Context, limits tally.Limits) (models.Stats, error)
	GetRecent(ctx context.Context, limit int) ([]models.RecentVote, error)
}

type VoteHandler struct {
	store   VoteStore
	metrics *metrics.VoteMetrics
	now     func() time.Time
}

func NewVoteHandler(store VoteStore, m *metrics.VoteMetrics) *VoteHandler {
	return &VoteHandler{store: store, metrics: m, now: time.Now}
}

// CreateVote handles POST /api/votes
func (h *VoteHandler) CreateVote(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Choice == "" || strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.City) == "" || req.Fingerprint == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing required fields: choice, name, city, fingerprint")
		return
	}
	if !req.Choice.Valid() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice must be tvorozhniki or syrniki")
		return
	}

	id, err := h.store.CreateVote(r.Context(), models.NewVote{
		Choice:      req.Choice,
		Name:        req.Name,
		City:        req.City,
		Email:       req.Email,
		Fingerprint: req.Fingerprint,
		Timestamp:   h.now().UTC(),
	})
	if errors.Is(err, models.ErrDuplicateVote) {
		slog.Info("duplicate vote rejected", "fingerprint", req.Fingerprint)
		h.metrics.IncDuplicate()
		middleware.ErrorResponse(w, http.StatusConflict, "Vote already recorded for this device/browser")
		return
	}
	if err != nil {
		slog.Error("failed to insert vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("vote recorded", "id", id, "choice", req.Choice)
	h.metrics.IncVote(string(req.Choice))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateVoteResponse{
		ID:      id,
		Message: "Vote recorded successfully",
	})
}

// GetStats handles GET /api/votes/stats
func (h *VoteHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context(), tally.ServerLimits)
	if err != nil {
		slog.Error("failed to fetch statistics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}

	if stats.TopCities == nil {
		stats.TopCities = []models.CityStats{}
	}
	stats.RecentVotes = h.withTimeAgo(stats.RecentVotes)

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// GetRecent handles GET /api/votes/recent
func (h *VoteHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	recent, err := h.store.GetRecent(r.Context(), RecentLimit)
	if err != nil {
		slog.Error("failed to fetch recent votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch recent votes")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.withTimeAgo(recent))
}

// Root handles GET / and answers 404 for every path nothing else matched.
func (h *VoteHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		middleware.ErrorResponse(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.RootResponse{
		Message:   "ТВОРОЖНИКИ.РФ Vote API is running",
		Timestamp: h.now().UTC(),
	})
}

func (h *VoteHandler) withTimeAgo(votes []models.RecentVote) []models.RecentVote {
	now := h.now()
	out := make([]models.RecentVote, len(votes))
	for i, v := range votes {
		v.TimeAgo = tally.TimeAgo(v.Timestamp, now)
		out[i] = v
	}
	return out
}
