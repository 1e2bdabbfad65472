package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tradewise/journal/internal/leaderboard"
	"github.com/tradewise/journal/pkg/logger"
)

// LeaderboardHandler exposes the ranked leaderboard
type LeaderboardHandler struct {
	engine *leaderboard.Engine
	logger *logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(engine *leaderboard.Engine, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		engine: engine,
		logger: log,
	}
}

// Top returns the ranked top-N for the requested metric and window
// GET /api/leaderboard?sort_by=&limit=&time_period=
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	metric, period, ok := h.selectors(w, r)
	if !ok {
		return
	}

	limit := leaderboard.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = v
	}

	entries, err := h.engine.Top(r.Context(), metric, period, limit)
	if err != nil {
		if errors.Is(err, leaderboard.ErrInvalidLimit) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to build leaderboard")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
		"count":       len(entries),
		"sort_by":     metric,
		"time_period": period,
	})
}

// UserRanking returns one user's rank and percentile within the full
// ranked population.
// GET /api/leaderboard/user/{user_id}?sort_by=&time_period=
func (h *LeaderboardHandler) UserRanking(w http.ResponseWriter, r *http.Request) {
	metric, period, ok := h.selectors(w, r)
	if !ok {
		return
	}

	userID := mux.Vars(r)["user_id"]

	ranking, err := h.engine.UserRanking(r.Context(), userID, metric, period)
	if err != nil {
		switch {
		case errors.Is(err, leaderboard.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, leaderboard.ErrNoTrades):
			respondError(w, http.StatusNotFound, "User has no trades yet")
		default:
			h.logger.WithError(err).Error("Failed to compute user ranking")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, ranking)
}

// selectors validates the metric and period query parameters before any
// aggregation work starts.
func (h *LeaderboardHandler) selectors(w http.ResponseWriter, r *http.Request) (leaderboard.Metric, leaderboard.Period, bool) {
	metric, err := leaderboard.ParseMetric(r.URL.Query().Get("sort_by"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}

	period, err := leaderboard.ParsePeriod(r.URL.Query().Get("time_period"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}

	return metric, period, true
}
