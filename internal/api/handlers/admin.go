package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tradewise/journal/internal/analytics"
	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/leaderboard"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// AdminUserStore is the user surface the admin handler needs
type AdminUserStore interface {
	List(ctx context.Context, skip, limit int) ([]store.User, error)
	GetByID(ctx context.Context, userID string) (*store.User, error)
	Update(ctx context.Context, u *store.User) error
	SetActive(ctx context.Context, userID string, active bool) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	Delete(ctx context.Context, userID string) error
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// AdminTradeStore is the trade surface the admin handler needs
type AdminTradeStore interface {
	TradesForUser(ctx context.Context, userID string, since time.Time) ([]store.Trade, error)
	GetByID(ctx context.Context, id int64) (*store.Trade, error)
	Update(ctx context.Context, t *store.Trade) error
	DeleteByID(ctx context.Context, id int64) error
	ListAll(ctx context.Context, f store.AdminFilter) ([]store.Trade, int64, error)
	Count(ctx context.Context) (int64, error)
	CountClosedSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// AdminLoginStore is the login-history surface the admin handler needs
type AdminLoginStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]store.LoginRecord, error)
	ListAll(ctx context.Context, skip, limit int) ([]store.LoginRecordWithEmail, error)
}

// AdminHandler handles the admin management surface
type AdminHandler struct {
	users     AdminUserStore
	trades    AdminTradeStore
	logins    AdminLoginStore
	analytics *analytics.Service
	logger    *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users AdminUserStore, trades AdminTradeStore, logins AdminLoginStore, svc *analytics.Service, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		users:     users,
		trades:    trades,
		logins:    logins,
		analytics: svc,
		logger:    log,
	}
}

// userSummary is one row of the admin user listing
type userSummary struct {
	store.User
	TotalTrades int     `json:"total_trades"`
	NetProfit   float64 `json:"net_profit"`
	WinRate     float64 `json:"win_rate"`
}

// ListUsers returns all users with trade summary stats
// GET /api/admin/users?skip=&limit=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	users, err := h.users.List(r.Context(), skip, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	summaries := make([]userSummary, 0, len(users))
	for i := range users {
		trades, err := h.trades.TradesForUser(r.Context(), users[i].UserID, time.Time{})
		if err != nil {
			h.logger.WithError(err).Error("Failed to load trades for summary")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		entry := leaderboard.Aggregate(&users[i], trades)
		summaries = append(summaries, userSummary{
			User:        users[i],
			TotalTrades: entry.TotalTrades,
			NetProfit:   entry.NetProfit,
			WinRate:     entry.WinRate,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": summaries,
		"count": len(summaries),
	})
}

type updateUserRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email"`
	MobileNumber *string `json:"mobile_number"`
	Role         *string `json:"role"`
}

// UpdateUser edits a user's profile fields
// PUT /api/admin/users/{user_id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.MobileNumber != nil {
		user.MobileNumber = *req.MobileNumber
	}
	if req.Role != nil {
		if *req.Role != store.RoleUser && *req.Role != store.RoleAdmin {
			respondError(w, http.StatusBadRequest, "Invalid role")
			return
		}
		user.Role = *req.Role
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "Email already registered")
			return
		}
		h.logger.WithError(err).Error("Failed to update user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

type setStatusRequest struct {
	IsActive bool `json:"is_active"`
}

// SetUserStatus enables or disables a user account
// PATCH /api/admin/users/{user_id}/status
func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.users.SetActive(r.Context(), user.UserID, req.IsActive); err != nil {
		h.logger.WithError(err).Error("Failed to update user status")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user.IsActive = req.IsActive
	respondJSON(w, http.StatusOK, user)
}

type adminResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ResetUserPassword sets a new password for a user directly
// POST /api/admin/users/{user_id}/reset-password
func (h *AdminHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	var req adminResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.users.UpdatePassword(r.Context(), user.UserID, hash); err != nil {
		h.logger.WithError(err).Error("Failed to reset user password")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

// UserLoginHistory returns the last 50 login records for a user
// GET /api/admin/users/{user_id}/history
func (h *AdminHandler) UserLoginHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	records, err := h.logins.ListByUser(r.Context(), user.UserID, 50)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list login history")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": records,
		"count":   len(records),
	})
}

// DeleteUser removes a user and cascades to their trades and credentials
// DELETE /api/admin/users/{user_id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pathUser(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), user.UserID); err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "User deleted",
	})
}

// ListTrades returns trades across all users with optional filters
// GET /api/admin/trades?user_id=&start_date=&end_date=&skip=&limit=
func (h *AdminHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	filter := store.AdminFilter{
		UserID: r.URL.Query().Get("user_id"),
		Skip:   queryInt(r, "skip", 0),
		Limit:  queryInt(r, "limit", 100),
	}

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid start_date")
			return
		}
		filter.StartDate = &ts
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid end_date")
			return
		}
		filter.EndDate = &ts
	}

	trades, total, err := h.trades.ListAll(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"total":  total,
	})
}

// UpdateTrade edits any trade by row id, recomputing net profit
// PUT /api/admin/trades/{id}
func (h *AdminHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id")
		return
	}

	trade, err := h.trades.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Trade not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load trade")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req updateTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	applyTradeUpdate(trade, &req)

	if err := h.trades.Update(r.Context(), trade); err != nil {
		h.logger.WithError(err).Error("Failed to update trade")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

// DeleteTrade removes any trade by row id
// DELETE /api/admin/trades/{id}
func (h *AdminHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade id")
		return
	}

	if err := h.trades.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Trade not found")
			return
		}
		h.logger.WithError(err).Error("Failed to delete trade")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Trade deleted",
	})
}

// Stats returns dashboard totals and 24h deltas
// GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dayAgo := time.Now().Add(-24 * time.Hour)

	stats := make(map[string]int64, 5)
	collect := []struct {
		name  string
		count func() (int64, error)
	}{
		{"total_users", func() (int64, error) { return h.users.Count(ctx) }},
		{"active_users", func() (int64, error) { return h.users.CountActive(ctx) }},
		{"new_users_24h", func() (int64, error) { return h.users.CountCreatedSince(ctx, dayAgo) }},
		{"total_trades", func() (int64, error) { return h.trades.Count(ctx) }},
		{"trades_closed_24h", func() (int64, error) { return h.trades.CountClosedSince(ctx, dayAgo) }},
	}

	for _, c := range collect {
		n, err := c.count()
		if err != nil {
			h.logger.WithError(err).Error("Failed to collect dashboard stats")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		stats[c.name] = n
	}

	respondJSON(w, http.StatusOK, stats)
}

// LoginLogs returns platform-wide login records
// GET /api/admin/logs/login?skip=&limit=
func (h *AdminHandler) LoginLogs(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	records, err := h.logins.ListAll(r.Context(), skip, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list login logs")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  records,
		"count": len(records),
	})
}

// AnalyticsOverview returns the platform-wide P&L summary
// GET /api/admin/analytics/overview
func (h *AdminHandler) AnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analytics.Overview(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute analytics overview")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// AnalyticsUserPerformance returns per-user average outcomes
// GET /api/admin/analytics/user-performance
func (h *AdminHandler) AnalyticsUserPerformance(w http.ResponseWriter, r *http.Request) {
	performance, err := h.analytics.UserPerformance(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute user performance")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"performance": performance,
		"count":       len(performance),
	})
}

// AnalyticsActivity returns daily closed-trade counts for the past week
// GET /api/admin/analytics/activity
func (h *AdminHandler) AnalyticsActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.analytics.Activity(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute activity")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activity": activity,
	})
}

// pathUser resolves the {user_id} path variable
func (h *AdminHandler) pathUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	userID := mux.Vars(r)["user_id"]

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return nil, false
		}
		h.logger.WithError(err).Error("Failed to load user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	return user, true
}

// parseDate accepts either a date or a full RFC3339 timestamp
func parseDate(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}
