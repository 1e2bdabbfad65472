package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tradewise/journal/internal/api/handlers"
	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/logger"
	"github.com/tradewise/journal/pkg/redis"
)

// Handlers bundles every handler the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandler
	Trades        *handlers.TradeHandler
	Leaderboard   *handlers.LeaderboardHandler
	Admin         *handlers.AdminHandler
	Announcements *handlers.AnnouncementHandler
	Broker        *handlers.BrokerHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(h Handlers, tokens *auth.TokenService, users userLoader, redisClient *redis.Client, cfg *config.Config, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(redisClient)).Methods("GET")

	// Public auth surface
	limiter := newLoginLimiter(redisClient, cfg.Auth.LoginRatePerMinute, log)

	public := r.PathPrefix("/api/auth").Subrouter()
	public.HandleFunc("/register", h.Auth.Register).Methods("POST")
	public.Handle("/login", limiter.middleware(http.HandlerFunc(h.Auth.Login))).Methods("POST")
	public.HandleFunc("/forgot-password", h.Auth.ForgotPassword).Methods("POST")
	public.HandleFunc("/reset-password", h.Auth.ResetPassword).Methods("POST")

	// Everything below requires a valid bearer token
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware(tokens, users, log))

	protected.HandleFunc("/auth/me", h.Auth.Me).Methods("GET")

	// Trade journal
	protected.HandleFunc("/trades", h.Trades.Create).Methods("POST")
	protected.HandleFunc("/trades", h.Trades.List).Methods("GET")
	protected.HandleFunc("/trades/{trade_no}", h.Trades.Get).Methods("GET")
	protected.HandleFunc("/trades/{trade_no}", h.Trades.Update).Methods("PUT")
	protected.HandleFunc("/trades/{trade_no}/notes", h.Trades.UpdateNotes).Methods("PATCH")
	protected.HandleFunc("/trades/{trade_no}", h.Trades.Delete).Methods("DELETE")

	// Leaderboard
	protected.HandleFunc("/leaderboard", h.Leaderboard.Top).Methods("GET")
	protected.HandleFunc("/leaderboard/user/{user_id}", h.Leaderboard.UserRanking).Methods("GET")

	// Announcements visible to every user
	protected.HandleFunc("/announcements/active", h.Announcements.Active).Methods("GET")

	// Broker credentials
	protected.HandleFunc("/broker/credentials", h.Broker.Create).Methods("POST")
	protected.HandleFunc("/broker/credentials", h.Broker.Get).Methods("GET")
	protected.HandleFunc("/broker/credentials", h.Broker.Update).Methods("PUT")
	protected.HandleFunc("/broker/credentials", h.Broker.Delete).Methods("DELETE")

	// Admin surface
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin)

	admin.HandleFunc("/users", h.Admin.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{user_id}", h.Admin.UpdateUser).Methods("PUT")
	admin.HandleFunc("/users/{user_id}", h.Admin.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/users/{user_id}/status", h.Admin.SetUserStatus).Methods("PATCH")
	admin.HandleFunc("/users/{user_id}/reset-password", h.Admin.ResetUserPassword).Methods("POST")
	admin.HandleFunc("/users/{user_id}/history", h.Admin.UserLoginHistory).Methods("GET")

	admin.HandleFunc("/trades", h.Admin.ListTrades).Methods("GET")
	admin.HandleFunc("/trades/{id}", h.Admin.UpdateTrade).Methods("PUT")
	admin.HandleFunc("/trades/{id}", h.Admin.DeleteTrade).Methods("DELETE")

	admin.HandleFunc("/stats", h.Admin.Stats).Methods("GET")
	admin.HandleFunc("/logs/login", h.Admin.LoginLogs).Methods("GET")

	admin.HandleFunc("/analytics/overview", h.Admin.AnalyticsOverview).Methods("GET")
	admin.HandleFunc("/analytics/user-performance", h.Admin.AnalyticsUserPerformance).Methods("GET")
	admin.HandleFunc("/analytics/activity", h.Admin.AnalyticsActivity).Methods("GET")

	admin.HandleFunc("/announcements", h.Announcements.Create).Methods("POST")
	admin.HandleFunc("/announcements", h.Announcements.List).Methods("GET")
	admin.HandleFunc("/announcements/{id}", h.Announcements.Delete).Methods("DELETE")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if err := redisClient.Healthy(r.Context()); err != nil {
			status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"service": "journal-api",
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
