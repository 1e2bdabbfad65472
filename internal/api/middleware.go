package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/tradewise/journal/internal/api/handlers"
	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
	"github.com/tradewise/journal/pkg/redis"
)

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// userLoader resolves token claims to a live user record
type userLoader interface {
	GetByID(ctx context.Context, userID string) (*store.User, error)
}

// authMiddleware validates the bearer token and loads the user into the
// request context. Disabled accounts are rejected even with a valid token.
func authMiddleware(tokens *auth.TokenService, users userLoader, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			claims, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if !user.IsActive {
				writeError(w, http.StatusForbidden, "Account is disabled")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// requireAdmin guards the admin subrouter. Must run after authMiddleware.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		if user == nil || user.Role != store.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loginLimiter throttles login attempts per client IP. With Redis
// available it uses the shared sliding-window limiter so the limit
// holds across instances; without it each instance falls back to an
// in-process token bucket.
type loginLimiter struct {
	shared bool
	remote *redis.RateLimiter
	limit  int
	window time.Duration
	logger *logger.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func newLoginLimiter(client *redis.Client, limit int, log *logger.Logger) *loginLimiter {
	return &loginLimiter{
		shared: client.Enabled(),
		remote: redis.NewRateLimiter(client, "login"),
		limit:  limit,
		window: time.Minute,
		logger: log,
		local:  make(map[string]*rate.Limiter),
	}
}

func (l *loginLimiter) allow(ctx context.Context, ip string) bool {
	if l.shared {
		allowed, _, err := l.remote.Allow(ctx, redis.RateLimitConfig{
			Key:    ip,
			Limit:  l.limit,
			Window: l.window,
		})
		if err == nil {
			return allowed
		}
		l.logger.WithError(err).Warn("Rate limiter backend unavailable, using local limits")
	}

	return l.localLimiter(ip).Allow()
}

func (l *loginLimiter) localLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.local[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)
		l.local[ip] = lim
	}
	return lim
}

// middleware rejects over-limit login attempts with 429
func (l *loginLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := handlers.ClientIP(r)

		if !l.allow(r.Context(), ip) {
			l.logger.WithField("ip", ip).Warn("Login rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
