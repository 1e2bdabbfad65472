package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// UserStore is the user persistence surface the auth handler needs
type UserStore interface {
	Create(ctx context.Context, u *store.User) error
	GetByEmail(ctx context.Context, email string) (*store.User, error)
	UpdatePasswordByEmail(ctx context.Context, email, hash string) error
}

// LoginStore records login attempts
type LoginStore interface {
	Record(ctx context.Context, rec *store.LoginRecord) error
}

// AuthHandler handles registration, login and password recovery
type AuthHandler struct {
	users  UserStore
	logins LoginStore
	tokens *auth.TokenService
	reset  *auth.ResetManager
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserStore, logins LoginStore, tokens *auth.TokenService, reset *auth.ResetManager, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logins: logins,
		tokens: tokens,
		reset:  reset,
		logger: log,
	}
}

type registerRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	MobileNumber string `json:"mobile_number"`
}

// Register creates a new user account
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &store.User{
		UserID:       uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     hash,
		MobileNumber: req.MobileNumber,
		Role:         store.RoleUser,
		IsActive:     true,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "Email already registered")
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues an access token
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	ip := ClientIP(r)

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.WithError(err).Error("Failed to load user for login")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.CheckPassword(req.Password, user.Password); err != nil {
		h.recordLogin(user.UserID, ip, "failure")
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !user.IsActive {
		h.recordLogin(user.UserID, ip, "failure")
		respondError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue token")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.recordLogin(user.UserID, ip, "success")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// recordLogin writes the login event on its own goroutine with a
// background context so a slow or failed insert never delays or fails
// the login response.
func (h *AuthHandler) recordLogin(userID, ip, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rec := &store.LoginRecord{
			UserID:    userID,
			IPAddress: ip,
			Status:    status,
		}
		if err := h.logins.Record(ctx, rec); err != nil {
			h.logger.WithError(err).Warn("Failed to record login attempt")
		}
	}()
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a password-reset token. Delivery is out of
// scope, so the token is returned in the response.
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))

	if _, err := h.users.GetByEmail(r.Context(), email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load user for password reset")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.reset.CreateToken(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create reset token")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"reset_token": token,
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword consumes a reset token and sets a new password
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	email, err := h.reset.Consume(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenInvalid) {
			respondError(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		h.logger.WithError(err).Error("Failed to consume reset token")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.users.UpdatePasswordByEmail(r.Context(), email, hash); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

// ClientIP extracts the originating client address, preferring proxy
// headers over the socket peer.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
