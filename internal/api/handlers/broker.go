package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// CredentialStore is the broker-credential persistence surface
type CredentialStore interface {
	Create(ctx context.Context, c *store.BrokerCredential) error
	GetByUser(ctx context.Context, userID string) (*store.BrokerCredential, error)
	Update(ctx context.Context, c *store.BrokerCredential) error
	Delete(ctx context.Context, userID string) error
}

// BrokerHandler handles the user's linked broker account credentials
type BrokerHandler struct {
	creds  CredentialStore
	logger *logger.Logger
}

// NewBrokerHandler creates a new broker credential handler
func NewBrokerHandler(creds CredentialStore, log *logger.Logger) *BrokerHandler {
	return &BrokerHandler{
		creds:  creds,
		logger: log,
	}
}

type credentialRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Server   string `json:"server"`
	Days     int    `json:"days"`
}

// Create links a broker account to the authenticated user
// POST /api/broker/credentials
func (h *BrokerHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Account == "" || req.Server == "" {
		respondError(w, http.StatusBadRequest, "Account and server are required")
		return
	}

	cred := &store.BrokerCredential{
		UserID:   user.UserID,
		Account:  req.Account,
		Password: req.Password,
		Server:   req.Server,
		Days:     req.Days,
	}

	if err := h.creds.Create(r.Context(), cred); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "Account already linked")
			return
		}
		h.logger.WithError(err).Error("Failed to create broker credential")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, cred)
}

// Get returns the authenticated user's linked broker account
// GET /api/broker/credentials
func (h *BrokerHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	cred, err := h.creds.GetByUser(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No broker account linked")
			return
		}
		h.logger.WithError(err).Error("Failed to load broker credential")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, cred)
}

// Update replaces the authenticated user's broker credential fields
// PUT /api/broker/credentials
func (h *BrokerHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	cred, err := h.creds.GetByUser(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No broker account linked")
			return
		}
		h.logger.WithError(err).Error("Failed to load broker credential")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Account != "" {
		cred.Account = req.Account
	}
	if req.Password != "" {
		cred.Password = req.Password
	}
	if req.Server != "" {
		cred.Server = req.Server
	}
	if req.Days != 0 {
		cred.Days = req.Days
	}

	if err := h.creds.Update(r.Context(), cred); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "Account already linked")
			return
		}
		h.logger.WithError(err).Error("Failed to update broker credential")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, cred)
}

// Delete unlinks the authenticated user's broker account
// DELETE /api/broker/credentials
func (h *BrokerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := h.creds.Delete(r.Context(), user.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No broker account linked")
			return
		}
		h.logger.WithError(err).Error("Failed to delete broker credential")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Broker account unlinked",
	})
}
