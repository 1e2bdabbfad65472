package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// AnnouncementStore is the announcement persistence surface
type AnnouncementStore interface {
	Create(ctx context.Context, a *store.Announcement) error
	List(ctx context.Context) ([]store.Announcement, error)
	LatestActive(ctx context.Context) (*store.Announcement, error)
	Delete(ctx context.Context, id int64) error
}

// AnnouncementHandler handles platform announcements
type AnnouncementHandler struct {
	store  AnnouncementStore
	logger *logger.Logger
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(s AnnouncementStore, log *logger.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		store:  s,
		logger: log,
	}
}

type createAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create posts a new announcement. It stays visible for 24 hours
// before the maintenance sweep removes it.
// POST /api/admin/announcements
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	announcement := &store.Announcement{
		Title:    req.Title,
		Content:  req.Content,
		IsActive: true,
	}

	if err := h.store.Create(r.Context(), announcement); err != nil {
		h.logger.WithError(err).Error("Failed to create announcement")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, announcement)
}

// List returns all announcements, newest first
// GET /api/admin/announcements
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.store.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list announcements")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"announcements": announcements,
		"count":         len(announcements),
	})
}

// Active returns the newest active announcement for display
// GET /api/announcements/active
func (h *AnnouncementHandler) Active(w http.ResponseWriter, r *http.Request) {
	announcement, err := h.store.LatestActive(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No active announcements")
			return
		}
		h.logger.WithError(err).Error("Failed to load active announcement")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, announcement)
}

// Delete removes an announcement before its sweep time
// DELETE /api/admin/announcements/{id}
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid announcement id")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Announcement not found")
			return
		}
		h.logger.WithError(err).Error("Failed to delete announcement")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Announcement deleted",
	})
}
