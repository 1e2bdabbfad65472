package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// TradeStore is the trade persistence surface the trade handler needs
type TradeStore interface {
	Create(ctx context.Context, t *store.Trade) error
	GetByTradeNo(ctx context.Context, tradeNo int64) (*store.Trade, error)
	ListByUser(ctx context.Context, userID string, skip, limit int) ([]store.Trade, error)
	UpdateNotes(ctx context.Context, tradeNo int64, reason, mistake string) error
	Update(ctx context.Context, t *store.Trade) error
	DeleteByTradeNo(ctx context.Context, tradeNo int64) error
}

// TradeHandler handles the authenticated user's trade journal
type TradeHandler struct {
	trades TradeStore
	logger *logger.Logger
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(trades TradeStore, log *logger.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: log,
	}
}

type createTradeRequest struct {
	TradeNo      int64      `json:"trade_no"`
	Symbol       string     `json:"symbol"`
	Volume       float64    `json:"volume"`
	PriceOpen    float64    `json:"price_open"`
	PriceClose   float64    `json:"price_close"`
	Type         string     `json:"type"`
	TakeProfit   float64    `json:"take_profit"`
	StopLoss     float64    `json:"stop_loss"`
	ProfitAmount float64    `json:"profit_amount"`
	LossAmount   float64    `json:"loss_amount"`
	Reason       string     `json:"reason"`
	Mistake      string     `json:"mistake"`
	OpenTime     *time.Time `json:"open_time"`
	CloseTime    *time.Time `json:"close_time"`
}

// Create records a new trade for the authenticated user. A zero
// trade_no is replaced with max+1 by the store.
// POST /api/trades
func (h *TradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req createTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	trade := &store.Trade{
		UserID:       user.UserID,
		TradeNo:      req.TradeNo,
		Symbol:       req.Symbol,
		Volume:       req.Volume,
		PriceOpen:    req.PriceOpen,
		PriceClose:   req.PriceClose,
		Type:         req.Type,
		TakeProfit:   req.TakeProfit,
		StopLoss:     req.StopLoss,
		ProfitAmount: req.ProfitAmount,
		LossAmount:   req.LossAmount,
		Reason:       req.Reason,
		Mistake:      req.Mistake,
		OpenTime:     req.OpenTime,
		CloseTime:    req.CloseTime,
	}

	if err := h.trades.Create(r.Context(), trade); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "Trade number already exists")
			return
		}
		h.logger.WithError(err).Error("Failed to create trade")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, trade)
}

// List returns the authenticated user's trades, newest first
// GET /api/trades?skip=&limit=
func (h *TradeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	trades, err := h.trades.ListByUser(r.Context(), user.UserID, skip, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trades")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// Get returns one trade by trade number
// GET /api/trades/{trade_no}
func (h *TradeHandler) Get(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

type updateTradeRequest struct {
	Volume       *float64   `json:"volume"`
	PriceOpen    *float64   `json:"price_open"`
	PriceClose   *float64   `json:"price_close"`
	TakeProfit   *float64   `json:"take_profit"`
	StopLoss     *float64   `json:"stop_loss"`
	ProfitAmount *float64   `json:"profit_amount"`
	LossAmount   *float64   `json:"loss_amount"`
	CloseTime    *time.Time `json:"close_time"`
}

// Update edits trade amounts. Net profit is recomputed whenever the
// profit or loss side changes.
// PUT /api/trades/{trade_no}
func (h *TradeHandler) Update(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
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

type updateNotesRequest struct {
	Reason  string `json:"reason"`
	Mistake string `json:"mistake"`
}

// UpdateNotes edits the journal annotations on a trade
// PATCH /api/trades/{trade_no}/notes
func (h *TradeHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
		return
	}

	var req updateNotesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.trades.UpdateNotes(r.Context(), trade.TradeNo, req.Reason, req.Mistake); err != nil {
		h.logger.WithError(err).Error("Failed to update trade notes")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	trade.Reason = req.Reason
	trade.Mistake = req.Mistake
	respondJSON(w, http.StatusOK, trade)
}

// Delete removes a trade from the journal
// DELETE /api/trades/{trade_no}
func (h *TradeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	trade, ok := h.ownedTrade(w, r)
	if !ok {
		return
	}

	if err := h.trades.DeleteByTradeNo(r.Context(), trade.TradeNo); err != nil {
		h.logger.WithError(err).Error("Failed to delete trade")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Trade deleted",
	})
}

// ownedTrade resolves the {trade_no} path variable to a trade owned by
// the authenticated user. Trades belonging to other users are reported
// as not found.
func (h *TradeHandler) ownedTrade(w http.ResponseWriter, r *http.Request) (*store.Trade, bool) {
	user := auth.UserFromContext(r.Context())

	tradeNo, err := strconv.ParseInt(mux.Vars(r)["trade_no"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade number")
		return nil, false
	}

	trade, err := h.trades.GetByTradeNo(r.Context(), tradeNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Trade not found")
			return nil, false
		}
		h.logger.WithError(err).Error("Failed to load trade")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	if trade.UserID != user.UserID {
		respondError(w, http.StatusNotFound, "Trade not found")
		return nil, false
	}

	return trade, true
}

func applyTradeUpdate(t *store.Trade, req *updateTradeRequest) {
	if req.Volume != nil {
		t.Volume = *req.Volume
	}
	if req.PriceOpen != nil {
		t.PriceOpen = *req.PriceOpen
	}
	if req.PriceClose != nil {
		t.PriceClose = *req.PriceClose
	}
	if req.TakeProfit != nil {
		t.TakeProfit = *req.TakeProfit
	}
	if req.StopLoss != nil {
		t.StopLoss = *req.StopLoss
	}
	if req.ProfitAmount != nil {
		t.ProfitAmount = *req.ProfitAmount
	}
	if req.LossAmount != nil {
		t.LossAmount = *req.LossAmount
	}
	if req.CloseTime != nil {
		t.CloseTime = req.CloseTime
	}
	t.Recalculate()
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
