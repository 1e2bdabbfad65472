package leaderboard

import (
	"math"
	"time"

	"github.com/tradewise/journal/internal/store"
)

// Entry is the derived, non-persisted leaderboard view for one user.
// It is constructed fresh per request and never cached.
type Entry struct {
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	TotalTrades       int       `json:"total_trades"`
	WinningTrades     int       `json:"winning_trades"`
	LosingTrades      int       `json:"losing_trades"`
	WinRate           float64   `json:"win_rate"`
	NetProfit         float64   `json:"net_profit"`
	TotalProfit       float64   `json:"total_profit"`
	TotalLoss         float64   `json:"total_loss"`
	AvgProfitPerTrade float64   `json:"avg_profit_per_trade"`
	BestTrade         float64   `json:"best_trade"`
	WorstTrade        float64   `json:"worst_trade"`
	ProfitFactor      float64   `json:"profit_factor"`
	CreatedAt         time.Time `json:"created_at"`
	Rank              int       `json:"rank"`
}

// Aggregate computes one user's trading statistics over an already
// time-filtered trade set. Internal math runs at full precision;
// monetary and percentage outputs are rounded to 2 decimals at the
// boundary. Every division is guarded so an empty set yields zeros
// rather than NaN.
func Aggregate(user *store.User, trades []store.Trade) Entry {
	totalTrades := len(trades)

	var winning, losing int
	var totalProfit, totalLoss, netProfit float64
	var bestTrade, worstTrade float64

	for i, t := range trades {
		if t.NetProfit > 0 {
			winning++
		} else {
			// Ties at exactly zero count as losing, not excluded
			losing++
		}

		totalProfit += t.ProfitAmount
		totalLoss += t.LossAmount
		netProfit += t.NetProfit

		if i == 0 || t.NetProfit > bestTrade {
			bestTrade = t.NetProfit
		}
		if i == 0 || t.NetProfit < worstTrade {
			worstTrade = t.NetProfit
		}
	}

	var winRate, avgProfit float64
	if totalTrades > 0 {
		winRate = float64(winning) / float64(totalTrades) * 100
		avgProfit = netProfit / float64(totalTrades)
	}

	// Profit factor: total profit over total loss; with zero loss it is
	// the raw profit, not infinity. Ranking stability depends on this
	// exact policy.
	var profitFactor float64
	switch {
	case totalLoss > 0:
		profitFactor = totalProfit / totalLoss
	case totalProfit > 0:
		profitFactor = totalProfit
	}

	return Entry{
		UserID:            user.UserID,
		Username:          user.DisplayName(),
		Email:             user.Email,
		TotalTrades:       totalTrades,
		WinningTrades:     winning,
		LosingTrades:      losing,
		WinRate:           round2(winRate),
		NetProfit:         round2(netProfit),
		TotalProfit:       round2(totalProfit),
		TotalLoss:         round2(totalLoss),
		AvgProfitPerTrade: round2(avgProfit),
		BestTrade:         round2(bestTrade),
		WorstTrade:        round2(worstTrade),
		ProfitFactor:      round2(profitFactor),
		CreatedAt:         user.CreatedAt,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
