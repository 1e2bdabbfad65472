package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// UserSource enumerates users for per-user performance
type UserSource interface {
	ListExcludingRole(ctx context.Context, role string) ([]store.User, error)
}

// TradeSource provides the trade data analytics runs over
type TradeSource interface {
	TradesForUser(ctx context.Context, userID string, since time.Time) ([]store.Trade, error)
	SumAmounts(ctx context.Context) (profit, loss float64, err error)
	DailyCloseCounts(ctx context.Context, days int) ([]store.DayCount, error)
}

// Service answers platform-scope analytics queries. It is independent
// of the ranked leaderboard path: sums run over the full unfiltered
// trade population with no time windowing.
type Service struct {
	users  UserSource
	trades TradeSource
	logger *logger.Logger
}

// NewService creates an analytics service
func NewService(users UserSource, trades TradeSource, log *logger.Logger) *Service {
	return &Service{
		users:  users,
		trades: trades,
		logger: log,
	}
}

// Overview is the platform-wide P&L summary
type Overview struct {
	TotalProfit float64 `json:"total_profit"`
	TotalLoss   float64 `json:"total_loss"`
	NetProfit   float64 `json:"net_profit"`
}

// Overview sums profit and loss across all trades regardless of owner
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	profit, loss, err := s.trades.SumAmounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform sums: %w", err)
	}

	return &Overview{
		TotalProfit: profit,
		TotalLoss:   loss,
		NetProfit:   profit - loss,
	}, nil
}

// UserPerformance is one non-admin user's average trade outcome
type UserPerformance struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	TradeCount int     `json:"trade_count"`
	AvgProfit  float64 `json:"avg_profit"`
	AvgLoss    float64 `json:"avg_loss"`
	AvgNet     float64 `json:"avg_net"`
}

// UserPerformance computes average profit/loss per non-admin user over
// their full trade history, sorted by trade count descending. Users
// without trades are omitted.
func (s *Service) UserPerformance(ctx context.Context) ([]UserPerformance, error) {
	users, err := s.users.ListExcludingRole(ctx, store.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	performance := make([]UserPerformance, 0, len(users))
	for i := range users {
		trades, err := s.trades.TradesForUser(ctx, users[i].UserID, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("load trades for %s: %w", users[i].UserID, err)
		}

		count := len(trades)
		if count == 0 {
			continue
		}

		var totalProfit, totalLoss float64
		for _, t := range trades {
			totalProfit += t.ProfitAmount
			totalLoss += t.LossAmount
		}

		avgProfit := totalProfit / float64(count)
		avgLoss := totalLoss / float64(count)

		performance = append(performance, UserPerformance{
			UserID:     users[i].UserID,
			Name:       users[i].DisplayName(),
			Email:      users[i].Email,
			TradeCount: count,
			AvgProfit:  avgProfit,
			AvgLoss:    avgLoss,
			AvgNet:     avgProfit - avgLoss,
		})
	}

	sort.SliceStable(performance, func(i, j int) bool {
		return performance[i].TradeCount > performance[j].TradeCount
	})

	s.logger.WithFields(map[string]interface{}{
		"users_scanned": len(users),
		"users_ranked":  len(performance),
	}).Debug("Computed per-user performance")

	return performance, nil
}

// Activity returns closed-trade counts per day for the past week
func (s *Service) Activity(ctx context.Context) ([]store.DayCount, error) {
	counts, err := s.trades.DailyCloseCounts(ctx, 7)
	if err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}
	return counts, nil
}
