package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/logger"
)

// Metric selects the value entries are ranked by
type Metric string

// Supported ranking metrics
const (
	MetricNetProfit    Metric = "net_profit"
	MetricWinRate      Metric = "win_rate"
	MetricTotalTrades  Metric = "total_trades"
	MetricProfitFactor Metric = "profit_factor"
)

// Period selects the time window trades must close within
type Period string

// Supported time periods
const (
	PeriodAllTime Period = "all_time"
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
	PeriodDaily   Period = "daily"
)

// Limit bounds for the top-N query
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

var (
	// ErrUserNotFound means the requested user does not exist at all
	ErrUserNotFound = errors.New("user not found")

	// ErrNoTrades means the user exists but has no qualifying trades in
	// the requested window. Only knowable after full aggregation.
	ErrNoTrades = errors.New("user has no trades yet")

	// ErrInvalidLimit means the top-N limit is outside [1, MaxLimit]
	ErrInvalidLimit = fmt.Errorf("limit must be between 1 and %d", MaxLimit)
)

// ParseMetric validates a sort_by selector
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricNetProfit, MetricWinRate, MetricTotalTrades, MetricProfitFactor:
		return Metric(s), nil
	case "":
		return MetricNetProfit, nil
	}
	return "", fmt.Errorf("invalid sort_by %q", s)
}

// ParsePeriod validates a time_period selector
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodAllTime, PeriodMonthly, PeriodWeekly, PeriodDaily:
		return Period(s), nil
	case "":
		return PeriodAllTime, nil
	}
	return "", fmt.Errorf("invalid time_period %q", s)
}

// Cutoff maps a period to its window start relative to now. The zero
// time means unbounded (all_time applies no per-trade predicate, so
// open trades remain candidates there).
func (p Period) Cutoff(now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return now.AddDate(0, 0, -1)
	case PeriodWeekly:
		return now.AddDate(0, 0, -7)
	case PeriodMonthly:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}

// UserSource enumerates users for ranking
type UserSource interface {
	ListByRole(ctx context.Context, role string) ([]store.User, error)
	GetByID(ctx context.Context, userID string) (*store.User, error)
}

// TradeSource returns one user's trades, optionally filtered by a
// close-time cutoff (zero since means no filter).
type TradeSource interface {
	TradesForUser(ctx context.Context, userID string, since time.Time) ([]store.Trade, error)
}

// Ranking is the single-user query response
type Ranking struct {
	UserRank   Entry   `json:"user_rank"`
	TotalUsers int     `json:"total_users"`
	Percentile float64 `json:"percentile"`
}

// Engine ranks users by trading performance. It holds no state across
// requests and performs no writes, so concurrent queries never conflict.
type Engine struct {
	users  UserSource
	trades TradeSource
	logger *logger.Logger
	now    func() time.Time
}

// NewEngine creates a leaderboard engine
func NewEngine(users UserSource, trades TradeSource, log *logger.Logger) *Engine {
	return &Engine{
		users:  users,
		trades: trades,
		logger: log,
		now:    time.Now,
	}
}

// Top returns the first limit entries of the ranked set
func (e *Engine) Top(ctx context.Context, metric Metric, period Period, limit int) ([]Entry, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, ErrInvalidLimit
	}

	entries, err := e.compute(ctx, metric, period)
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// UserRanking locates one user in the full ranked set and computes its
// percentile over the ranked (trade-having) population. No truncation:
// absence from the set is only knowable after aggregating everyone.
func (e *Engine) UserRanking(ctx context.Context, userID string, metric Metric, period Period) (*Ranking, error) {
	if _, err := e.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	entries, err := e.compute(ctx, metric, period)
	if err != nil {
		return nil, err
	}

	totalUsers := len(entries)
	for _, entry := range entries {
		if entry.UserID != userID {
			continue
		}

		percentile := float64(totalUsers-entry.Rank) / float64(totalUsers) * 100

		return &Ranking{
			UserRank:   entry,
			TotalUsers: totalUsers,
			Percentile: round2(percentile),
		}, nil
	}

	return nil, ErrNoTrades
}

// compute builds the full ranked set: filter the eligible population,
// aggregate per user, stable-sort descending by the metric, then assign
// 1-based position ranks.
func (e *Engine) compute(ctx context.Context, metric Metric, period Period) ([]Entry, error) {
	// Administrators are excluded from ranking entirely
	users, err := e.users.ListByRole(ctx, store.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	cutoff := period.Cutoff(e.now())

	entries := make([]Entry, 0, len(users))
	for i := range users {
		trades, err := e.trades.TradesForUser(ctx, users[i].UserID, cutoff)
		if err != nil {
			return nil, fmt.Errorf("load trades for %s: %w", users[i].UserID, err)
		}

		// Users with no qualifying trades are omitted, never ranked
		if len(trades) == 0 {
			continue
		}

		entries = append(entries, Aggregate(&users[i], trades))
	}

	// Stable sort keeps the user enumeration order (created_at, then
	// user_id) as the deterministic tie-break.
	sort.SliceStable(entries, func(i, j int) bool {
		return metricValue(entries[i], metric) > metricValue(entries[j], metric)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

func metricValue(e Entry, m Metric) float64 {
	switch m {
	case MetricWinRate:
		return e.WinRate
	case MetricTotalTrades:
		return float64(e.TotalTrades)
	case MetricProfitFactor:
		return e.ProfitFactor
	default:
		return e.NetProfit
	}
}
