package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/logger"
)

// fakeSource serves users and trades from memory, mimicking the store's
// ordering and filter contracts.
type fakeSource struct {
	users  []store.User
	trades map[string][]store.Trade
}

func (f *fakeSource) ListByRole(_ context.Context, role string) ([]store.User, error) {
	out := make([]store.User, 0)
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeSource) GetByID(_ context.Context, userID string) (*store.User, error) {
	for i := range f.users {
		if f.users[i].UserID == userID {
			return &f.users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSource) TradesForUser(_ context.Context, userID string, since time.Time) ([]store.Trade, error) {
	out := make([]store.Trade, 0)
	for _, t := range f.trades[userID] {
		if since.IsZero() {
			out = append(out, t)
			continue
		}
		if t.CloseTime != nil && !t.CloseTime.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func newTestEngine(src *fakeSource, now time.Time) *Engine {
	e := NewEngine(src, src, testLogger())
	e.now = func() time.Time { return now }
	return e
}

func tradeClosedAt(net float64, closed time.Time) store.Trade {
	t := store.Trade{CloseTime: &closed}
	if net >= 0 {
		t.ProfitAmount = net
	} else {
		t.LossAmount = -net
	}
	t.Recalculate()
	return t
}

func openTrade(net float64) store.Trade {
	t := store.Trade{}
	if net >= 0 {
		t.ProfitAmount = net
	} else {
		t.LossAmount = -net
	}
	t.Recalculate()
	return t
}

// Three users: U1 (2 trades netting +80), U2 (1 trade netting +80),
// U3 is an admin with a huge net and must never appear.
func threeUserSource(now time.Time) *fakeSource {
	base := now.Add(-48 * time.Hour)
	return &fakeSource{
		users: []store.User{
			{UserID: "u1", Email: "u1@example.com", Role: store.RoleUser, CreatedAt: base},
			{UserID: "u2", Email: "u2@example.com", Role: store.RoleUser, CreatedAt: base.Add(time.Minute)},
			{UserID: "u3", Email: "admin@example.com", Role: store.RoleAdmin, CreatedAt: base.Add(2 * time.Minute)},
		},
		trades: map[string][]store.Trade{
			"u1": {tradeClosedAt(50, base), tradeClosedAt(30, base)},
			"u2": {tradeClosedAt(80, base)},
			"u3": {tradeClosedAt(1000, base)},
		},
	}
}

func TestTopExcludesAdminsAndBreaksTiesByInsertionOrder(t *testing.T) {
	now := time.Now()
	engine := newTestEngine(threeUserSource(now), now)

	entries, err := engine.Top(context.Background(), MetricNetProfit, PeriodAllTime, 100)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEqual(t, "u3", e.UserID, "admin must be excluded from ranking")
	}

	// u1 and u2 both net +80; u1 was enumerated first and wins the tie
	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, "u2", entries[1].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestRanksAreDensePositionRanks(t *testing.T) {
	now := time.Now()
	base := now.Add(-time.Hour)

	src := &fakeSource{
		users: []store.User{
			{UserID: "a", Email: "a@x.com", Role: store.RoleUser, CreatedAt: base},
			{UserID: "b", Email: "b@x.com", Role: store.RoleUser, CreatedAt: base.Add(time.Second)},
			{UserID: "c", Email: "c@x.com", Role: store.RoleUser, CreatedAt: base.Add(2 * time.Second)},
			{UserID: "d", Email: "d@x.com", Role: store.RoleUser, CreatedAt: base.Add(3 * time.Second)},
		},
		trades: map[string][]store.Trade{
			"a": {tradeClosedAt(10, base)},
			"b": {tradeClosedAt(10, base)}, // tied with a
			"c": {tradeClosedAt(10, base)}, // tied with a and b
			"d": {tradeClosedAt(-5, base)},
		},
	}
	engine := newTestEngine(src, now)

	entries, err := engine.Top(context.Background(), MetricNetProfit, PeriodAllTime, 100)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Rank is a permutation of 1..N even with ties
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestTopLimitTruncatesAfterRanking(t *testing.T) {
	now := time.Now()
	engine := newTestEngine(threeUserSource(now), now)

	entries, err := engine.Top(context.Background(), MetricNetProfit, PeriodAllTime, 1)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestTopInvalidLimit(t *testing.T) {
	now := time.Now()
	engine := newTestEngine(threeUserSource(now), now)

	_, err := engine.Top(context.Background(), MetricNetProfit, PeriodAllTime, 0)
	assert.Error(t, err)

	_, err = engine.Top(context.Background(), MetricNetProfit, PeriodAllTime, MaxLimit+1)
	assert.Error(t, err)
}

func TestZeroTradeUsersAreAbsent(t *testing.T) {
	now := time.Now()
	base := now.Add(-time.Hour)

	src := &fakeSource{
		users: []store.User{
			{UserID: "active", Email: "a@x.com", Role: store.RoleUser, CreatedAt: base},
			{UserID: "idle", Email: "i@x.com", Role: store.RoleUser, CreatedAt: base},
		},
		trades: map[string][]store.Trade{
			"active": {tradeClosedAt(5, base)},
		},
	}
	engine := newTestEngine(src, now)

	entries, err := engine.Top(context.Background(), MetricNetProfit, PeriodAllTime, 100)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "active", entries[0].UserID)
}

func TestDailyWindowExcludesOldTrades(t *testing.T) {
	now := time.Now()
	threeDaysAgo := now.Add(-72 * time.Hour)

	src := &fakeSource{
		users: []store.User{
			{UserID: "old", Email: "old@x.com", Role: store.RoleUser, CreatedAt: threeDaysAgo},
		},
		trades: map[string][]store.Trade{
			"old": {tradeClosedAt(100, threeDaysAgo)},
		},
	}
	engine := newTestEngine(src, now)
	ctx := context.Background()

	// Absent from top-N under daily
	entries, err := engine.Top(ctx, MetricNetProfit, PeriodDaily, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Single-user form distinguishes "no trades in window" from "no such user"
	_, err = engine.UserRanking(ctx, "old", MetricNetProfit, PeriodDaily)
	assert.ErrorIs(t, err, ErrNoTrades)

	// Still ranked under all_time
	ranking, err := engine.UserRanking(ctx, "old", MetricNetProfit, PeriodAllTime)
	require.NoError(t, err)
	assert.Equal(t, 1, ranking.UserRank.Rank)
}

func TestOpenTradesExcludedFromWindowedQueries(t *testing.T) {
	now := time.Now()
	base := now.Add(-time.Hour)

	src := &fakeSource{
		users: []store.User{
			{UserID: "u", Email: "u@x.com", Role: store.RoleUser, CreatedAt: base},
		},
		trades: map[string][]store.Trade{
			"u": {openTrade(500), tradeClosedAt(10, base)},
		},
	}
	engine := newTestEngine(src, now)
	ctx := context.Background()

	// Windowed: only the closed trade qualifies
	entries, err := engine.Top(ctx, MetricNetProfit, PeriodWeekly, 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].TotalTrades)
	assert.InDelta(t, 10.0, entries[0].NetProfit, 0.001)

	// all_time applies no predicate, so the open trade counts too
	entries, err = engine.Top(ctx, MetricNetProfit, PeriodAllTime, 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].TotalTrades)
}

func TestUserRankingPercentiles(t *testing.T) {
	now := time.Now()
	base := now.Add(-time.Hour)

	src := &fakeSource{
		users: []store.User{
			{UserID: "first", Email: "f@x.com", Role: store.RoleUser, CreatedAt: base},
			{UserID: "mid", Email: "m@x.com", Role: store.RoleUser, CreatedAt: base},
			{UserID: "last", Email: "l@x.com", Role: store.RoleUser, CreatedAt: base},
		},
		trades: map[string][]store.Trade{
			"first": {tradeClosedAt(300, base)},
			"mid":   {tradeClosedAt(200, base)},
			"last":  {tradeClosedAt(100, base)},
		},
	}
	engine := newTestEngine(src, now)
	ctx := context.Background()

	top, err := engine.UserRanking(ctx, "first", MetricNetProfit, PeriodAllTime)
	require.NoError(t, err)
	assert.Equal(t, 1, top.UserRank.Rank)
	assert.Equal(t, 3, top.TotalUsers)
	// (N-1)/N*100 for the top entry
	assert.InDelta(t, 66.67, top.Percentile, 0.001)

	bottom, err := engine.UserRanking(ctx, "last", MetricNetProfit, PeriodAllTime)
	require.NoError(t, err)
	assert.Equal(t, 3, bottom.UserRank.Rank)
	assert.InDelta(t, 0.0, bottom.Percentile, 0.001)
}

func TestUserRankingUnknownUser(t *testing.T) {
	now := time.Now()
	engine := newTestEngine(threeUserSource(now), now)

	_, err := engine.UserRanking(context.Background(), "ghost", MetricNetProfit, PeriodAllTime)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSortByAlternativeMetrics(t *testing.T) {
	now := time.Now()
	base := now.Add(-time.Hour)

	src := &fakeSource{
		users: []store.User{
			{UserID: "steady", Email: "s@x.com", Role: store.RoleUser, CreatedAt: base},
			{UserID: "big", Email: "b@x.com", Role: store.RoleUser, CreatedAt: base},
		},
		trades: map[string][]store.Trade{
			// 3 trades, 2 wins, net +10
			"steady": {tradeClosedAt(10, base), tradeClosedAt(5, base), tradeClosedAt(-5, base)},
			// 1 trade, 1 win, net +100
			"big": {tradeClosedAt(100, base)},
		},
	}
	engine := newTestEngine(src, now)
	ctx := context.Background()

	byNet, err := engine.Top(ctx, MetricNetProfit, PeriodAllTime, 100)
	require.NoError(t, err)
	assert.Equal(t, "big", byNet[0].UserID)

	byCount, err := engine.Top(ctx, MetricTotalTrades, PeriodAllTime, 100)
	require.NoError(t, err)
	assert.Equal(t, "steady", byCount[0].UserID)

	byWinRate, err := engine.Top(ctx, MetricWinRate, PeriodAllTime, 100)
	require.NoError(t, err)
	assert.Equal(t, "big", byWinRate[0].UserID) // 100% beats 66.67%
}

func TestParseSelectors(t *testing.T) {
	for _, valid := range []string{"net_profit", "win_rate", "total_trades", "profit_factor"} {
		_, err := ParseMetric(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParseMetric("sharpe")
	assert.Error(t, err)

	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricNetProfit, m)

	for _, valid := range []string{"all_time", "monthly", "weekly", "daily"} {
		_, err := ParsePeriod(valid)
		assert.NoError(t, err, valid)
	}
	_, err = ParsePeriod("yearly")
	assert.Error(t, err)

	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAllTime, p)
}

func TestPeriodCutoff(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, PeriodAllTime.Cutoff(now).IsZero())
	assert.Equal(t, now.AddDate(0, 0, -1), PeriodDaily.Cutoff(now))
	assert.Equal(t, now.AddDate(0, 0, -7), PeriodWeekly.Cutoff(now))
	assert.Equal(t, now.AddDate(0, 0, -30), PeriodMonthly.Cutoff(now))
}
