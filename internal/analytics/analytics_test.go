package analytics

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

type fakeData struct {
	users       []store.User
	trades      map[string][]store.Trade
	sumProfit   float64
	sumLoss     float64
	dailyCounts []store.DayCount
}

func (f *fakeData) ListExcludingRole(_ context.Context, role string) ([]store.User, error) {
	var out []store.User
	for _, u := range f.users {
		if u.Role != role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeData) TradesForUser(_ context.Context, userID string, since time.Time) ([]store.Trade, error) {
	var out []store.Trade
	for _, t := range f.trades[userID] {
		if since.IsZero() || (t.CloseTime != nil && !t.CloseTime.Before(since)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeData) SumAmounts(_ context.Context) (float64, float64, error) {
	return f.sumProfit, f.sumLoss, nil
}

func (f *fakeData) DailyCloseCounts(_ context.Context, _ int) ([]store.DayCount, error) {
	return f.dailyCounts, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func newTestService(data *fakeData) *Service {
	return NewService(data, data, testLogger())
}

func TestOverview(t *testing.T) {
	svc := newTestService(&fakeData{sumProfit: 500, sumLoss: 120})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 500.0, overview.TotalProfit)
	assert.Equal(t, 120.0, overview.TotalLoss)
	assert.Equal(t, 380.0, overview.NetProfit)
}

func TestUserPerformanceAverages(t *testing.T) {
	data := &fakeData{
		users: []store.User{
			{UserID: "u1", Email: "one@test.dev", Role: store.RoleUser},
		},
		trades: map[string][]store.Trade{
			"u1": {
				{ProfitAmount: 100, LossAmount: 20},
				{ProfitAmount: 50, LossAmount: 10},
			},
		},
	}
	svc := newTestService(data)

	perf, err := svc.UserPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, perf, 1)

	assert.Equal(t, 2, perf[0].TradeCount)
	assert.Equal(t, 75.0, perf[0].AvgProfit)
	assert.Equal(t, 15.0, perf[0].AvgLoss)
	assert.Equal(t, 60.0, perf[0].AvgNet)
}

func TestUserPerformanceOrderingAndFiltering(t *testing.T) {
	data := &fakeData{
		users: []store.User{
			{UserID: "quiet", Email: "quiet@test.dev", Role: store.RoleUser},
			{UserID: "busy", Email: "busy@test.dev", Role: store.RoleUser},
			{UserID: "idle", Email: "idle@test.dev", Role: store.RoleUser},
			{UserID: "boss", Email: "boss@test.dev", Role: store.RoleAdmin},
		},
		trades: map[string][]store.Trade{
			"quiet": {{ProfitAmount: 10}},
			"busy": {
				{ProfitAmount: 10},
				{ProfitAmount: 10},
				{ProfitAmount: 10},
			},
			"boss": {{ProfitAmount: 999}},
		},
	}
	svc := newTestService(data)

	perf, err := svc.UserPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, perf, 2)

	// busiest first, admins and zero-trade users excluded entirely
	assert.Equal(t, "busy", perf[0].UserID)
	assert.Equal(t, "quiet", perf[1].UserID)
}

func TestActivityPassthrough(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	data := &fakeData{
		dailyCounts: []store.DayCount{
			{Date: day, Trades: 3},
			{Date: day.AddDate(0, 0, 1), Trades: 0},
		},
	}
	svc := newTestService(data)

	counts, err := svc.Activity(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(3), counts[0].Trades)
}
