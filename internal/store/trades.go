package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tradeColumns = `id, user_id, trade_no, symbol, volume, price_open, price_close, type,
	take_profit, stop_loss, profit_amount, loss_amount, net_profit, reason, mistake,
	open_time, close_time`

// TradeRepository handles trade persistence
type TradeRepository struct {
	db *pgxpool.Pool
}

// NewTradeRepository creates a new TradeRepository instance
func NewTradeRepository(db *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{db: db}
}

func scanTrade(row pgx.Row) (*Trade, error) {
	var t Trade
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TradeNo,
		&t.Symbol,
		&t.Volume,
		&t.PriceOpen,
		&t.PriceClose,
		&t.Type,
		&t.TakeProfit,
		&t.StopLoss,
		&t.ProfitAmount,
		&t.LossAmount,
		&t.NetProfit,
		&t.Reason,
		&t.Mistake,
		&t.OpenTime,
		&t.CloseTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan trade: %w", err)
	}
	return &t, nil
}

// Create inserts a new trade. NetProfit is recomputed from the amounts,
// and a missing trade number is assigned max+1 inside the same
// transaction so numbers are never reused.
func (r *TradeRepository) Create(ctx context.Context, t *Trade) error {
	t.Recalculate()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if t.TradeNo == 0 {
		err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(trade_no), 0) + 1 FROM trades`).Scan(&t.TradeNo)
		if err != nil {
			return fmt.Errorf("next trade number: %w", err)
		}
	}

	query := `
		INSERT INTO trades (user_id, trade_no, symbol, volume, price_open, price_close, type,
			take_profit, stop_loss, profit_amount, loss_amount, net_profit, reason, mistake,
			open_time, close_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	err = tx.QueryRow(ctx, query,
		t.UserID,
		t.TradeNo,
		t.Symbol,
		t.Volume,
		t.PriceOpen,
		t.PriceClose,
		t.Type,
		t.TakeProfit,
		t.StopLoss,
		t.ProfitAmount,
		t.LossAmount,
		t.NetProfit,
		t.Reason,
		t.Mistake,
		t.OpenTime,
		t.CloseTime,
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert trade: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByTradeNo retrieves a trade by its globally unique sequence number
func (r *TradeRepository) GetByTradeNo(ctx context.Context, tradeNo int64) (*Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_no = $1`
	return scanTrade(r.db.QueryRow(ctx, query, tradeNo))
}

// GetByID retrieves a trade by primary key
func (r *TradeRepository) GetByID(ctx context.Context, id int64) (*Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`
	return scanTrade(r.db.QueryRow(ctx, query, id))
}

// ListByUser returns a user's trades with offset pagination
func (r *TradeRepository) ListByUser(ctx context.Context, userID string, skip, limit int) ([]Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY trade_no
		OFFSET $2 LIMIT $3
	`
	return r.queryTrades(ctx, query, userID, skip, limit)
}

// TradesForUser returns one user's trades for aggregation. A zero since
// applies no filter at all; otherwise only trades whose close_time is at
// or after the cutoff qualify, which excludes open trades.
func (r *TradeRepository) TradesForUser(ctx context.Context, userID string, since time.Time) ([]Trade, error) {
	if since.IsZero() {
		query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1 ORDER BY trade_no`
		return r.queryTrades(ctx, query, userID)
	}

	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND close_time >= $2
		ORDER BY trade_no
	`
	return r.queryTrades(ctx, query, userID, since)
}

func (r *TradeRepository) queryTrades(ctx context.Context, query string, args ...interface{}) ([]Trade, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}

	return trades, rows.Err()
}

// UpdateNotes sets the reason/mistake annotations on a trade
func (r *TradeRepository) UpdateNotes(ctx context.Context, tradeNo int64, reason, mistake string) error {
	query := `UPDATE trades SET reason = $2, mistake = $3 WHERE trade_no = $1`
	tag, err := r.db.Exec(ctx, query, tradeNo, reason, mistake)
	if err != nil {
		return fmt.Errorf("update trade notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Update writes the editable fields of a trade. NetProfit is recomputed
// before the write so the invariant holds across every mutation path.
func (r *TradeRepository) Update(ctx context.Context, t *Trade) error {
	t.Recalculate()

	query := `
		UPDATE trades
		SET volume = $2, price_open = $3, price_close = $4, take_profit = $5,
		    stop_loss = $6, profit_amount = $7, loss_amount = $8, net_profit = $9,
		    reason = $10, mistake = $11, close_time = $12
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		t.ID,
		t.Volume,
		t.PriceOpen,
		t.PriceClose,
		t.TakeProfit,
		t.StopLoss,
		t.ProfitAmount,
		t.LossAmount,
		t.NetProfit,
		t.Reason,
		t.Mistake,
		t.CloseTime,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteByTradeNo removes a trade by sequence number
func (r *TradeRepository) DeleteByTradeNo(ctx context.Context, tradeNo int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trades WHERE trade_no = $1`, tradeNo)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes a trade by primary key
func (r *TradeRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdminFilter narrows the platform-wide trade listing
type AdminFilter struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Skip      int
	Limit     int
}

// ListAll returns trades across all users matching the filter, newest
// close first, plus the total match count for pagination.
func (r *TradeRepository) ListAll(ctx context.Context, f AdminFilter) ([]Trade, int64, error) {
	where := `WHERE ($1 = '' OR user_id = $1)
		AND ($2::timestamptz IS NULL OR close_time >= $2)
		AND ($3::timestamptz IS NULL OR close_time <= $3)`

	var total int64
	countQuery := `SELECT COUNT(*) FROM trades ` + where
	if err := r.db.QueryRow(ctx, countQuery, f.UserID, f.StartDate, f.EndDate).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trades: %w", err)
	}

	query := `
		SELECT ` + tradeColumns + `
		FROM trades ` + where + `
		ORDER BY close_time DESC NULLS LAST
		OFFSET $4 LIMIT $5
	`
	trades, err := r.queryTrades(ctx, query, f.UserID, f.StartDate, f.EndDate, f.Skip, f.Limit)
	if err != nil {
		return nil, 0, err
	}

	return trades, total, nil
}

// Count returns the total number of trades
func (r *TradeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return count, nil
}

// CountClosedSince returns the number of trades closed at or after the cutoff
func (r *TradeRepository) CountClosedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE close_time >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent trades: %w", err)
	}
	return count, nil
}

// SumAmounts returns the platform-wide profit and loss sums over the
// full unfiltered trade population.
func (r *TradeRepository) SumAmounts(ctx context.Context) (profit, loss float64, err error) {
	query := `SELECT COALESCE(SUM(profit_amount), 0), COALESCE(SUM(loss_amount), 0) FROM trades`
	if err := r.db.QueryRow(ctx, query).Scan(&profit, &loss); err != nil {
		return 0, 0, fmt.Errorf("sum trade amounts: %w", err)
	}
	return profit, loss, nil
}

// DayCount is the number of trades closed on one calendar day
type DayCount struct {
	Date   time.Time `json:"date"`
	Trades int64     `json:"trades"`
}

// DailyCloseCounts returns closed-trade counts per day for the last n
// days, oldest first, with zero rows for inactive days.
func (r *TradeRepository) DailyCloseCounts(ctx context.Context, days int) ([]DayCount, error) {
	query := `
		SELECT d.day, COUNT(t.id)
		FROM generate_series(
			date_trunc('day', NOW()) - ($1 - 1) * INTERVAL '1 day',
			date_trunc('day', NOW()),
			INTERVAL '1 day'
		) AS d(day)
		LEFT JOIN trades t ON date_trunc('day', t.close_time) = d.day
		GROUP BY d.day
		ORDER BY d.day
	`

	rows, err := r.db.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()

	counts := make([]DayCount, 0, days)
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Date, &dc.Trades); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		counts = append(counts, dc)
	}

	return counts, rows.Err()
}
