package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema. Statements are idempotent so the command
// can be re-run safely.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id       TEXT PRIMARY KEY,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL UNIQUE,
			password      TEXT NOT NULL,
			mobile_number TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'user',
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id            BIGSERIAL PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			trade_no      BIGINT NOT NULL UNIQUE,
			symbol        TEXT NOT NULL DEFAULT '',
			volume        DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_open    DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_close   DOUBLE PRECISION NOT NULL DEFAULT 0,
			type          TEXT NOT NULL DEFAULT '',
			take_profit   DOUBLE PRECISION NOT NULL DEFAULT 0,
			stop_loss     DOUBLE PRECISION NOT NULL DEFAULT 0,
			profit_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			loss_amount   DOUBLE PRECISION NOT NULL DEFAULT 0,
			net_profit    DOUBLE PRECISION NOT NULL DEFAULT 0,
			reason        TEXT NOT NULL DEFAULT '',
			mistake       TEXT NOT NULL DEFAULT '',
			open_time     TIMESTAMPTZ,
			close_time    TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_user_id ON trades(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time)`,
		`CREATE TABLE IF NOT EXISTS login_history (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			ip_address TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_login_history_user_id ON login_history(user_id)`,
		`CREATE TABLE IF NOT EXISTS announcements (
			id         BIGSERIAL PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS broker_credentials (
			id       BIGSERIAL PRIMARY KEY,
			user_id  TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			account  TEXT NOT NULL,
			password TEXT NOT NULL,
			server   TEXT NOT NULL,
			days     INTEGER NOT NULL DEFAULT 90,
			UNIQUE (user_id, account)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
