package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginRepository handles login history persistence
type LoginRepository struct {
	db *pgxpool.Pool
}

// NewLoginRepository creates a new LoginRepository instance
func NewLoginRepository(db *pgxpool.Pool) *LoginRepository {
	return &LoginRepository{db: db}
}

// Record inserts one login attempt
func (r *LoginRepository) Record(ctx context.Context, rec *LoginRecord) error {
	query := `
		INSERT INTO login_history (user_id, ip_address, status)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp
	`

	err := r.db.QueryRow(ctx, query, rec.UserID, rec.IPAddress, rec.Status).
		Scan(&rec.ID, &rec.Timestamp)
	if err != nil {
		return fmt.Errorf("insert login record: %w", err)
	}

	return nil
}

// ListByUser returns the most recent login records for one user
func (r *LoginRepository) ListByUser(ctx context.Context, userID string, limit int) ([]LoginRecord, error) {
	query := `
		SELECT id, user_id, ip_address, status, timestamp
		FROM login_history
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query login history: %w", err)
	}
	defer rows.Close()

	records := make([]LoginRecord, 0)
	for rows.Next() {
		var rec LoginRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.IPAddress, &rec.Status, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan login record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// LoginRecordWithEmail is a login record joined with the owning user's email
type LoginRecordWithEmail struct {
	LoginRecord
	Email string `json:"email"`
}

// ListAll returns platform-wide login records, newest first, with the
// user's email resolved for display.
func (r *LoginRepository) ListAll(ctx context.Context, skip, limit int) ([]LoginRecordWithEmail, error) {
	query := `
		SELECT l.id, l.user_id, l.ip_address, l.status, l.timestamp, COALESCE(u.email, 'Unknown')
		FROM login_history l
		LEFT JOIN users u ON u.user_id = l.user_id
		ORDER BY l.timestamp DESC
		OFFSET $1 LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("query login history: %w", err)
	}
	defer rows.Close()

	records := make([]LoginRecordWithEmail, 0)
	for rows.Next() {
		var rec LoginRecordWithEmail
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.IPAddress, &rec.Status, &rec.Timestamp, &rec.Email); err != nil {
			return nil, fmt.Errorf("scan login record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
