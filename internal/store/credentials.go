package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepository handles broker credential persistence
type CredentialRepository struct {
	db *pgxpool.Pool
}

// NewCredentialRepository creates a new CredentialRepository instance
func NewCredentialRepository(db *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a credential set. A second credential for the same
// (user, account) pair yields ErrConflict.
func (r *CredentialRepository) Create(ctx context.Context, c *BrokerCredential) error {
	query := `
		INSERT INTO broker_credentials (user_id, account, password, server, days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, c.UserID, c.Account, c.Password, c.Server, c.Days).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}

	return nil
}

// GetByUser returns the user's credential set
func (r *CredentialRepository) GetByUser(ctx context.Context, userID string) (*BrokerCredential, error) {
	query := `
		SELECT id, user_id, account, password, server, days
		FROM broker_credentials
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	var c BrokerCredential
	err := r.db.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.Account, &c.Password, &c.Server, &c.Days)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query credential: %w", err)
	}

	return &c, nil
}

// Update rewrites the user's credential set
func (r *CredentialRepository) Update(ctx context.Context, c *BrokerCredential) error {
	query := `
		UPDATE broker_credentials
		SET account = $2, password = $3, server = $4, days = $5
		WHERE user_id = $1
	`

	tag, err := r.db.Exec(ctx, query, c.UserID, c.Account, c.Password, c.Server, c.Days)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the user's credential set
func (r *CredentialRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM broker_credentials WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
