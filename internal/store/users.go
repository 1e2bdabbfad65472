package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `user_id, first_name, last_name, email, password, mobile_number, role, is_active, created_at`

// UserRepository handles user persistence
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.UserID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Password,
		&u.MobileNumber,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (user_id, first_name, last_name, email, password, mobile_number, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		u.UserID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Password,
		u.MobileNumber,
		u.Role,
		u.IsActive,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by its permanent ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, userID))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// List returns users in creation order with offset pagination
func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at, user_id
		OFFSET $1 LIMIT $2
	`
	return r.queryUsers(ctx, query, skip, limit)
}

// ListByRole returns all users with the given role, ordered by creation
// time then user_id. The leaderboard relies on this ordering as its
// tie-break contract.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1
		ORDER BY created_at, user_id
	`
	return r.queryUsers(ctx, query, role)
}

// ListExcludingRole returns all users whose role is not the given one
func (r *UserRepository) ListExcludingRole(ctx context.Context, role string) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role <> $1
		ORDER BY created_at, user_id
	`
	return r.queryUsers(ctx, query, role)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

// Update writes the mutable profile fields of a user
func (r *UserRepository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, mobile_number = $5, role = $6
		WHERE user_id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		u.UserID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.MobileNumber,
		u.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetActive flips the active flag on a user
func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = $2 WHERE user_id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash for a user
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password = $2 WHERE user_id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordByEmail replaces the stored password hash for the user
// owning the given email. Used by the reset-token flow.
func (r *UserRepository) UpdatePasswordByEmail(ctx context.Context, email, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password = $2 WHERE email = $1`, email, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user; trades and credentials cascade
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CountActive returns the number of users with the active flag set
func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}

// CountCreatedSince returns the number of users created at or after the cutoff
func (r *UserRepository) CountCreatedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count new users: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
