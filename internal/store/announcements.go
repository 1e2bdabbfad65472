package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnnouncementRepository handles announcement persistence
type AnnouncementRepository struct {
	db *pgxpool.Pool
}

// NewAnnouncementRepository creates a new AnnouncementRepository instance
func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts a new announcement
func (r *AnnouncementRepository) Create(ctx context.Context, a *Announcement) error {
	query := `
		INSERT INTO announcements (title, content, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, a.Title, a.Content, a.IsActive).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}

	return nil
}

// List returns all announcements, newest first
func (r *AnnouncementRepository) List(ctx context.Context) ([]Announcement, error) {
	query := `
		SELECT id, title, content, is_active, created_at
		FROM announcements
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query announcements: %w", err)
	}
	defer rows.Close()

	announcements := make([]Announcement, 0)
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}

	return announcements, rows.Err()
}

// LatestActive returns the most recent active announcement
func (r *AnnouncementRepository) LatestActive(ctx context.Context) (*Announcement, error) {
	query := `
		SELECT id, title, content, is_active, created_at
		FROM announcements
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1
	`

	var a Announcement
	err := r.db.QueryRow(ctx, query).Scan(&a.ID, &a.Title, &a.Content, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query latest announcement: %w", err)
	}

	return &a, nil
}

// Delete removes an announcement
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes announcements created before the cutoff and
// returns how many were swept.
func (r *AnnouncementRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep announcements: %w", err)
	}
	return tag.RowsAffected(), nil
}
