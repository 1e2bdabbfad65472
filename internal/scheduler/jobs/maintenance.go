package jobs

import (
	"context"
	"time"

	"github.com/tradewise/journal/pkg/logger"
)

// AnnouncementSweeper deletes announcements older than a cutoff
type AnnouncementSweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AnnouncementSweepJob removes announcements past their display window.
// Announcements are broadcast-once notices and expire 24 hours after
// they are posted.
type AnnouncementSweepJob struct {
	store  AnnouncementSweeper
	maxAge time.Duration
	logger *logger.Logger
}

// NewAnnouncementSweepJob creates the announcement sweep job
func NewAnnouncementSweepJob(store AnnouncementSweeper, log *logger.Logger) *AnnouncementSweepJob {
	return &AnnouncementSweepJob{
		store:  store,
		maxAge: 24 * time.Hour,
		logger: log,
	}
}

// Name returns the job name
func (j *AnnouncementSweepJob) Name() string {
	return "announcement_sweep"
}

// Schedule returns the cron schedule (top of every hour)
func (j *AnnouncementSweepJob) Schedule() string {
	return "0 0 * * * *"
}

// Run deletes expired announcements
func (j *AnnouncementSweepJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge)

	removed, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Announcement sweep completed")
	}

	return nil
}
