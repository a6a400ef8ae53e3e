package jobs

import (
	"context"
	"log/slog"
	"time"

	"gestao/internal/snapshots"
)

// CleanupJob removes snapshots older than the retention period
type CleanupJob struct {
	store     *snapshots.Store
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

func NewCleanupJob(store *snapshots.Store, logger *slog.Logger, retention time.Duration) *CleanupJob {
	return &CleanupJob{
		store:     store,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Run purges snapshots fetched before now minus the retention.
// A zero retention keeps everything.
func (j *CleanupJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		j.logger.Debug("Snapshot retention disabled")
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	j.logger.Info("Starting cleanup of old snapshots",
		slog.Duration("retention", j.retention),
		slog.Time("cutoff_date", cutoff))

	deleted, err := j.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("Failed to delete old snapshots", slog.Any("error", err))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No old snapshots to clean up")
		return nil
	}

	j.logger.Info("Cleaned up old snapshots", slog.Int64("deleted_count", deleted))
	return nil
}
