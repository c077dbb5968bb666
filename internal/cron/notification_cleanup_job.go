package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/eventyard/eventyard-backend/pkg/logger"
)

const notificationRetentionDays = 30

// notificationPruner is the slice of the notifications repository this job needs.
type notificationPruner interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams configure the cleanup job.
type NotificationCleanupJobParams struct {
	Logger    *logger.Logger
	Repo      notificationPruner
	Retention int
	Now       func() time.Time
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	repo      notificationPruner
	retention int
	now       func() time.Time
}

// NewNotificationCleanupJob builds the job that prunes old read notifications.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = notificationRetentionDays
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		repo:      params.Repo,
		retention: retention,
		now:       now,
	}, nil
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
