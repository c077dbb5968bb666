package cron

import (
	"context"
	"testing"
	"time"

	"github.com/eventyard/eventyard-backend/pkg/logger"
)

type fakePruner struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakePruner) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestNotificationCleanupJobUsesRetentionWindow(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	pruner := &fakePruner{deleted: 7}

	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:    logg,
		Repo:      pruner,
		Retention: 14,
		Now:       func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := fixed.Add(-14 * 24 * time.Hour)
	if !pruner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, pruner.cutoff)
	}
}
