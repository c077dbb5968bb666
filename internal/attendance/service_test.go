package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:attendance_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Attendance{}, &models.Achievement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	if err != nil {
		t.Fatalf("attendance service: %v", err)
	}
	return svc
}

func TestRecordCheckInIsIdempotentPerEvent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	eventID := uuid.New()
	at := time.Date(2026, 6, 10, 18, 0, 0, 0, time.UTC)

	result, err := svc.RecordCheckIn(ctx, userID, eventID, at)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if !result.Recorded {
		t.Fatal("expected first check-in to be recorded")
	}

	repeat, err := svc.RecordCheckIn(ctx, userID, eventID, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeat check in: %v", err)
	}
	if repeat.Recorded || len(repeat.NewlyEarned) != 0 {
		t.Fatalf("expected repeat check-in to be absorbed, got %+v", repeat)
	}

	var count int64
	if err := db.Model(&models.Attendance{}).Count(&count).Error; err != nil {
		t.Fatalf("count attendance: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attendance row, got %d", count)
	}
}

func TestAchievementsUnlockAtThresholds(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	at := time.Date(2026, 6, 10, 18, 0, 0, 0, time.UTC)

	earnedAt := map[int][]string{}
	for i := 1; i <= 10; i++ {
		result, err := svc.RecordCheckIn(ctx, userID, uuid.New(), at.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("check in %d: %v", i, err)
		}
		if len(result.NewlyEarned) > 0 {
			earnedAt[i] = result.NewlyEarned
		}
	}

	if got := earnedAt[1]; len(got) != 1 || got[0] != KindFirstEvent {
		t.Fatalf("expected %s at 1 check-in, got %v", KindFirstEvent, got)
	}
	if got := earnedAt[5]; len(got) != 1 || got[0] != KindRegular {
		t.Fatalf("expected %s at 5 check-ins, got %v", KindRegular, got)
	}
	if got := earnedAt[10]; len(got) != 1 || got[0] != KindVeteran {
		t.Fatalf("expected %s at 10 check-ins, got %v", KindVeteran, got)
	}
	if len(earnedAt) != 3 {
		t.Fatalf("expected achievements only at milestones, got %v", earnedAt)
	}

	history, err := svc.HistoryForUser(ctx, userID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Attendance) != 10 || len(history.Achievements) != 3 {
		t.Fatalf("expected 10 check-ins and 3 achievements, got %d and %d",
			len(history.Attendance), len(history.Achievements))
	}
}
