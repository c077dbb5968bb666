package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
)

// Achievement kinds awarded at attendance milestones.
const (
	KindFirstEvent = "first_event"
	KindRegular    = "regular"
	KindVeteran    = "veteran"
)

// milestones maps attendance counts to the achievement they unlock.
var milestones = []struct {
	count int64
	kind  string
}{
	{count: 1, kind: KindFirstEvent},
	{count: 5, kind: KindRegular},
	{count: 10, kind: KindVeteran},
}

// CheckInResult reports whether the check-in was new and which achievements
// it unlocked.
type CheckInResult struct {
	Recorded    bool     `json:"recorded"`
	NewlyEarned []string `json:"newly_earned,omitempty"`
}

// History is a user's attendance log plus earned achievements.
type History struct {
	Attendance   []models.Attendance  `json:"attendance"`
	Achievements []models.Achievement `json:"achievements"`
}

// Service records event check-ins and awards attendance achievements.
type Service interface {
	RecordCheckIn(ctx context.Context, userID, eventID uuid.UUID, at time.Time) (*CheckInResult, error)
	HistoryForUser(ctx context.Context, userID uuid.UUID) (*History, error)
}

// ServiceParams groups dependencies for the attendance service.
type ServiceParams struct {
	Repo     Repository
	Notifier notifications.Service
}

type service struct {
	repo     Repository
	notifier notifications.Service
}

// NewService wires the attendance service. Notifier may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attendance repository required")
	}
	return &service{repo: params.Repo, notifier: params.Notifier}, nil
}

// RecordCheckIn stores the first check-in for the (user, event) pair. Repeat
// check-ins are absorbed without error so ticket re-scans stay idempotent.
func (s *service) RecordCheckIn(ctx context.Context, userID, eventID uuid.UUID, at time.Time) (*CheckInResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}

	inserted, err := s.repo.Insert(ctx, &models.Attendance{
		ID:          uuid.New(),
		UserID:      userID,
		EventID:     eventID,
		CheckedInAt: at.UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record check-in")
	}
	result := &CheckInResult{Recorded: inserted}
	if !inserted {
		return result, nil
	}

	total, err := s.repo.CountForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count attendance")
	}
	for _, milestone := range milestones {
		if total < milestone.count {
			break
		}
		earned, err := s.repo.InsertAchievement(ctx, &models.Achievement{
			ID:       uuid.New(),
			UserID:   userID,
			Kind:     milestone.kind,
			EarnedAt: at.UTC(),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "award achievement")
		}
		if earned {
			result.NewlyEarned = append(result.NewlyEarned, milestone.kind)
			s.notifyAchievement(ctx, userID, milestone.kind)
		}
	}
	return result, nil
}

func (s *service) HistoryForUser(ctx context.Context, userID uuid.UUID) (*History, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	records, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attendance")
	}
	achievements, err := s.repo.ListAchievements(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list achievements")
	}
	return &History{
		Attendance:   records,
		Achievements: achievements,
	}, nil
}

func (s *service) notifyAchievement(ctx context.Context, userID uuid.UUID, kind string) {
	if s.notifier == nil {
		return
	}
	// Best effort, a lost notification must not fail the check-in.
	_, _ = s.notifier.Create(ctx, notifications.CreateParams{
		UserID:  userID,
		Type:    enums.NotificationAchievement,
		Title:   "Achievement unlocked",
		Message: fmt.Sprintf("You earned the %s achievement.", kind),
	})
}
