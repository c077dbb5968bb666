package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateParams carries the fields for a new event.
type CreateParams struct {
	Title              string
	Venue              string
	StartDate          time.Time
	BookingCutoffHours *int
}

// Update enumerates the patchable event fields.
type Update struct {
	Title              *string
	Venue              *string
	StartDate          *time.Time
	BookingCutoffHours *int
	Status             *enums.EventStatus
}

// ListResult wraps a published-events page and the next cursor.
type ListResult struct {
	Items  []models.Event `json:"items"`
	Cursor string         `json:"cursor"`
}

// Service exposes organizer event management and public reads.
type Service interface {
	Create(ctx context.Context, actor Actor, params CreateParams) (*models.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, updates Update) (*models.Event, error)
	ListPublished(ctx context.Context, limit int, cursor string) (*ListResult, error)
	ListForOrganizer(ctx context.Context, actor Actor) ([]models.Event, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ServiceParams groups dependencies for the events service.
type ServiceParams struct {
	Repo Repository
	Now  func() time.Time
}

// NewService wires the events service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, now: now}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, params CreateParams) (*models.Event, error) {
	if actor.Role != enums.RoleOrganizer && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only organizers can create events")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if params.StartDate.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be in the future")
	}
	if params.BookingCutoffHours != nil && *params.BookingCutoffHours < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking cutoff cannot be negative")
	}

	event := &models.Event{
		ID:                 uuid.New(),
		OrganizerID:        actor.UserID,
		Title:              title,
		Venue:              strings.TrimSpace(params.Venue),
		StartDate:          params.StartDate,
		BookingCutoffHours: params.BookingCutoffHours,
		Status:             enums.EventDraft,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
	}
	return event, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, updates Update) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the event organizer")
	}

	fields := map[string]any{}
	if updates.Title != nil {
		title := strings.TrimSpace(*updates.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		fields["title"] = title
	}
	if updates.Venue != nil {
		fields["venue"] = strings.TrimSpace(*updates.Venue)
	}
	if updates.StartDate != nil {
		fields["start_date"] = *updates.StartDate
	}
	if updates.BookingCutoffHours != nil {
		if *updates.BookingCutoffHours < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking cutoff cannot be negative")
		}
		fields["booking_cutoff_hours"] = *updates.BookingCutoffHours
	}
	if updates.Status != nil {
		if !updates.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event status")
		}
		fields["status"] = *updates.Status
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) ListPublished(ctx context.Context, limit int, cursor string) (*ListResult, error) {
	var decoded *pagination.Cursor
	if cursor != "" {
		parsed, err := pagination.ParseCursor(cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		decoded = parsed
	}

	events, next, err := s.repo.ListPublished(ctx, limit, decoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}

	result := &ListResult{Items: events}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) ListForOrganizer(ctx context.Context, actor Actor) ([]models.Event, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	events, err := s.repo.ListForOrganizer(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizer events")
	}
	return events, nil
}
