package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

type fakeRepository struct {
	created  *models.Event
	events   map[uuid.UUID]*models.Event
	updates  map[string]any
	updateID uuid.UUID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{events: map[uuid.UUID]*models.Event{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, event *models.Event) error {
	f.created = event
	f.events[event.ID] = event
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if event, ok := f.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updateID = id
	f.updates = updates
	return nil
}

func (f *fakeRepository) ListPublished(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Event, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeRepository) ListForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	return nil, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Now: fixedNow})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateRequiresOrganizerRole(t *testing.T) {
	svc := newTestService(t, newFakeRepository())
	_, err := svc.Create(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleMember}, CreateParams{
		Title:     "Summit",
		StartDate: fixedNow().Add(48 * time.Hour),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateRejectsPastStartDate(t *testing.T) {
	svc := newTestService(t, newFakeRepository())
	_, err := svc.Create(context.Background(), Actor{UserID: uuid.New(), Role: enums.RoleOrganizer}, CreateParams{
		Title:     "Summit",
		StartDate: fixedNow().Add(-time.Hour),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateStartsDraft(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo)

	organizer := Actor{UserID: uuid.New(), Role: enums.RoleOrganizer}
	event, err := svc.Create(context.Background(), organizer, CreateParams{
		Title:     "  Summit  ",
		StartDate: fixedNow().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.Status != enums.EventDraft {
		t.Fatalf("expected draft status, got %s", event.Status)
	}
	if event.Title != "Summit" {
		t.Fatalf("expected trimmed title, got %q", event.Title)
	}
	if repo.created == nil || repo.created.OrganizerID != organizer.UserID {
		t.Fatal("expected event persisted for organizer")
	}
}

func TestUpdateRejectsForeignOrganizer(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	event := &models.Event{ID: uuid.New(), OrganizerID: owner, Title: "Summit", Status: enums.EventDraft}
	repo.events[event.ID] = event

	svc := newTestService(t, repo)
	other := Actor{UserID: uuid.New(), Role: enums.RoleOrganizer}
	status := enums.EventPublished
	_, err := svc.Update(context.Background(), other, event.ID, Update{Status: &status})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdatePublishes(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	event := &models.Event{ID: uuid.New(), OrganizerID: owner, Title: "Summit", Status: enums.EventDraft}
	repo.events[event.ID] = event

	svc := newTestService(t, repo)
	status := enums.EventPublished
	if _, err := svc.Update(context.Background(), Actor{UserID: owner, Role: enums.RoleOrganizer}, event.ID, Update{Status: &status}); err != nil {
		t.Fatalf("update event: %v", err)
	}
	if repo.updates["status"] != enums.EventPublished {
		t.Fatalf("expected status update, got %v", repo.updates)
	}
}
