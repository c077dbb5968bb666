package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
)

type fakeRepository struct {
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	updateFn      func(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, user *models.User) error { return nil }

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, updates)
	}
	return nil
}

func TestResolveByEmailNormalizesAndResolves(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "guest@example.com", Role: enums.RoleMember}
	repo := &fakeRepository{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email != "guest@example.com" {
				t.Fatalf("expected lowercased email, got %q", email)
			}
			return user, nil
		},
	}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	resolved, err := svc.ResolveByEmail(context.Background(), "  Guest@Example.COM ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("expected user %s got %s", user.ID, resolved.ID)
	}
}

func TestResolveByEmailUnknownIsUnauthorized(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	_, err := svc.ResolveByEmail(context.Background(), "nobody@example.com")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateProfileRejectsEmptyName(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	empty := "   "
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{Name: &empty})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateProfileAppliesName(t *testing.T) {
	id := uuid.New()
	var applied map[string]any
	repo := &fakeRepository{
		updateFn: func(ctx context.Context, gotID uuid.UUID, updates map[string]any) error {
			if gotID != id {
				t.Fatalf("expected id %s got %s", id, gotID)
			}
			applied = updates
			return nil
		},
		findByIDFn: func(ctx context.Context, gotID uuid.UUID) (*models.User, error) {
			return &models.User{ID: gotID, Name: "New Name"}, nil
		},
	}

	svc, _ := NewService(repo)
	name := " New Name "
	user, err := svc.UpdateProfile(context.Background(), id, ProfileUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if applied["name"] != "New Name" {
		t.Fatalf("expected trimmed name, got %v", applied["name"])
	}
	if user.Name != "New Name" {
		t.Fatalf("expected reloaded user, got %q", user.Name)
	}
}
