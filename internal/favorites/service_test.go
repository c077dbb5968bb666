package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:favorites_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Favorite{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countFavorites(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Favorite{}).Count(&count).Error; err != nil {
		t.Fatalf("count favorites: %v", err)
	}
	return count
}

func TestToggleFlipsState(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("favorites service: %v", err)
	}
	ctx := context.Background()
	userID := uuid.New()
	eventID := uuid.New()

	result, err := svc.Toggle(ctx, userID, enums.FavoriteEvent, eventID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !result.Favorited {
		t.Fatal("expected first toggle to favorite")
	}
	if countFavorites(t, db) != 1 {
		t.Fatal("expected one favorite row")
	}

	result, err = svc.Toggle(ctx, userID, enums.FavoriteEvent, eventID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if result.Favorited {
		t.Fatal("expected second toggle to unfavorite")
	}
	if countFavorites(t, db) != 0 {
		t.Fatal("expected favorite row removed")
	}

	// Same entity id under a different type is an independent favorite.
	if _, err := svc.Toggle(ctx, userID, enums.FavoriteEvent, eventID); err != nil {
		t.Fatalf("re-favorite: %v", err)
	}
	if _, err := svc.Toggle(ctx, userID, enums.FavoritePackage, eventID); err != nil {
		t.Fatalf("favorite as package: %v", err)
	}
	if countFavorites(t, db) != 2 {
		t.Fatal("expected two favorite rows across entity types")
	}
}

func TestToggleValidatesInput(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("favorites service: %v", err)
	}
	ctx := context.Background()

	_, err = svc.Toggle(ctx, uuid.Nil, enums.FavoriteEvent, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for missing user, got %v", err)
	}
	_, err = svc.Toggle(ctx, uuid.New(), enums.FavoriteEntity("playlist"), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

func TestListFiltersByEntityType(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("favorites service: %v", err)
	}
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Toggle(ctx, userID, enums.FavoriteEvent, uuid.New()); err != nil {
		t.Fatalf("toggle event: %v", err)
	}
	if _, err := svc.Toggle(ctx, userID, enums.FavoriteProvider, uuid.New()); err != nil {
		t.Fatalf("toggle provider: %v", err)
	}
	if _, err := svc.Toggle(ctx, uuid.New(), enums.FavoriteEvent, uuid.New()); err != nil {
		t.Fatalf("toggle other user: %v", err)
	}

	all, err := svc.List(ctx, ListParams{UserID: userID})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("expected 2 favorites for user, got %d", len(all.Items))
	}

	onlyProviders, err := svc.List(ctx, ListParams{UserID: userID, EntityType: enums.FavoriteProvider})
	if err != nil {
		t.Fatalf("list providers: %v", err)
	}
	if len(onlyProviders.Items) != 1 || onlyProviders.Items[0].EntityType != enums.FavoriteProvider {
		t.Fatalf("expected 1 provider favorite, got %v", onlyProviders.Items)
	}
}
