package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/providers"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.ServiceProvider{}, &models.Review{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:           gormTxRunner{db: db},
		Repo:         NewRepository(db),
		ProviderRepo: providers.NewRepository(db),
	})
	if err != nil {
		t.Fatalf("reviews service: %v", err)
	}
	return svc
}

func seedProvider(t *testing.T, db *gorm.DB, status enums.ProviderStatus) *models.ServiceProvider {
	t.Helper()
	provider := &models.ServiceProvider{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		Name:        "Shoreline Catering",
		Category:    "catering",
		Status:      status,
	}
	if err := db.Create(provider).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return provider
}

func reloadProvider(t *testing.T, db *gorm.DB, id uuid.UUID) *models.ServiceProvider {
	t.Helper()
	var provider models.ServiceProvider
	if err := db.First(&provider, "id = ?", id).Error; err != nil {
		t.Fatalf("reload provider: %v", err)
	}
	return &provider
}

func TestCreateRejectsSecondReviewForSamePair(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	provider := seedProvider(t, db, enums.ProviderApproved)
	author := Actor{UserID: uuid.New(), Role: enums.RoleMember}
	ctx := context.Background()

	if _, err := svc.Create(ctx, author, CreateParams{ProviderID: provider.ID, Rating: 4, Title: "Solid"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, author, CreateParams{ProviderID: provider.ID, Rating: 2, Title: "Changed my mind"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate review, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Review{}).Count(&count).Error; err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 review row, got %d", count)
	}
}

func TestRatingAggregatesFollowReviewLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	provider := seedProvider(t, db, enums.ProviderApproved)
	first := Actor{UserID: uuid.New(), Role: enums.RoleMember}
	second := Actor{UserID: uuid.New(), Role: enums.RoleMember}
	ctx := context.Background()

	if _, err := svc.Create(ctx, first, CreateParams{ProviderID: provider.ID, Rating: 5}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	review, err := svc.Create(ctx, second, CreateParams{ProviderID: provider.ID, Rating: 3})
	if err != nil {
		t.Fatalf("second review: %v", err)
	}

	loaded := reloadProvider(t, db, provider.ID)
	if loaded.RatingCount != 2 || loaded.RatingAvg != 4 {
		t.Fatalf("expected avg=4 count=2, got avg=%v count=%d", loaded.RatingAvg, loaded.RatingCount)
	}

	newRating := 1
	if _, err := svc.Update(ctx, second, review.ID, Update{Rating: &newRating}); err != nil {
		t.Fatalf("update review: %v", err)
	}
	loaded = reloadProvider(t, db, provider.ID)
	if loaded.RatingAvg != 3 {
		t.Fatalf("expected avg=3 after edit, got %v", loaded.RatingAvg)
	}

	if err := svc.Delete(ctx, second, review.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	loaded = reloadProvider(t, db, provider.ID)
	if loaded.RatingCount != 1 || loaded.RatingAvg != 5 {
		t.Fatalf("expected avg=5 count=1 after delete, got avg=%v count=%d", loaded.RatingAvg, loaded.RatingCount)
	}
}

func TestVoteHelpfulIncrementsPerVote(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	provider := seedProvider(t, db, enums.ProviderApproved)
	author := Actor{UserID: uuid.New(), Role: enums.RoleMember}
	ctx := context.Background()

	review, err := svc.Create(ctx, author, CreateParams{ProviderID: provider.ID, Rating: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Two voters land two increments.
	if _, err := svc.VoteHelpful(ctx, Actor{UserID: uuid.New(), Role: enums.RoleMember}, review.ID); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	updated, err := svc.VoteHelpful(ctx, Actor{UserID: uuid.New(), Role: enums.RoleMember}, review.ID)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if updated.Helpful != 2 {
		t.Fatalf("expected helpful=2, got %d", updated.Helpful)
	}

	_, err = svc.VoteHelpful(ctx, author, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown review, got %v", err)
	}
}

func TestCreateGuardsProviderState(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	pending := seedProvider(t, db, enums.ProviderPending)
	approved := seedProvider(t, db, enums.ProviderApproved)
	ctx := context.Background()

	_, err := svc.Create(ctx, Actor{UserID: uuid.New(), Role: enums.RoleMember}, CreateParams{ProviderID: pending.ID, Rating: 4})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected pending provider to be unreviewable, got %v", err)
	}

	_, err = svc.Create(ctx, Actor{UserID: approved.OwnerUserID, Role: enums.RoleMember}, CreateParams{ProviderID: approved.ID, Rating: 5})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected owner self-review to be forbidden, got %v", err)
	}

	_, err = svc.Create(ctx, Actor{UserID: uuid.New(), Role: enums.RoleMember}, CreateParams{ProviderID: approved.ID, Rating: 6})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected rating out of range to fail validation, got %v", err)
	}
}
