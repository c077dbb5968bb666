package providers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/internal/users"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/mailer"
)

type fakeDecisionMailer struct {
	sent []mailer.Message
}

func (f *fakeDecisionMailer) Send(ctx context.Context, msg mailer.Message) (mailer.Result, error) {
	f.sent = append(f.sent, msg)
	return mailer.Result{Attempts: 1}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:providers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ServiceProvider{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, sender decisionMailer) Service {
	t.Helper()
	notifier, err := notifications.NewService(notifications.NewRepository(db))
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		UserRepo: users.NewRepository(db),
		Notifier: notifier,
		Mailer:   sender,
		Logger:   logger.New(logger.Options{ServiceName: "providers-test"}),
	})
	if err != nil {
		t.Fatalf("providers service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, db *gorm.DB, email string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Email: email, Name: "Test User", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestApplyRejectsSecondListingPerOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	owner := seedUser(t, db, "owner@example.com", enums.RoleMember)
	ctx := context.Background()
	actor := Actor{UserID: owner.ID, Role: enums.RoleMember}

	provider, err := svc.Apply(ctx, actor, ApplyParams{Name: "Shoreline Catering", Category: "Catering"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if provider.Status != enums.ProviderPending {
		t.Fatalf("expected pending status, got %s", provider.Status)
	}
	if provider.Category != "catering" {
		t.Fatalf("expected lowercased category, got %q", provider.Category)
	}

	_, err = svc.Apply(ctx, actor, ApplyParams{Name: "Second Attempt", Category: "catering"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate owner, got %v", err)
	}

	var count int64
	if err := db.Model(&models.ServiceProvider{}).Count(&count).Error; err != nil {
		t.Fatalf("count providers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 provider row, got %d", count)
	}
}

func TestApproveNotifiesOwner(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeDecisionMailer{}
	svc := newTestService(t, db, sender)
	owner := seedUser(t, db, "owner@example.com", enums.RoleMember)
	admin := seedUser(t, db, "admin@example.com", enums.RoleAdmin)
	ctx := context.Background()

	provider, err := svc.Apply(ctx, Actor{UserID: owner.ID, Role: enums.RoleMember}, ApplyParams{Name: "Shoreline Catering", Category: "catering"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	approved, err := svc.Approve(ctx, Actor{UserID: admin.ID, Role: enums.RoleAdmin}, provider.ID, "looks good")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != enums.ProviderApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
	if approved.ModerationNotes == nil || *approved.ModerationNotes != "looks good" {
		t.Fatalf("expected moderation notes recorded, got %v", approved.ModerationNotes)
	}

	var note models.Notification
	if err := db.First(&note, "user_id = ?", owner.ID).Error; err != nil {
		t.Fatalf("expected in-app notification for owner: %v", err)
	}
	if note.Type != enums.NotificationModeration {
		t.Fatalf("expected moderation notification, got %s", note.Type)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "owner@example.com" {
		t.Fatalf("expected one decision email to the owner, got %v", sender.sent)
	}

	// Approving again must fail without flipping any state.
	_, err = svc.Approve(ctx, Actor{UserID: admin.ID, Role: enums.RoleAdmin}, provider.ID, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on repeated decision, got %v", err)
	}
}

func TestModerationRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	owner := seedUser(t, db, "owner@example.com", enums.RoleMember)
	ctx := context.Background()

	provider, err := svc.Apply(ctx, Actor{UserID: owner.ID, Role: enums.RoleMember}, ApplyParams{Name: "Shoreline Catering", Category: "catering"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	_, err = svc.Reject(ctx, Actor{UserID: owner.ID, Role: enums.RoleOrganizer}, provider.ID, "nope")
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
	_, err = svc.ListPending(ctx, Actor{UserID: owner.ID, Role: enums.RoleMember}, ListParams{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for pending list, got %v", err)
	}
}

func TestGetHidesUnapprovedListings(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	owner := seedUser(t, db, "owner@example.com", enums.RoleMember)
	ctx := context.Background()

	provider, err := svc.Apply(ctx, Actor{UserID: owner.ID, Role: enums.RoleMember}, ApplyParams{Name: "Shoreline Catering", Category: "catering"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := svc.Get(ctx, provider.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected pending listing to be hidden, got %v", err)
	}

	status, err := svc.StatusForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("status for owner: %v", err)
	}
	if status.Status != enums.ProviderPending {
		t.Fatalf("expected owner to see pending status, got %s", status.Status)
	}
}
