package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/internal/users"
	"github.com/eventyard/eventyard-backend/pkg/db"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/mailer"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ApplyParams carries the fields of a provider application.
type ApplyParams struct {
	Name        string
	Category    string
	Description string
}

// ListParams configures the public directory listing.
type ListParams struct {
	Category string
	Limit    int
	Cursor   string
}

// ListResult wraps returned providers and the cursor for the next page.
type ListResult struct {
	Items  []models.ServiceProvider `json:"items"`
	Cursor string                   `json:"cursor"`
}

// decisionMailer sends moderation decision emails. Satisfied by *mailer.Client.
type decisionMailer interface {
	Send(ctx context.Context, msg mailer.Message) (mailer.Result, error)
}

// Service exposes provider applications, the public directory, and admin
// moderation.
type Service interface {
	Apply(ctx context.Context, actor Actor, params ApplyParams) (*models.ServiceProvider, error)
	StatusForOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.ServiceProvider, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error)
	ListApproved(ctx context.Context, params ListParams) (*ListResult, error)
	ListPending(ctx context.Context, actor Actor, params ListParams) (*ListResult, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*models.ServiceProvider, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*models.ServiceProvider, error)
}

// ServiceParams groups dependencies for the providers service.
type ServiceParams struct {
	Repo     Repository
	UserRepo users.Repository
	Notifier notifications.Service
	Mailer   decisionMailer
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	userRepo users.Repository
	notifier notifications.Service
	mailer   decisionMailer
	logger   *logger.Logger
}

// NewService wires the providers service. Mailer may be nil, in which case
// decision emails are skipped.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "providers repository required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:     params.Repo,
		userRepo: params.UserRepo,
		notifier: params.Notifier,
		mailer:   params.Mailer,
		logger:   params.Logger,
	}, nil
}

func (s *service) Apply(ctx context.Context, actor Actor, params ApplyParams) (*models.ServiceProvider, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider name is required")
	}
	category := strings.TrimSpace(strings.ToLower(params.Category))
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}

	provider := &models.ServiceProvider{
		ID:          uuid.New(),
		OwnerUserID: actor.UserID,
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(params.Description),
		Status:      enums.ProviderPending,
	}
	if err := s.repo.Create(ctx, provider); err != nil {
		if db.IsUniqueViolation(err, "service_providers_owner_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "owner already has a provider listing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider application")
	}
	return provider, nil
}

func (s *service) StatusForOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.ServiceProvider, error) {
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	provider, err := s.repo.FindByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no provider application on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider application")
	}
	return provider, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	provider, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if provider.Status != enums.ProviderApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}
	return provider, nil
}

func (s *service) ListApproved(ctx context.Context, params ListParams) (*ListResult, error) {
	return s.list(ctx, enums.ProviderApproved, params)
}

func (s *service) ListPending(ctx context.Context, actor Actor, params ListParams) (*ListResult, error) {
	if actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return s.list(ctx, enums.ProviderPending, params)
}

func (s *service) Approve(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*models.ServiceProvider, error) {
	return s.decide(ctx, actor, id, enums.ProviderApproved, notes)
}

func (s *service) Reject(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*models.ServiceProvider, error) {
	return s.decide(ctx, actor, id, enums.ProviderRejected, notes)
}

func (s *service) decide(ctx context.Context, actor Actor, id uuid.UUID, decision enums.ProviderStatus, notes string) (*models.ServiceProvider, error) {
	if actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	provider, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	trimmed := strings.TrimSpace(notes)
	if trimmed != "" {
		updates["moderation_notes"] = trimmed
	}
	ok, err := s.repo.TransitionStatus(ctx, id, enums.ProviderPending, decision, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record moderation decision")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("provider is not pending, current status %s", provider.Status))
	}

	s.notifyDecision(ctx, provider, decision, trimmed)
	return s.find(ctx, id)
}

func (s *service) notifyDecision(ctx context.Context, provider *models.ServiceProvider, decision enums.ProviderStatus, notes string) {
	title := "Provider application approved"
	message := fmt.Sprintf("Your listing %q is now visible in the directory.", provider.Name)
	if decision == enums.ProviderRejected {
		title = "Provider application rejected"
		message = fmt.Sprintf("Your listing %q was not approved.", provider.Name)
		if notes != "" {
			message = fmt.Sprintf("%s Reviewer notes: %s", message, notes)
		}
	}

	if s.notifier != nil {
		_, err := s.notifier.Create(ctx, notifications.CreateParams{
			UserID:  provider.OwnerUserID,
			Type:    enums.NotificationModeration,
			Title:   title,
			Message: message,
		})
		if err != nil {
			s.logger.Error(ctx, "provider decision notification failed", err)
		}
	}

	if s.mailer == nil {
		return
	}
	owner, err := s.userRepo.FindByID(ctx, provider.OwnerUserID)
	if err != nil {
		s.logger.Error(ctx, "provider decision email skipped, owner lookup failed", err)
		return
	}
	_, err = s.mailer.Send(ctx, mailer.Message{
		To:       owner.Email,
		Subject:  title,
		Template: "provider-decision",
		Data: map[string]any{
			"provider_name": provider.Name,
			"decision":      string(decision),
			"notes":         notes,
		},
	})
	if err != nil {
		s.logger.Error(ctx, "provider decision email failed", err)
	}
}

func (s *service) list(ctx context.Context, status enums.ProviderStatus, params ListParams) (*ListResult, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.ListByStatus(ctx, status, strings.TrimSpace(strings.ToLower(params.Category)), params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list providers")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &ListResult{
		Items:  rows,
		Cursor: encoded,
	}, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id is required")
	}
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	return provider, nil
}
