package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/providers"
	"github.com/eventyard/eventyard-backend/pkg/db"
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

// CreateParams carries the fields for a new review.
type CreateParams struct {
	ProviderID uuid.UUID
	Rating     int
	Title      string
	Body       string
}

// Update enumerates the patchable review fields.
type Update struct {
	Rating *int
	Title  *string
	Body   *string
}

// ListParams configures review pagination for one provider.
type ListParams struct {
	ProviderID uuid.UUID
	Limit      int
	Cursor     string
}

// ListResult wraps returned reviews and the cursor for the next page.
type ListResult struct {
	Items  []models.Review `json:"items"`
	Cursor string          `json:"cursor"`
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes review authoring, listing, and helpful votes.
type Service interface {
	Create(ctx context.Context, actor Actor, params CreateParams) (*models.Review, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, updates Update) (*models.Review, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	ListForProvider(ctx context.Context, params ListParams) (*ListResult, error)
	VoteHelpful(ctx context.Context, actor Actor, id uuid.UUID) (*models.Review, error)
}

// ServiceParams groups dependencies for the reviews service.
type ServiceParams struct {
	DB           TxRunner
	Repo         Repository
	ProviderRepo providers.Repository
}

type service struct {
	db           TxRunner
	repo         Repository
	providerRepo providers.Repository
}

// NewService wires the reviews service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reviews repository required")
	}
	if params.ProviderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "providers repository required")
	}
	return &service{
		db:           params.DB,
		repo:         params.Repo,
		providerRepo: params.ProviderRepo,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, params CreateParams) (*models.Review, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	provider, err := s.findProvider(ctx, params.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.Status != enums.ProviderApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}
	if provider.OwnerUserID == actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "owners cannot review their own listing")
	}

	review := &models.Review{
		ID:           uuid.New(),
		ProviderID:   params.ProviderID,
		AuthorUserID: actor.UserID,
		Rating:       params.Rating,
		Title:        strings.TrimSpace(params.Title),
		Body:         strings.TrimSpace(params.Body),
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, review); err != nil {
			return err
		}
		return txRepo.RecomputeProviderRating(ctx, params.ProviderID)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "reviews_provider_author_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "provider already reviewed by this user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return review, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, updates Update) (*models.Review, error) {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.AuthorUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the review author")
	}

	fields := map[string]any{}
	ratingChanged := false
	if updates.Rating != nil {
		if *updates.Rating < 1 || *updates.Rating > 5 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
		}
		fields["rating"] = *updates.Rating
		ratingChanged = *updates.Rating != review.Rating
	}
	if updates.Title != nil {
		fields["title"] = strings.TrimSpace(*updates.Title)
	}
	if updates.Body != nil {
		fields["body"] = strings.TrimSpace(*updates.Body)
	}
	if len(fields) == 0 {
		return review, nil
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Update(ctx, id, fields); err != nil {
			return err
		}
		if ratingChanged {
			return txRepo.RecomputeProviderRating(ctx, review.ProviderID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	return s.findReview(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return err
	}
	if review.AuthorUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not the review author")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Delete(ctx, id); err != nil {
			return err
		}
		return txRepo.RecomputeProviderRating(ctx, review.ProviderID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return nil
}

func (s *service) ListForProvider(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.ProviderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id is required")
	}
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.ListForProvider(ctx, params.ProviderID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
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

func (s *service) VoteHelpful(ctx context.Context, actor Actor, id uuid.UUID) (*models.Review, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	ok, err := s.repo.VoteHelpful(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record helpful vote")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return s.findReview(ctx, id)
}

func (s *service) findReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func (s *service) findProvider(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id is required")
	}
	provider, err := s.providerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	return provider, nil
}
