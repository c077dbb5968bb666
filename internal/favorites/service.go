package favorites

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// ToggleResult reports the state the favorite landed in.
type ToggleResult struct {
	Favorited bool `json:"favorited"`
}

// ListParams configures favorite pagination for one user.
type ListParams struct {
	UserID     uuid.UUID
	EntityType enums.FavoriteEntity
	Limit      int
	Cursor     string
}

// ListResult wraps returned favorites and the cursor for the next page.
type ListResult struct {
	Items  []models.Favorite `json:"items"`
	Cursor string            `json:"cursor"`
}

// Service exposes favorite toggling and listing.
type Service interface {
	Toggle(ctx context.Context, userID uuid.UUID, entityType enums.FavoriteEntity, entityID uuid.UUID) (*ToggleResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the favorites service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "favorites repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Toggle flips the favorite for the pair: absent rows are inserted, present
// rows are removed. The insert is conflict-safe so concurrent toggles cannot
// produce duplicate rows.
func (s *service) Toggle(ctx context.Context, userID uuid.UUID, entityType enums.FavoriteEntity, entityID uuid.UUID) (*ToggleResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !entityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown favorite entity type")
	}
	if entityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entity id is required")
	}

	inserted, err := s.repo.Insert(ctx, &models.Favorite{
		ID:         uuid.New(),
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert favorite")
	}
	if inserted {
		return &ToggleResult{Favorited: true}, nil
	}

	if _, err := s.repo.Remove(ctx, userID, entityType, entityID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	return &ToggleResult{Favorited: false}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if params.EntityType != "" && !params.EntityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown favorite entity type")
	}
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.ListForUser(ctx, params.UserID, params.EntityType, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
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
