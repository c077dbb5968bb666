package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Repository exposes persistence helpers for reviews and the provider rating
// aggregates derived from them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForProvider(ctx context.Context, providerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, *pagination.Cursor, error)
	VoteHelpful(ctx context.Context, id uuid.UUID) (bool, error)
	RecomputeProviderRating(ctx context.Context, providerID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reviews repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Review{}).
		Error
}

func (r *repositoryImpl) ListForProvider(ctx context.Context, providerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("provider_id = ?", providerID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var reviews []models.Review
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&reviews).Error; err != nil {
		return nil, nil, err
	}

	if len(reviews) > normalized {
		reviews = reviews[:normalized]
		last := reviews[len(reviews)-1]
		return reviews, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return reviews, nil, nil
}

// VoteHelpful bumps the counter in a single statement, so concurrent voters
// each land their increment.
func (r *repositoryImpl) VoteHelpful(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Exec(`UPDATE reviews SET helpful = helpful + 1 WHERE id = ?`, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RecomputeProviderRating rebuilds the aggregates from the surviving rows.
func (r *repositoryImpl) RecomputeProviderRating(ctx context.Context, providerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Exec(`UPDATE service_providers
SET rating_avg = COALESCE((SELECT AVG(rating) FROM reviews WHERE provider_id = ?), 0),
    rating_count = (SELECT COUNT(*) FROM reviews WHERE provider_id = ?)
WHERE id = ?`, providerID, providerID, providerID).
		Error
}
