package providers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the service-provider directory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, provider *models.ServiceProvider) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.ServiceProvider, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByStatus(ctx context.Context, status enums.ProviderStatus, category string, limit int, cursor *pagination.Cursor) ([]models.ServiceProvider, *pagination.Cursor, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ProviderStatus, updates map[string]any) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a providers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, provider *models.ServiceProvider) error {
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	var provider models.ServiceProvider
	if err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *repositoryImpl) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.ServiceProvider, error) {
	var provider models.ServiceProvider
	if err := r.db.WithContext(ctx).First(&provider, "owner_user_id = ?", ownerUserID).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *repositoryImpl) ListByStatus(ctx context.Context, status enums.ProviderStatus, category string, limit int, cursor *pagination.Cursor) ([]models.ServiceProvider, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("status = ?", status)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var providers []models.ServiceProvider
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&providers).Error; err != nil {
		return nil, nil, err
	}

	if len(providers) > normalized {
		providers = providers[:normalized]
		last := providers[len(providers)-1]
		return providers, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return providers, nil, nil
}

// TransitionStatus moves a listing between moderation states only when it is
// still in the expected source state.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ProviderStatus, updates map[string]any) (bool, error) {
	fields := map[string]any{"status": to}
	for column, value := range updates {
		fields[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
