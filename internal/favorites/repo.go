package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Repository exposes persistence helpers for user favorites.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, favorite *models.Favorite) (bool, error)
	Remove(ctx context.Context, userID uuid.UUID, entityType enums.FavoriteEntity, entityID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, entityType enums.FavoriteEntity, limit int, cursor *pagination.Cursor) ([]models.Favorite, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a favorites repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Insert adds the favorite unless the (user, entity) pair already exists.
// Returns false when the row was already present.
func (r *repositoryImpl) Insert(ctx context.Context, favorite *models.Favorite) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO favorites (id, user_id, entity_type, entity_id, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, entity_type, entity_id) DO NOTHING`,
		favorite.ID, favorite.UserID, favorite.EntityType, favorite.EntityID, favorite.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Remove(ctx context.Context, userID uuid.UUID, entityType enums.FavoriteEntity, entityID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, entityType enums.FavoriteEntity, limit int, cursor *pagination.Cursor) ([]models.Favorite, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ?", userID)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var favorites []models.Favorite
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&favorites).Error; err != nil {
		return nil, nil, err
	}

	if len(favorites) > normalized {
		favorites = favorites[:normalized]
		last := favorites[len(favorites)-1]
		return favorites, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return favorites, nil, nil
}
