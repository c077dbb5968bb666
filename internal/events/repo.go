package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Repository exposes persistence helpers for events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPublished(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Event, *pagination.Cursor, error)
	ListForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an events repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *repositoryImpl) ListPublished(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Event, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("status = ?", enums.EventPublished)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var events []models.Event
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	if len(events) > normalized {
		events = events[:normalized]
		last := events[len(events)-1]
		return events, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return events, nil, nil
}

func (r *repositoryImpl) ListForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&events).
		Error
	return events, err
}
