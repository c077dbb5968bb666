package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// Repository exposes persistence helpers for tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	FindByCode(ctx context.Context, code string) (*models.Ticket, error)
	ListForHolder(ctx context.Context, holderUserID uuid.UUID) ([]models.Ticket, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error)
	MarkScanned(ctx context.Context, id uuid.UUID, at time.Time, by uuid.UUID) (bool, error)
	ClearScan(ctx context.Context, id uuid.UUID) (bool, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status enums.TicketPaymentStatus) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a tickets repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repositoryImpl) FindByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repositoryImpl) ListForHolder(ctx context.Context, holderUserID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("holder_user_id = ?", holderUserID).
		Order("created_at DESC").
		Find(&tickets).
		Error
	return tickets, err
}

func (r *repositoryImpl) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&tickets).
		Error
	return tickets, err
}

// MarkScanned stamps the ticket only while it is still unscanned, so exactly
// one concurrent scanner wins.
func (r *repositoryImpl) MarkScanned(ctx context.Context, id uuid.UUID, at time.Time, by uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE tickets SET scanned_at = ?, scanned_by = ?, updated_at = ? WHERE id = ? AND scanned_at IS NULL`,
		at, by, at, id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ClearScan(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE tickets SET scanned_at = NULL, scanned_by = NULL WHERE id = ? AND scanned_at IS NOT NULL`,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) SetPaymentStatus(ctx context.Context, id uuid.UUID, status enums.TicketPaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", id).
		Update("payment_status", status).
		Error
}
