package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Repository exposes persistence helpers for hotel reservations. State
// transitions go through TransitionStatus so a row can never leave a terminal
// state by accident.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reservation *models.HotelReservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.HotelReservation, error)
	ListForGuest(ctx context.Context, guestID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.HotelReservation, *pagination.Cursor, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.HotelReservation, *pagination.Cursor, error)
	ListDueExpiry(ctx context.Context, now time.Time, limit int) ([]models.HotelReservation, error)
	ListConfirmedCheckInsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.HotelReservation, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus, fields map[string]any) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reservations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, reservation *models.HotelReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.HotelReservation, error) {
	var reservation models.HotelReservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repositoryImpl) ListForGuest(ctx context.Context, guestID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.HotelReservation, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.HotelReservation{}).
		Where("guest_user_id = ?", guestID)
	return r.page(query, limit, cursor)
}

func (r *repositoryImpl) ListForEvent(ctx context.Context, eventID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.HotelReservation, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.HotelReservation{}).
		Where("package_id IN (?)", r.db.Model(&models.HotelPackage{}).Select("id").Where("event_id = ?", eventID))
	return r.page(query, limit, cursor)
}

func (r *repositoryImpl) page(query *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.HotelReservation, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var reservations []models.HotelReservation
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&reservations).Error; err != nil {
		return nil, nil, err
	}

	if len(reservations) > normalized {
		reservations = reservations[:normalized]
		last := reservations[len(reservations)-1]
		return reservations, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return reservations, nil, nil
}

func (r *repositoryImpl) ListDueExpiry(ctx context.Context, now time.Time, limit int) ([]models.HotelReservation, error) {
	if limit <= 0 {
		limit = 100
	}
	var reservations []models.HotelReservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", enums.ReservationPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).
		Error
	return reservations, err
}

func (r *repositoryImpl) ListConfirmedCheckInsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.HotelReservation, error) {
	if limit <= 0 {
		limit = 500
	}
	var reservations []models.HotelReservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND check_in >= ? AND check_in < ?", enums.ReservationConfirmed, from, to).
		Order("check_in ASC").
		Limit(limit).
		Find(&reservations).
		Error
	return reservations, err
}

// TransitionStatus applies fields only when the row is still in the expected
// state. Zero affected rows means someone else won the transition.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for column, value := range fields {
		updates[column] = value
	}

	result := r.db.WithContext(ctx).
		Model(&models.HotelReservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
