package hotels

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
)

// Repository owns hotel package and room type persistence, including the
// guarded inventory counters reservations claim against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePackage(ctx context.Context, pkg *models.HotelPackage) error
	FindPackageByID(ctx context.Context, id uuid.UUID) (*models.HotelPackage, error)
	UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPackagesForEvent(ctx context.Context, eventID uuid.UUID) ([]models.HotelPackage, error)

	AddRoomType(ctx context.Context, roomType *models.RoomType) error
	FindRoomTypeByID(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
	UpdateRoomType(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetRoomTypeQuantity(ctx context.Context, id uuid.UUID, quantity int) (bool, error)

	HoldRooms(ctx context.Context, roomTypeID uuid.UUID, rooms int) (bool, error)
	ReleaseRooms(ctx context.Context, roomTypeID uuid.UUID, rooms int) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a hotels repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreatePackage(ctx context.Context, pkg *models.HotelPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *repositoryImpl) FindPackageByID(ctx context.Context, id uuid.UUID) (*models.HotelPackage, error) {
	var pkg models.HotelPackage
	if err := r.db.WithContext(ctx).
		Preload("RoomTypes").
		First(&pkg, "id = ?", id).
		Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repositoryImpl) UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.HotelPackage{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *repositoryImpl) ListPackagesForEvent(ctx context.Context, eventID uuid.UUID) ([]models.HotelPackage, error) {
	var packages []models.HotelPackage
	err := r.db.WithContext(ctx).
		Preload("RoomTypes").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&packages).
		Error
	return packages, err
}

func (r *repositoryImpl) AddRoomType(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Create(roomType).Error
}

func (r *repositoryImpl) FindRoomTypeByID(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).First(&roomType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

func (r *repositoryImpl) UpdateRoomType(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.RoomType{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// SetRoomTypeQuantity lowers or raises capacity but never below the rooms
// already sold. Returns false when the guard rejected the new quantity.
func (r *repositoryImpl) SetRoomTypeQuantity(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Exec(`UPDATE room_types SET quantity = ? WHERE id = ? AND sold <= ?`, quantity, id, quantity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HoldRooms claims rooms with a single guarded statement. Zero affected rows
// means the claim would exceed capacity.
func (r *repositoryImpl) HoldRooms(ctx context.Context, roomTypeID uuid.UUID, rooms int) (bool, error) {
	result := r.db.WithContext(ctx).
		Exec(`UPDATE room_types SET sold = sold + ? WHERE id = ? AND sold + ? <= quantity`, rooms, roomTypeID, rooms)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseRooms returns rooms to the pool, flooring at zero so a double release
// can never drive the counter negative.
func (r *repositoryImpl) ReleaseRooms(ctx context.Context, roomTypeID uuid.UUID, rooms int) error {
	return r.db.WithContext(ctx).
		Exec(`UPDATE room_types SET sold = CASE WHEN sold - ? < 0 THEN 0 ELSE sold - ? END WHERE id = ?`, rooms, rooms, roomTypeID).
		Error
}
