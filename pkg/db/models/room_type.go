package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomType is a bookable room category with its own inventory counters.
// Each room type is its own row so holds and releases are single guarded
// UPDATEs instead of whole-document array patches. Invariant: 0 <= sold <= quantity.
type RoomType struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PackageID          uuid.UUID `gorm:"column:package_id;type:uuid;not null;index"`
	Name               string    `gorm:"column:name;type:text;not null"`
	PricePerNightCents int       `gorm:"column:price_per_night_cents;not null"`
	MaxGuests          int       `gorm:"column:max_guests;not null;default:2"`
	Quantity           int       `gorm:"column:quantity;not null"`
	Sold               int       `gorm:"column:sold;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
