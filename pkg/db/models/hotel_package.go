package models

import (
	"time"

	"github.com/google/uuid"
)

// HotelPackage is a hotel's offering for an event. Room inventory lives on the
// owned RoomType rows, never on the package itself.
type HotelPackage struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;not null;index"`
	HotelName   string     `gorm:"column:hotel_name;type:text;not null"`
	Location    string     `gorm:"column:location;type:text"`
	Description string     `gorm:"column:description;type:text"`
	Active      bool       `gorm:"column:active;not null;default:true"`
	RoomTypes   []RoomType `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
