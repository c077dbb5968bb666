package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// Event anchors ticketing, hotel packages and attendance.
type Event struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrganizerID        uuid.UUID         `gorm:"column:organizer_id;type:uuid;not null;index"`
	Title              string            `gorm:"column:title;type:text;not null"`
	Venue              string            `gorm:"column:venue;type:text"`
	StartDate          time.Time         `gorm:"column:start_date;not null"`
	BookingCutoffHours *int              `gorm:"column:booking_cutoff_hours"`
	Status             enums.EventStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
