package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// ServiceProvider is a directory listing created from an owner's application
// and moderated by admins. Rating aggregates are recomputed from reviews.
type ServiceProvider struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID     uuid.UUID            `gorm:"column:owner_user_id;type:uuid;not null;uniqueIndex:service_providers_owner_key"`
	Name            string               `gorm:"column:name;type:text;not null"`
	Category        string               `gorm:"column:category;type:text;not null"`
	Description     string               `gorm:"column:description;type:text"`
	Status          enums.ProviderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	ModerationNotes *string              `gorm:"column:moderation_notes;type:text"`
	RatingAvg       float64              `gorm:"column:rating_avg;not null;default:0"`
	RatingCount     int                  `gorm:"column:rating_count;not null;default:0"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
