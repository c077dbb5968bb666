package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a member's rating of a service provider. The (provider, author)
// pair is unique so a second review can never be created for the same pair.
type Review struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProviderID   uuid.UUID `gorm:"column:provider_id;type:uuid;not null;uniqueIndex:reviews_provider_author_key"`
	AuthorUserID uuid.UUID `gorm:"column:author_user_id;type:uuid;not null;uniqueIndex:reviews_provider_author_key"`
	Rating       int       `gorm:"column:rating;not null"`
	Title        string    `gorm:"column:title;type:text"`
	Body         string    `gorm:"column:body;type:text"`
	Helpful      int       `gorm:"column:helpful;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
