package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// Favorite marks an entity a user has saved. One row per (user, entity) pair.
type Favorite struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:favorites_user_entity_key"`
	EntityType enums.FavoriteEntity `gorm:"column:entity_type;type:text;not null;uniqueIndex:favorites_user_entity_key"`
	EntityID   uuid.UUID            `gorm:"column:entity_id;type:uuid;not null;uniqueIndex:favorites_user_entity_key"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
