package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance records a user's first check-in at an event.
type Attendance struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:attendance_user_event_key"`
	EventID     uuid.UUID `gorm:"column:event_id;type:uuid;not null;uniqueIndex:attendance_user_event_key"`
	CheckedInAt time.Time `gorm:"column:checked_in_at;not null"`
}

func (Attendance) TableName() string { return "attendance" }

// Achievement marks a milestone accrued from attendance. One row per (user, kind).
type Achievement struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:achievements_user_kind_key"`
	Kind     string    `gorm:"column:kind;type:text;not null;uniqueIndex:achievements_user_kind_key"`
	EarnedAt time.Time `gorm:"column:earned_at;not null"`
}
