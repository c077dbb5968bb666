package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// Ticket grants entry to an event and records its scan state.
type Ticket struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventID       uuid.UUID                 `gorm:"column:event_id;type:uuid;not null;index"`
	HolderUserID  uuid.UUID                 `gorm:"column:holder_user_id;type:uuid;not null;index"`
	Code          string                    `gorm:"column:code;type:text;not null;uniqueIndex:tickets_code_key"`
	PaymentStatus enums.TicketPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	ScannedAt     *time.Time                `gorm:"column:scanned_at"`
	ScannedBy     *uuid.UUID                `gorm:"column:scanned_by;type:uuid"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
