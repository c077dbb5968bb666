package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records each outbound relay send and its final outcome.
type EmailLog struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Recipient string    `gorm:"column:recipient;type:text;not null"`
	Template  string    `gorm:"column:template;type:text;not null"`
	Subject   string    `gorm:"column:subject;type:text;not null"`
	Status    string    `gorm:"column:status;type:text;not null"`
	Attempts  int       `gorm:"column:attempts;not null;default:0"`
	LastError *string   `gorm:"column:last_error;type:text"`
	DedupeKey *string   `gorm:"column:dedupe_key;type:text;uniqueIndex:email_logs_dedupe_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
