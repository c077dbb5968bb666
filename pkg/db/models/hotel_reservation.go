package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// HotelReservation is a guest's claim on rooms of one RoomType. It never owns
// inventory; the room type's sold counter is reconciled on every state change.
type HotelReservation struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	PackageID      uuid.UUID               `gorm:"column:package_id;type:uuid;not null;index"`
	RoomTypeID     uuid.UUID               `gorm:"column:room_type_id;type:uuid;not null;index"`
	GuestUserID    uuid.UUID               `gorm:"column:guest_user_id;type:uuid;not null;index"`
	GuestName      string                  `gorm:"column:guest_name;type:text;not null"`
	GuestEmail     string                  `gorm:"column:guest_email;type:text;not null"`
	CheckIn        time.Time               `gorm:"column:check_in;not null"`
	CheckOut       time.Time               `gorm:"column:check_out;not null"`
	NumberOfRooms  int                     `gorm:"column:number_of_rooms;not null"`
	NumberOfGuests int                     `gorm:"column:number_of_guests;not null"`
	Status         enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	HoldToken      *string                 `gorm:"column:hold_token;type:text"`
	ExpiresAt      *time.Time              `gorm:"column:expires_at;index"`

	// Pricing snapshot computed at creation time.
	Nights        int     `gorm:"column:nights;not null"`
	SubtotalCents int     `gorm:"column:subtotal_cents;not null"`
	FeeCents      int     `gorm:"column:fee_cents;not null"`
	TotalCents    int     `gorm:"column:total_cents;not null"`
	PaymentRef    *string `gorm:"column:payment_ref;type:text"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	ExpiredAt   *time.Time `gorm:"column:expired_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
