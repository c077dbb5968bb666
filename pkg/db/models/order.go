package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventyard/eventyard-backend/pkg/enums"
)

// Order is a placed marketplace order with its line items and payment intent.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BuyerUserID   uuid.UUID         `gorm:"column:buyer_user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'placed'"`
	SubtotalCents int               `gorm:"column:subtotal_cents;not null"`
	FeeCents      int               `gorm:"column:fee_cents;not null;default:0"`
	TotalCents    int               `gorm:"column:total_cents;not null"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentIntent *PaymentIntent    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt   *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a product line at order placement time.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;type:text;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// PaymentIntent carries only an external processor reference; gateway
// integration itself lives outside this service.
type PaymentIntent struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	AmountCents int                       `gorm:"column:amount_cents;not null"`
	Status      enums.PaymentIntentStatus `gorm:"column:status;type:text;not null;default:'created'"`
	ExternalRef *string                   `gorm:"column:external_ref;type:text"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
