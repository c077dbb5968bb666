package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a marketplace listing (including restaurant menu items) with its
// own stock counter mutated only through guarded UPDATEs.
type Product struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorUserID uuid.UUID `gorm:"column:vendor_user_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;type:text;not null"`
	Category     string    `gorm:"column:category;type:text;not null"`
	PriceCents   int       `gorm:"column:price_cents;not null"`
	Stock        int       `gorm:"column:stock;not null;default:0"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is one product line in a user's open cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:cart_items_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_user_product_key"`
	Qty       int       `gorm:"column:qty;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
