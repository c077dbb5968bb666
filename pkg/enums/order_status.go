package enums

// OrderStatus tracks marketplace orders.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

// PaymentIntentStatus records the externally-owned payment state snapshot.
type PaymentIntentStatus string

const (
	PaymentIntentCreated  PaymentIntentStatus = "created"
	PaymentIntentCaptured PaymentIntentStatus = "captured"
	PaymentIntentVoided   PaymentIntentStatus = "voided"
)
