package enums

// TicketPaymentStatus mirrors the payment state carried on a ticket.
type TicketPaymentStatus string

const (
	TicketPaymentPending TicketPaymentStatus = "pending"
	TicketPaymentPaid    TicketPaymentStatus = "paid"
	TicketPaymentVoided  TicketPaymentStatus = "voided"
)

// ScanResultCode discriminates expected scan outcomes. These travel inside a
// successful response so the client can render a specific state for each.
type ScanResultCode string

const (
	ScanOK             ScanResultCode = "ok"
	ScanAlreadyScanned ScanResultCode = "already_scanned"
	ScanWrongEvent     ScanResultCode = "wrong_event"
	ScanPendingPayment ScanResultCode = "pending_payment"
	ScanNotFound       ScanResultCode = "not_found"
)
