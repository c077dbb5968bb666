package enums

// ReservationStatus tracks the hotel reservation lifecycle.
// PENDING -> {CONFIRMED, EXPIRED, CANCELLED}; CONFIRMED -> {CANCELLED, REFUNDED}.
// All other states are terminal and no transition re-enters PENDING.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationRefunded  ReservationStatus = "refunded"
)

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationExpired, ReservationCancelled, ReservationRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationExpired, ReservationCancelled, ReservationRefunded:
		return true
	}
	return false
}

// HoldsInventory reports whether a reservation in this status still counts
// against the room type's sold counter.
func (s ReservationStatus) HoldsInventory() bool {
	return s == ReservationPending || s == ReservationConfirmed
}
